package model

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"

	StatusActive = "active"
)

// Community 社区节点
type Community struct {
	CommunityID string    `json:"communityId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	BannerURL   string    `json:"bannerUrl"`
	IsPublic    bool      `json:"isPublic"`
	IsDeleted   bool      `json:"isDeleted"`
	CreatorID   string    `json:"creatorId"`
	CreatedAt   time.Time `json:"createdAt"`
	// Members mirrors the active MEMBER edges; every membership mutation keeps it in step.
	Members []string `json:"members"`
}

// CommunitySpec carries the editable fields of a community.
type CommunitySpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"isPublic"`
}

// Membership User->Community 的 MEMBER 边
type Membership struct {
	UserID      string    `json:"userId"`
	CommunityID string    `json:"communityId"`
	Status      string    `json:"status"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joinedAt"`
}

func (m *Membership) IsActive() bool {
	return m != nil && m.Status == StatusActive
}

func (m *Membership) IsAdmin() bool {
	return m.IsActive() && m.Role == RoleAdmin
}
