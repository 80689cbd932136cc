package model

import "time"

// Role 身份库中按社区ID命名的管理员角色
type Role struct {
	ID          uint64 `gorm:"primaryKey"`
	Name        string `gorm:"uniqueIndex;size:64;not null"`
	CommunityID string `gorm:"index;size:64;not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type UserRole struct {
	ID        uint64 `gorm:"primaryKey"`
	UserID    string `gorm:"size:64;not null;uniqueIndex:uk_user_role"`
	RoleID    uint64 `gorm:"not null;index;uniqueIndex:uk_user_role"`
	CreatedAt time.Time
}
