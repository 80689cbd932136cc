package service

import (
	"context"
	"time"

	"Yam_Community/internal/model"
	"Yam_Community/internal/moderation"
)

type CommunityStore interface {
	CreateWithAdmin(ctx context.Context, c *model.Community, admin model.Membership) error
	Get(ctx context.Context, communityID string) (*model.Community, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Update(ctx context.Context, communityID string, spec model.CommunitySpec, bannerURL string) (*model.Community, error)
	Delete(ctx context.Context, communityID string) error
	ListPublic(ctx context.Context, nameFilter string, page model.Page) ([]model.Community, error)
	CountPublic(ctx context.Context, nameFilter string) (int64, error)
	ListByMember(ctx context.Context, userID string) ([]model.Community, error)
}

type MembershipStore interface {
	GetMembership(ctx context.Context, userID, communityID string) (*model.Membership, error)
	GetAdmin(ctx context.Context, communityID string) (*model.User, error)
	Join(ctx context.Context, userID, communityID string, at time.Time) (bool, error)
	Remove(ctx context.Context, userID, communityID string) (bool, error)
	ListMembers(ctx context.Context, communityID string) ([]model.User, error)
}

type PostStore interface {
	Create(ctx context.Context, p *model.Post) error
	Get(ctx context.Context, postID string) (*model.Post, error)
	Update(ctx context.Context, postID, content, imageURL string) (*model.Post, error)
	Delete(ctx context.Context, postID string) error
	List(ctx context.Context, q model.PostQuery) ([]model.Post, int64, error)
	ListByCreator(ctx context.Context, userID string) ([]model.Post, error)
	ToggleLike(ctx context.Context, userID, postID string) (model.ToggleResult, error)
	HasLiked(ctx context.Context, userID, postID string) (bool, error)
}

type CommentStore interface {
	Create(ctx context.Context, c *model.Comment) error
	Get(ctx context.Context, commentID string) (*model.Comment, error)
	Update(ctx context.Context, commentID, content string) (*model.Comment, error)
	Delete(ctx context.Context, commentID string) error
	List(ctx context.Context, postID string, page model.Page) ([]model.Comment, int64, error)
	ToggleLike(ctx context.Context, userID, commentID string) (model.ToggleResult, error)
	HasLiked(ctx context.Context, userID, commentID string) (bool, error)
}

type UserStore interface {
	Upsert(ctx context.Context, u model.User) error
	Get(ctx context.Context, userID string) (*model.User, error)
}

type CounterStore interface {
	RepairPostCounters(ctx context.Context, limit int) (int64, error)
	RepairCommentCounters(ctx context.Context, limit int) (int64, error)
}

type InviteStore interface {
	Generate(ctx context.Context, communityID string) (string, error)
	Redeem(ctx context.Context, code string) (string, error)
	Revoke(ctx context.Context, code string) error
}

// RoleStore is the identity store's per-community admin role.
type RoleStore interface {
	CreateCommunityAdminRole(ctx context.Context, communityID, userID string) error
	DeleteCommunityRole(ctx context.Context, communityID string) error
}

type ReconcileQueue interface {
	Enqueue(ctx context.Context, task *model.ReconcileTask) error
	ListPending(ctx context.Context, batchSize int) ([]model.ReconcileTask, error)
	RetryUpdate(ctx context.Context, id uint64, reason string) error
	MarkDone(ctx context.Context, id uint64) error
	MarkFailed(ctx context.Context, id uint64, reason string) error
}

type Moderator interface {
	Validate(ctx context.Context, c moderation.Content) error
}

type Uploader interface {
	Upload(ctx context.Context, f *model.File) (string, error)
	// Remove deletes an object previously returned by Upload.
	Remove(ctx context.Context, url string) error
}

type Publisher interface {
	Publish(ctx context.Context, ev model.Event) error
}

// MembershipChecker answers whether a user may post in a community.
type MembershipChecker interface {
	IsMember(ctx context.Context, userID, communityID string) (bool, error)
}
