package service

import (
	"context"
	"errors"

	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

// Guard 基于图关系判断管理员/成员身份
type Guard struct {
	memberships MembershipStore
}

func NewGuard(memberships MembershipStore) *Guard {
	return &Guard{memberships: memberships}
}

func (g *Guard) GetAdmin(ctx context.Context, communityID string) (*model.User, error) {
	return g.memberships.GetAdmin(ctx, communityID)
}

func (g *Guard) GetMembership(ctx context.Context, userID, communityID string) (*model.Membership, error) {
	return g.memberships.GetMembership(ctx, userID, communityID)
}

func (g *Guard) IsAdmin(ctx context.Context, userID, communityID string) (bool, error) {
	m, err := g.memberships.GetMembership(ctx, userID, communityID)
	if errors.Is(err, pkg.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.IsAdmin(), nil
}

func (g *Guard) IsMember(ctx context.Context, userID, communityID string) (bool, error) {
	m, err := g.memberships.GetMembership(ctx, userID, communityID)
	if errors.Is(err, pkg.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.IsActive(), nil
}

// RequireAdmin 非管理员一律返回 ErrUnauthorized，不区分社区是否存在
func (g *Guard) RequireAdmin(ctx context.Context, userID, communityID string) error {
	ok, err := g.IsAdmin(ctx, userID, communityID)
	if err != nil {
		return err
	}
	if !ok {
		return pkg.ErrUnauthorized
	}
	return nil
}
