package graph

import (
	"context"
	"time"

	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

type MembershipRepository struct {
	exec Executor
}

func NewMembershipRepository(exec Executor) *MembershipRepository {
	return &MembershipRepository{exec: exec}
}

func (r *MembershipRepository) GetMembership(ctx context.Context, userID, communityID string) (*model.Membership, error) {
	st := NewQuery().
		Match("(:User {userId: $userId})-[m:MEMBER]->(c:Community {communityId: $communityId})").
		Where(notDeleted).
		Return("m").
		Param("userId", userID).
		Param("communityId", communityID).
		Build()

	var out *model.Membership
	err := r.exec.Read(ctx, "membership.get", func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return pkg.ErrNotFound
		}
		val, _ := rows[0].Get("m")
		m := membershipFrom(relProps(val), userID, communityID)
		out = &m
		return nil
	})
	return out, err
}

func (r *MembershipRepository) GetAdmin(ctx context.Context, communityID string) (*model.User, error) {
	st := NewQuery().
		Match("(u:User)-[m:MEMBER]->(c:Community {communityId: $communityId})").
		Where("m.role = $role", "m.status = $status", notDeleted).
		Return("u").
		Limit(1).
		Param("communityId", communityID).
		Param("role", model.RoleAdmin).
		Param("status", model.StatusActive).
		Build()

	var out *model.User
	err := r.exec.Read(ctx, "membership.get_admin", func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return pkg.ErrNotFound
		}
		m, _ := props(rows[0], "u")
		u := userFrom(m)
		out = &u
		return nil
	})
	return out, err
}

// Join 单语句条件插入：先锁住社区节点，再仅在不存在 MEMBER 边时建边并追加成员列表。
// 返回 false 表示边已存在或社区不存在。
func (r *MembershipRepository) Join(ctx context.Context, userID, communityID string, at time.Time) (bool, error) {
	st := NewQuery().
		Match("(c:Community {communityId: $communityId})").
		Where(notDeleted).
		Set("c.members = coalesce(c.members, [])").
		Merge("(u:User {userId: $userId})").
		With("c", "u").
		Where("NOT (u)-[:MEMBER]->(c)").
		Create("(u)-[:MEMBER {status: $status, role: $role, joinedAt: $joinedAt}]->(c)").
		Set("c.members = c.members + $userId").
		Return("c.communityId AS communityId").
		Param("communityId", communityID).
		Param("userId", userID).
		Param("status", model.StatusActive).
		Param("role", model.RoleMember).
		Param("joinedAt", at).
		Build()

	var created bool
	err := r.exec.Write(ctx, "membership.join", func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		created = len(rows) > 0
		return nil
	})
	return created, err
}

// Remove 删除 MEMBER 边并同步成员列表
func (r *MembershipRepository) Remove(ctx context.Context, userID, communityID string) (bool, error) {
	st := NewQuery().
		Match("(:User {userId: $userId})-[m:MEMBER]->(c:Community {communityId: $communityId})").
		Delete("m").
		Set("c.members = [x IN coalesce(c.members, []) WHERE x <> $userId]").
		Return("c.communityId AS communityId").
		Param("userId", userID).
		Param("communityId", communityID).
		Build()

	var removed bool
	err := r.exec.Write(ctx, "membership.remove", func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		removed = len(rows) > 0
		return nil
	})
	return removed, err
}

// ListMembers 活跃成员，按用户名排序
func (r *MembershipRepository) ListMembers(ctx context.Context, communityID string) ([]model.User, error) {
	st := NewQuery().
		Match("(u:User)-[m:MEMBER]->(c:Community {communityId: $communityId})").
		Where("m.status = $status", notDeleted).
		Return("u").
		OrderBy(model.SortAsc, "u.username", "u.userId").
		Param("communityId", communityID).
		Param("status", model.StatusActive).
		Build()

	var out []model.User
	err := r.exec.Read(ctx, "membership.list", func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		out = make([]model.User, 0, len(rows))
		for _, row := range rows {
			if m, ok := props(row, "u"); ok {
				out = append(out, userFrom(m))
			}
		}
		return nil
	})
	return out, err
}
