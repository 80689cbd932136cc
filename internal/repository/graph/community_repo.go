package graph

import (
	"context"
	"time"

	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

const notDeleted = "coalesce(c.isDeleted, false) = false"

type CommunityRepository struct {
	exec Executor
}

func NewCommunityRepository(exec Executor) *CommunityRepository {
	return &CommunityRepository{exec: exec}
}

// CreateWithAdmin 在同一事务里创建社区节点和管理员 MEMBER 边
func (r *CommunityRepository) CreateWithAdmin(ctx context.Context, c *model.Community, admin model.Membership) error {
	c.Members = []string{admin.UserID}
	create := NewQuery().
		Create("(c:Community $props)").
		Param("props", communityProps(c)).
		Build()
	member := NewQuery().
		Match("(c:Community {communityId: $communityId})").
		Merge("(u:User {userId: $userId})").
		Create("(u)-[:MEMBER {status: $status, role: $role, joinedAt: $joinedAt}]->(c)").
		Return("c.communityId AS communityId").
		Param("communityId", c.CommunityID).
		Param("userId", admin.UserID).
		Param("status", admin.Status).
		Param("role", admin.Role).
		Param("joinedAt", admin.JoinedAt).
		Build()

	return r.exec.Write(ctx, "community.create", func(tx Tx) error {
		if _, err := tx.Run(ctx, create); err != nil {
			return err
		}
		rows, err := tx.Run(ctx, member)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return pkg.ErrNotFound
		}
		return nil
	})
}

func (r *CommunityRepository) Get(ctx context.Context, communityID string) (*model.Community, error) {
	st := NewQuery().
		Match("(c:Community {communityId: $communityId})").
		Where(notDeleted).
		Return("c").
		Param("communityId", communityID).
		Build()

	var out *model.Community
	err := r.exec.Read(ctx, "community.get", func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return pkg.ErrNotFound
		}
		m, _ := props(rows[0], "c")
		c := communityFrom(m)
		out = &c
		return nil
	})
	return out, err
}

// ExistsByName 名称在未删除社区中唯一；excludeID 用于编辑时排除自身
func (r *CommunityRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	st := NewQuery().
		Match("(c:Community)").
		Where("c.name = $name", notDeleted, "c.communityId <> $excludeId").
		Return("count(c) AS n").
		Param("name", name).
		Param("excludeId", excludeID).
		Build()

	var n int64
	err := r.exec.Read(ctx, "community.exists_by_name", func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			n = recordInt64(rows[0], "n")
		}
		return nil
	})
	return n > 0, err
}

// Update 只在 bannerURL 非空时覆盖横幅
func (r *CommunityRepository) Update(ctx context.Context, communityID string, spec model.CommunitySpec, bannerURL string) (*model.Community, error) {
	q := NewQuery().
		Match("(c:Community {communityId: $communityId})").
		Where(notDeleted).
		Set("c.name = $name", "c.description = $description", "c.isPublic = $isPublic").
		Param("communityId", communityID).
		Param("name", spec.Name).
		Param("description", spec.Description).
		Param("isPublic", spec.IsPublic)
	if bannerURL != "" {
		q.Set("c.bannerUrl = $bannerUrl").Param("bannerUrl", bannerURL)
	}
	st := q.Return("c").Build()

	var out *model.Community
	err := r.exec.Write(ctx, "community.update", func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return pkg.ErrNotFound
		}
		m, _ := props(rows[0], "c")
		c := communityFrom(m)
		out = &c
		return nil
	})
	return out, err
}

// Delete 级联删除社区及其帖子、评论，所有关联边一并移除
func (r *CommunityRepository) Delete(ctx context.Context, communityID string) error {
	exists := NewQuery().
		Match("(c:Community {communityId: $communityId})").
		Return("c.communityId AS communityId").
		Param("communityId", communityID).
		Build()
	cascade := NewQuery().
		Match("(c:Community {communityId: $communityId})").
		OptionalMatch("(p:Post)-[:BELONGS_TO]->(c)").
		OptionalMatch("(cm:Comment)-[:ASSOCIATED_WITH]->(p)").
		DetachDelete("cm", "p", "c").
		Param("communityId", communityID).
		Build()

	return r.exec.Write(ctx, "community.delete", func(tx Tx) error {
		rows, err := tx.Run(ctx, exists)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return pkg.ErrNotFound
		}
		_, err = tx.Run(ctx, cascade)
		return err
	})
}

func publicFilter(nameFilter string) (string, string) {
	if nameFilter == "" {
		return "c.isPublic = true", ""
	}
	return "c.isPublic = true", "c.name CONTAINS $name"
}

func (r *CommunityRepository) ListPublic(ctx context.Context, nameFilter string, page model.Page) ([]model.Community, error) {
	page = page.Normalize()
	visible, byName := publicFilter(nameFilter)
	q := NewQuery().
		Match("(c:Community)").
		Where(visible, notDeleted, byName).
		Return("c").
		OrderBy(model.SortDesc, "c.createdAt", "c.communityId").
		Skip(page.Skip()).
		Limit(page.Size)
	if byName != "" {
		q.Param("name", nameFilter)
	}
	st := q.Build()

	var out []model.Community
	err := r.exec.Read(ctx, "community.list_public", func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		out = make([]model.Community, 0, len(rows))
		for _, row := range rows {
			if m, ok := props(row, "c"); ok {
				out = append(out, communityFrom(m))
			}
		}
		return nil
	})
	return out, err
}

func (r *CommunityRepository) CountPublic(ctx context.Context, nameFilter string) (int64, error) {
	visible, byName := publicFilter(nameFilter)
	q := NewQuery().
		Match("(c:Community)").
		Where(visible, notDeleted, byName).
		Return("count(c) AS total")
	if byName != "" {
		q.Param("name", nameFilter)
	}
	st := q.Build()

	var total int64
	err := r.exec.Read(ctx, "community.count_public", func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			total = recordInt64(rows[0], "total")
		}
		return nil
	})
	return total, err
}

func (r *CommunityRepository) ListByMember(ctx context.Context, userID string) ([]model.Community, error) {
	st := NewQuery().
		Match("(:User {userId: $userId})-[m:MEMBER]->(c:Community)").
		Where("m.status = $status", notDeleted).
		Return("c").
		OrderBy(model.SortAsc, "c.name").
		Param("userId", userID).
		Param("status", model.StatusActive).
		Build()

	var out []model.Community
	err := r.exec.Read(ctx, "community.list_by_member", func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		out = make([]model.Community, 0, len(rows))
		for _, row := range rows {
			if m, ok := props(row, "c"); ok {
				out = append(out, communityFrom(m))
			}
		}
		return nil
	})
	return out, err
}

func nowUTC() time.Time { return time.Now().UTC() }
