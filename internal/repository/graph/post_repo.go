package graph

import (
	"context"

	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

type PostRepository struct {
	exec Executor
}

func NewPostRepository(exec Executor) *PostRepository {
	return &PostRepository{exec: exec}
}

// Create 创建帖子并连上所属社区与作者
func (r *PostRepository) Create(ctx context.Context, p *model.Post) error {
	st := NewQuery().
		Match("(c:Community {communityId: $communityId})").
		Where(notDeleted).
		Merge("(u:User {userId: $creatorId})").
		Create("(p:Post $props)", "(p)-[:BELONGS_TO]->(c)", "(p)-[:CREATED_BY]->(u)").
		Return("p.postId AS postId").
		Param("communityId", p.CommunityID).
		Param("creatorId", p.CreatorID).
		Param("props", postProps(p)).
		Build()
	return r.exec.Write(ctx, "post.create", func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return pkg.ErrNotFound
		}
		return nil
	})
}

func (r *PostRepository) Get(ctx context.Context, postID string) (*model.Post, error) {
	st := NewQuery().
		Match("(p:Post {postId: $postId})").
		Return("p").
		Param("postId", postID).
		Build()

	var out *model.Post
	err := r.exec.Read(ctx, "post.get", func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return pkg.ErrNotFound
		}
		m, _ := props(rows[0], "p")
		p := postFrom(m)
		out = &p
		return nil
	})
	return out, err
}

// Update 只改内容和图片，其余字段保持不变
func (r *PostRepository) Update(ctx context.Context, postID, content, imageURL string) (*model.Post, error) {
	q := NewQuery().
		Match("(p:Post {postId: $postId})").
		Set("p.content = $content").
		Param("postId", postID).
		Param("content", content)
	if imageURL != "" {
		q.Set("p.imageUrl = $imageUrl").Param("imageUrl", imageURL)
	}
	st := q.Return("p").Build()

	var out *model.Post
	err := r.exec.Write(ctx, "post.update", func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return pkg.ErrNotFound
		}
		m, _ := props(rows[0], "p")
		p := postFrom(m)
		out = &p
		return nil
	})
	return out, err
}

// Delete 删除帖子及其评论，所有关联边一起移除
func (r *PostRepository) Delete(ctx context.Context, postID string) error {
	exists := NewQuery().
		Match("(p:Post {postId: $postId})").
		Return("p.postId AS postId").
		Param("postId", postID).
		Build()
	cascade := NewQuery().
		Match("(p:Post {postId: $postId})").
		OptionalMatch("(cm:Comment)-[:ASSOCIATED_WITH]->(p)").
		DetachDelete("cm", "p").
		Param("postId", postID).
		Build()
	return r.exec.Write(ctx, "post.delete", func(tx Tx) error {
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

// List 总数在分页之前计算，和分页结果出自同一条语句
func (r *PostRepository) List(ctx context.Context, q model.PostQuery) ([]model.Post, int64, error) {
	q.Page = q.Page.Normalize()
	search := ""
	if q.Search != "" {
		search = "toLower(p.content) CONTAINS toLower($search)"
	}
	b := NewQuery().
		Match("(p:Post)-[:BELONGS_TO]->(c:Community {communityId: $communityId})").
		Where(search).
		With("p").
		OrderBy(q.Sort, "p.createdAt", "p.postId").
		With("collect(p) AS posts").
		Return("size(posts) AS total", "posts[$skip..$end] AS items").
		Param("communityId", q.CommunityID).
		Param("skip", int64(q.Page.Skip())).
		Param("end", int64(q.Page.Skip()+q.Page.Size))
	if search != "" {
		b.Param("search", q.Search)
	}
	st := b.Build()

	var (
		items []model.Post
		total int64
	)
	err := r.exec.Read(ctx, "post.list", func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		items = []model.Post{}
		if len(rows) == 0 {
			return nil
		}
		total = recordInt64(rows[0], "total")
		for _, m := range nodesFrom(rows[0], "items") {
			items = append(items, postFrom(m))
		}
		return nil
	})
	return items, total, err
}

func (r *PostRepository) ListByCreator(ctx context.Context, userID string) ([]model.Post, error) {
	st := NewQuery().
		Match("(p:Post)-[:CREATED_BY]->(:User {userId: $userId})").
		Return("p").
		OrderBy(model.SortDesc, "p.createdAt", "p.postId").
		Param("userId", userID).
		Build()

	var out []model.Post
	err := r.exec.Read(ctx, "post.list_by_creator", func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		out = make([]model.Post, 0, len(rows))
		for _, row := range rows {
			if m, ok := props(row, "p"); ok {
				out = append(out, postFrom(m))
			}
		}
		return nil
	})
	return out, err
}

func (r *PostRepository) ToggleLike(ctx context.Context, userID, postID string) (model.ToggleResult, error) {
	return runToggle(ctx, r.exec, "post.toggle_like", toggleLike("Post", "postId", postID, userID))
}

func (r *PostRepository) HasLiked(ctx context.Context, userID, postID string) (bool, error) {
	return hasLiked(ctx, r.exec, "post.has_liked", "Post", "postId", postID, userID)
}
