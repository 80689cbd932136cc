package graph

import (
	"context"

	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

type CommentRepository struct {
	exec Executor
}

func NewCommentRepository(exec Executor) *CommentRepository {
	return &CommentRepository{exec: exec}
}

// Create 评论节点和帖子评论数在同一语句内变更
func (r *CommentRepository) Create(ctx context.Context, c *model.Comment) error {
	st := NewQuery().
		Match("(p:Post {postId: $postId})").
		Set("p.commentsCount = coalesce(p.commentsCount, 0) + 1").
		Merge("(u:User {userId: $authorId})").
		Create("(cm:Comment $props)", "(cm)-[:ASSOCIATED_WITH]->(p)", "(u)-[:COMMENTED]->(cm)").
		Return("cm.commentId AS commentId").
		Param("postId", c.PostID).
		Param("authorId", c.AuthorID).
		Param("props", commentProps(c)).
		Build()
	return r.exec.Write(ctx, "comment.create", func(tx Tx) error {
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

func (r *CommentRepository) Get(ctx context.Context, commentID string) (*model.Comment, error) {
	st := NewQuery().
		Match("(cm:Comment {commentId: $commentId})").
		Return("cm").
		Param("commentId", commentID).
		Build()

	var out *model.Comment
	err := r.exec.Read(ctx, "comment.get", func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return pkg.ErrNotFound
		}
		m, _ := props(rows[0], "cm")
		c := commentFrom(m)
		out = &c
		return nil
	})
	return out, err
}

func (r *CommentRepository) Update(ctx context.Context, commentID, content string) (*model.Comment, error) {
	st := NewQuery().
		Match("(cm:Comment {commentId: $commentId})").
		Set("cm.content = $content").
		Return("cm").
		Param("commentId", commentID).
		Param("content", content).
		Build()

	var out *model.Comment
	err := r.exec.Write(ctx, "comment.update", func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return pkg.ErrNotFound
		}
		m, _ := props(rows[0], "cm")
		c := commentFrom(m)
		out = &c
		return nil
	})
	return out, err
}

// Delete 删除评论并回退帖子评论数，不减到负数
func (r *CommentRepository) Delete(ctx context.Context, commentID string) error {
	decrement := NewQuery().
		Match("(cm:Comment {commentId: $commentId})").
		OptionalMatch("(cm)-[:ASSOCIATED_WITH]->(p:Post)").
		Set("p.commentsCount = CASE WHEN coalesce(p.commentsCount, 0) > 0 THEN p.commentsCount - 1 ELSE 0 END").
		Return("cm.commentId AS commentId").
		Param("commentId", commentID).
		Build()
	remove := NewQuery().
		Match("(cm:Comment {commentId: $commentId})").
		DetachDelete("cm").
		Param("commentId", commentID).
		Build()
	return r.exec.Write(ctx, "comment.delete", func(tx Tx) error {
		rows, err := tx.Run(ctx, decrement)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return pkg.ErrNotFound
		}
		_, err = tx.Run(ctx, remove)
		return err
	})
}

// List 按创建时间倒序
func (r *CommentRepository) List(ctx context.Context, postID string, page model.Page) ([]model.Comment, int64, error) {
	page = page.Normalize()
	st := NewQuery().
		Match("(cm:Comment)-[:ASSOCIATED_WITH]->(:Post {postId: $postId})").
		With("cm").
		OrderBy(model.SortDesc, "cm.createdAt", "cm.commentId").
		With("collect(cm) AS comments").
		Return("size(comments) AS total", "comments[$skip..$end] AS items").
		Param("postId", postID).
		Param("skip", int64(page.Skip())).
		Param("end", int64(page.Skip()+page.Size)).
		Build()

	var (
		items []model.Comment
		total int64
	)
	err := r.exec.Read(ctx, "comment.list", func(tx Tx) error {
		rows, err := tx.Run(ctx, st)
		if err != nil {
			return err
		}
		items = []model.Comment{}
		if len(rows) == 0 {
			return nil
		}
		total = recordInt64(rows[0], "total")
		for _, m := range nodesFrom(rows[0], "items") {
			items = append(items, commentFrom(m))
		}
		return nil
	})
	return items, total, err
}

func (r *CommentRepository) ToggleLike(ctx context.Context, userID, commentID string) (model.ToggleResult, error) {
	return runToggle(ctx, r.exec, "comment.toggle_like", toggleLike("Comment", "commentId", commentID, userID))
}

func (r *CommentRepository) HasLiked(ctx context.Context, userID, commentID string) (bool, error) {
	return hasLiked(ctx, r.exec, "comment.has_liked", "Comment", "commentId", commentID, userID)
}
