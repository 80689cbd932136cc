package memory

import (
	"context"
	"sort"

	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

type CommentRepository struct {
	s *Store
}

func (r *CommentRepository) Create(_ context.Context, c *model.Comment) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[c.PostID]
	if !ok {
		return pkg.ErrNotFound
	}
	if _, ok := s.comments[c.CommentID]; ok {
		return pkg.ErrConflict
	}
	s.ensureUser(c.AuthorID)
	stored := *c
	s.comments[c.CommentID] = &stored
	p.CommentsCount++
	return nil
}

func (r *CommentRepository) Get(_ context.Context, commentID string) (*model.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.comments[commentID]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (r *CommentRepository) Update(_ context.Context, commentID, content string) (*model.Comment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.comments[commentID]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	c.Content = content
	out := *c
	return &out, nil
}

func (r *CommentRepository) Delete(_ context.Context, commentID string) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[commentID]
	if !ok {
		return pkg.ErrNotFound
	}
	if p, ok := s.posts[c.PostID]; ok && p.CommentsCount > 0 {
		p.CommentsCount--
	}
	s.deleteCommentLocked(commentID)
	return nil
}

func (r *CommentRepository) List(_ context.Context, postID string, page model.Page) ([]model.Comment, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var all []model.Comment
	for _, c := range r.s.comments {
		if c.PostID == postID {
			all = append(all, *c)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].CommentID > all[j].CommentID
	})
	return window(all, page), int64(len(all)), nil
}

func (r *CommentRepository) ToggleLike(_ context.Context, userID, commentID string) (model.ToggleResult, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[commentID]
	if !ok {
		return model.ToggleResult{}, pkg.ErrNotFound
	}
	s.ensureUser(userID)
	liked := toggle(s.comLikes, likeKey{userID: userID, targetID: commentID}, &c.LikesCount)
	return model.ToggleResult{Liked: liked, LikesCount: c.LikesCount}, nil
}

func (r *CommentRepository) HasLiked(_ context.Context, userID, commentID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.comLikes[likeKey{userID: userID, targetID: commentID}]
	return ok, nil
}
