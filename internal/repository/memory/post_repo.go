package memory

import (
	"context"
	"sort"
	"strings"

	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

type PostRepository struct {
	s *Store
}

func (r *PostRepository) Create(_ context.Context, p *model.Post) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.liveCommunity(p.CommunityID); !ok {
		return pkg.ErrNotFound
	}
	if _, ok := s.posts[p.PostID]; ok {
		return pkg.ErrConflict
	}
	s.ensureUser(p.CreatorID)
	stored := *p
	s.posts[p.PostID] = &stored
	return nil
}

func (r *PostRepository) Get(_ context.Context, postID string) (*model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.posts[postID]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *PostRepository) Update(_ context.Context, postID, content, imageURL string) (*model.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.posts[postID]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	p.Content = content
	if imageURL != "" {
		p.ImageURL = imageURL
	}
	out := *p
	return &out, nil
}

func (r *PostRepository) Delete(_ context.Context, postID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.posts[postID]; !ok {
		return pkg.ErrNotFound
	}
	r.s.deletePostLocked(postID)
	return nil
}

func (r *PostRepository) List(_ context.Context, q model.PostQuery) ([]model.Post, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	needle := strings.ToLower(q.Search)
	var all []model.Post
	for _, p := range r.s.posts {
		if p.CommunityID != q.CommunityID {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Content), needle) {
			continue
		}
		all = append(all, *p)
	}
	sortPosts(all, q.Sort)
	return window(all, q.Page), int64(len(all)), nil
}

func (r *PostRepository) ListByCreator(_ context.Context, userID string) ([]model.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.Post{}
	for _, p := range r.s.posts {
		if p.CreatorID == userID {
			out = append(out, *p)
		}
	}
	sortPosts(out, model.SortDesc)
	return out, nil
}

func (r *PostRepository) ToggleLike(_ context.Context, userID, postID string) (model.ToggleResult, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return model.ToggleResult{}, pkg.ErrNotFound
	}
	s.ensureUser(userID)
	liked := toggle(s.postLikes, likeKey{userID: userID, targetID: postID}, &p.LikesCount)
	return model.ToggleResult{Liked: liked, LikesCount: p.LikesCount}, nil
}

func (r *PostRepository) HasLiked(_ context.Context, userID, postID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	_, ok := r.s.postLikes[likeKey{userID: userID, targetID: postID}]
	return ok, nil
}

// toggle flips the edge and moves the counter, never below zero.
func toggle(edges map[likeKey]struct{}, k likeKey, counter *int64) bool {
	if _, ok := edges[k]; ok {
		delete(edges, k)
		if *counter > 0 {
			*counter--
		}
		return false
	}
	edges[k] = struct{}{}
	*counter++
	return true
}

func sortPosts(posts []model.Post, order model.SortOrder) {
	sort.Slice(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if order == model.SortAsc {
			a, b = b, a
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.PostID > b.PostID
	})
}
