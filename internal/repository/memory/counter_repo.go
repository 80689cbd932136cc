package memory

import (
	"context"
	"sort"
)

type CounterRepository struct {
	s *Store
}

func (r *CounterRepository) RepairPostCounters(_ context.Context, limit int) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	likes := make(map[string]int64)
	for k := range s.postLikes {
		likes[k.targetID]++
	}
	comments := make(map[string]int64)
	for _, c := range s.comments {
		comments[c.PostID]++
	}
	var repaired int64
	for _, id := range sortedKeys(s.posts) {
		if limit > 0 && repaired >= int64(limit) {
			break
		}
		p := s.posts[id]
		if p.LikesCount != likes[id] || p.CommentsCount != comments[id] {
			p.LikesCount, p.CommentsCount = likes[id], comments[id]
			repaired++
		}
	}
	return repaired, nil
}

func (r *CounterRepository) RepairCommentCounters(_ context.Context, limit int) (int64, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	likes := make(map[string]int64)
	for k := range s.comLikes {
		likes[k.targetID]++
	}
	var repaired int64
	for _, id := range sortedKeys(s.comments) {
		if limit > 0 && repaired >= int64(limit) {
			break
		}
		c := s.comments[id]
		if c.LikesCount != likes[id] {
			c.LikesCount = likes[id]
			repaired++
		}
	}
	return repaired, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
