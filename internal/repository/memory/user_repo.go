package memory

import (
	"context"

	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

type UserRepository struct {
	s *Store
}

func (r *UserRepository) Upsert(_ context.Context, u model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := u
	r.s.users[u.UserID] = &stored
	return nil
}

func (r *UserRepository) Get(_ context.Context, userID string) (*model.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[userID]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	out := *u
	return &out, nil
}
