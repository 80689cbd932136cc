package service

import (
	"context"
	"strings"

	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

// UserService 维护图中的用户投影，由身份服务在注册时调用
type UserService struct {
	users UserStore
}

func NewUserService(users UserStore) *UserService {
	return &UserService{users: users}
}

func (s *UserService) SyncUser(ctx context.Context, u model.User) error {
	u.UserID = strings.TrimSpace(u.UserID)
	if u.UserID == "" {
		return pkg.Invalid("userId is required")
	}
	return s.users.Upsert(ctx, u)
}

func (s *UserService) Get(ctx context.Context, userID string) (*model.User, error) {
	return s.users.Get(ctx, userID)
}
