package graph

import (
	"context"

	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

type UserRepository struct {
	exec Executor
}

func NewUserRepository(exec Executor) *UserRepository {
	return &UserRepository{exec: exec}
}

// Upsert 幂等写入用户投影
func (r *UserRepository) Upsert(ctx context.Context, u model.User) error {
	st := NewQuery().
		Merge("(u:User {userId: $userId})").
		Set("u.username = $username", "u.email = $email").
		Param("userId", u.UserID).
		Param("username", u.Username).
		Param("email", u.Email).
		Build()
	return r.exec.Write(ctx, "user.upsert", func(tx Tx) error {
		_, err := tx.Run(ctx, st)
		return err
	})
}

func (r *UserRepository) Get(ctx context.Context, userID string) (*model.User, error) {
	st := NewQuery().
		Match("(u:User {userId: $userId})").
		Return("u").
		Param("userId", userID).
		Build()

	var out *model.User
	err := r.exec.Read(ctx, "user.get", func(tx Tx) error {
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
