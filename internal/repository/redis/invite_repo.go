package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"Yam_Community/internal/pkg"
)

const (
	InviteCodeTTL       = 24 * time.Hour
	InviteKeyPrefix     = "invite:code"
	maxGenerateAttempts = 16
)

// InviteRepository 邀请码缓存：code -> communityID，带过期时间
type InviteRepository struct {
	rdb     redis.UniversalClient
	ttl     time.Duration
	newCode func() (string, error)
}

func NewInviteRepository(rdb redis.UniversalClient, ttl time.Duration) *InviteRepository {
	if ttl <= 0 {
		ttl = InviteCodeTTL
	}
	return &InviteRepository{rdb: rdb, ttl: ttl, newCode: pkg.InviteCode}
}

// WithCodeSource swaps the code generator.
func (r *InviteRepository) WithCodeSource(fn func() (string, error)) *InviteRepository {
	r.newCode = fn
	return r
}

func (r *InviteRepository) key(code string) string {
	return fmt.Sprintf("%s:%s", InviteKeyPrefix, code)
}

// Generate 用 SET NX EX 原子占位，冲突则换码重试
func (r *InviteRepository) Generate(ctx context.Context, communityID string) (string, error) {
	for i := 0; i < maxGenerateAttempts; i++ {
		code, err := r.newCode()
		if err != nil {
			return "", pkg.Store("invite.generate", err)
		}
		ok, err := r.rdb.SetNX(ctx, r.key(code), communityID, r.ttl).Result()
		if err != nil {
			return "", pkg.Store("invite.generate", err)
		}
		if ok {
			return code, nil
		}
	}
	return "", pkg.Store("invite.generate", errors.New("no free invite code after retries"))
}

// Redeem 返回邀请码对应的社区ID；过期或不存在返回 ErrNotFound
func (r *InviteRepository) Redeem(ctx context.Context, code string) (string, error) {
	if !pkg.IsInviteCode(code) {
		return "", pkg.ErrNotFound
	}
	communityID, err := r.rdb.Get(ctx, r.key(code)).Result()
	if errors.Is(err, redis.Nil) {
		return "", pkg.ErrNotFound
	}
	if err != nil {
		return "", pkg.Store("invite.redeem", err)
	}
	return communityID, nil
}

func (r *InviteRepository) Exists(ctx context.Context, code string) (bool, error) {
	if !pkg.IsInviteCode(code) {
		return false, nil
	}
	n, err := r.rdb.Exists(ctx, r.key(code)).Result()
	if err != nil {
		return false, pkg.Store("invite.exists", err)
	}
	return n > 0, nil
}

func (r *InviteRepository) Revoke(ctx context.Context, code string) error {
	n, err := r.rdb.Del(ctx, r.key(code)).Result()
	if err != nil {
		return pkg.Store("invite.revoke", err)
	}
	if n == 0 {
		return pkg.ErrNotFound
	}
	return nil
}
