// Package authinfra provides the infrastructure adapters for the auth
// package: refresh-id storage on Redis, the Google token verifier and the
// audit logger.
package authinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/roastery-dev/roastery/pkg/errx"
	"github.com/roastery-dev/roastery/pkg/iam/auth"
	"github.com/roastery-dev/roastery/pkg/kernel"
)

// rotateScript swaps the stored rotation id only when it still equals the
// presented one. Running it as a script keeps the compare and the swap in a
// single step, so two concurrent redemptions of the same token cannot both
// win.
var rotateScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
		return 1
	end
	return 0
`)

// RedisRefreshTokenIDStorage implements auth.RefreshTokenIDStorage with one
// key per principal.
type RedisRefreshTokenIDStorage struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRefreshTokenIDStorage creates the storage. The ttl should match
// the refresh-token lifetime so stale ids expire on their own.
func NewRedisRefreshTokenIDStorage(client *redis.Client, ttl time.Duration) *RedisRefreshTokenIDStorage {
	return &RedisRefreshTokenIDStorage{client: client, ttl: ttl}
}

// Insert stores tokenID as the one valid id for the user.
func (s *RedisRefreshTokenIDStorage) Insert(ctx context.Context, userID kernel.UserID, tokenID string) error {
	if err := s.client.Set(ctx, key(userID), tokenID, s.ttl).Err(); err != nil {
		return errx.Wrap(err, "failed to store refresh token id", errx.TypeInternal)
	}
	return nil
}

// Rotate atomically replaces currentID with nextID.
func (s *RedisRefreshTokenIDStorage) Rotate(ctx context.Context, userID kernel.UserID, currentID, nextID string) (bool, error) {
	swapped, err := rotateScript.Run(ctx, s.client,
		[]string{key(userID)},
		currentID, nextID, s.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, errx.Wrap(err, "failed to rotate refresh token id", errx.TypeInternal)
	}
	return swapped == 1, nil
}

// Invalidate drops the stored id.
func (s *RedisRefreshTokenIDStorage) Invalidate(ctx context.Context, userID kernel.UserID) error {
	if err := s.client.Del(ctx, key(userID)).Err(); err != nil {
		return errx.Wrap(err, "failed to invalidate refresh token id", errx.TypeInternal)
	}
	return nil
}

func key(userID kernel.UserID) string {
	return fmt.Sprintf("refresh-token:user-%d", userID.Int64())
}

var _ auth.RefreshTokenIDStorage = (*RedisRefreshTokenIDStorage)(nil)
