package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MagicalPanda8123/synapse-auth-service/pkg/database"
)

// RedisTokenBlacklist caches revoked refresh token ids in Redis. Entries
// expire together with the token they shadow, so the cache never outlives
// the credential it blocks.
type RedisTokenBlacklist struct {
	redis *database.Redis
}

// NewRedisTokenBlacklist creates a Redis-backed revocation cache
func NewRedisTokenBlacklist(redis *database.Redis) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{redis: redis}
}

// Add records a revoked jti until the underlying token would have expired
func (s *RedisTokenBlacklist) Add(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	key := fmt.Sprintf("revoked:jti:%s", jti)
	if err := s.redis.Client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to add jti to blacklist: %w", err)
	}
	return nil
}

// Contains reports whether the jti is known revoked
func (s *RedisTokenBlacklist) Contains(ctx context.Context, jti string) (bool, error) {
	key := fmt.Sprintf("revoked:jti:%s", jti)
	exists, err := s.redis.Client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check jti blacklist: %w", err)
	}
	return exists > 0, nil
}
