package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MagicalPanda8123/synapse-auth-service/pkg/database"
)

// RateLimiter implements a sliding window log over Redis sorted sets
type RateLimiter struct {
	redis *database.Redis
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redis *database.Redis) *RateLimiter {
	return &RateLimiter{redis: redis}
}

// Allow records the request and reports whether it fits inside the window
func (r *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window)

	redisKey := fmt.Sprintf("ratelimit:%s", key)

	err := r.redis.Client.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", windowStart.Unix())).Err()
	if err != nil {
		return false, fmt.Errorf("failed to clean old entries: %w", err)
	}

	count, err := r.redis.Client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to count entries: %w", err)
	}

	if count >= int64(limit) {
		return false, nil
	}

	member := fmt.Sprintf("%d", now.UnixNano())
	err = r.redis.Client.ZAdd(ctx, redisKey, redis.Z{
		Score:  float64(now.Unix()),
		Member: member,
	}).Err()
	if err != nil {
		return false, fmt.Errorf("failed to add entry: %w", err)
	}

	// Expiry failures only delay cleanup, never block the request.
	_ = r.redis.Client.Expire(ctx, redisKey, window+time.Minute).Err()

	return true, nil
}

// RetryAfter returns how long the caller should wait before the window has room
func (r *RateLimiter) RetryAfter(ctx context.Context, key string, window time.Duration) (time.Duration, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	oldest, err := r.redis.Client.ZRangeWithScores(ctx, redisKey, 0, 0).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read oldest entry: %w", err)
	}
	if len(oldest) == 0 {
		return 0, nil
	}

	oldestTime := time.Unix(int64(oldest[0].Score), 0)
	remaining := window - time.Since(oldestTime)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
