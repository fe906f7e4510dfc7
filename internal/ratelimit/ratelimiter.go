// Package ratelimit enforces per-key request rates.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is used to enforce per-key rate limits.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// NoopLimiter allows all requests.
type NoopLimiter struct{}

func NewNoopLimiter() *NoopLimiter {
	return &NoopLimiter{}
}

func (l *NoopLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return true, nil
}

// RateLimiter implements distributed sliding-window rate limiting over Redis
// sorted sets. The window is one minute.
type RateLimiter struct {
	client *redis.Client
	limit  int
}

// NewRateLimiter creates a limiter allowing limit requests per minute per key.
func NewRateLimiter(client *redis.Client, limit int) *RateLimiter {
	return &RateLimiter{client: client, limit: limit}
}

// Allow checks if a request should be allowed for the given key.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if rl.limit <= 0 {
		return true, nil
	}

	rKey := fmt.Sprintf("ratelimit:%s", key)
	now := time.Now()
	windowStart := now.Add(-1 * time.Minute)

	pipe := rl.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, rKey, "0", fmt.Sprintf("%d", windowStart.UnixMilli()))
	countCmd := pipe.ZCard(ctx, rKey)
	pipe.ZAdd(ctx, rKey, redis.Z{
		Score:  float64(now.UnixMilli()),
		Member: fmt.Sprintf("%d:%d", now.UnixMilli(), now.UnixNano()%1000),
	})
	pipe.Expire(ctx, rKey, 2*time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	return int(countCmd.Val()) < rl.limit, nil
}

// CurrentUsage returns the request count in the current window.
func (rl *RateLimiter) CurrentUsage(ctx context.Context, key string) (int64, error) {
	rKey := fmt.Sprintf("ratelimit:%s", key)
	windowStart := time.Now().Add(-1 * time.Minute)

	if err := rl.client.ZRemRangeByScore(ctx, rKey, "0", fmt.Sprintf("%d", windowStart.UnixMilli())).Err(); err != nil {
		return 0, fmt.Errorf("failed to clean old entries: %w", err)
	}
	count, err := rl.client.ZCard(ctx, rKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get current usage: %w", err)
	}
	return count, nil
}

// Reset clears the window for a key.
func (rl *RateLimiter) Reset(ctx context.Context, key string) error {
	return rl.client.Del(ctx, fmt.Sprintf("ratelimit:%s", key)).Err()
}

var (
	_ Limiter = (*NoopLimiter)(nil)
	_ Limiter = (*RateLimiter)(nil)
)
