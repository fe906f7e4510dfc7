package ratelimit

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return client, mr
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	limiter := NewRateLimiter(client, 5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		allowed, err := limiter.Allow(ctx, "caller-1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	limiter := NewRateLimiter(client, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "caller-2")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "caller-2")
	require.NoError(t, err)
	assert.False(t, allowed, "fourth request should be blocked")
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	limiter := NewRateLimiter(client, 1)
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "caller-a")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "caller-b")
	require.NoError(t, err)
	assert.True(t, allowed, "a different caller has its own budget")
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	limiter := NewRateLimiter(client, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "caller-3")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := limiter.Allow(ctx, "caller-3")
	require.NoError(t, err)
	assert.False(t, allowed)

	// After a reset the budget is fresh again.
	require.NoError(t, limiter.Reset(ctx, "caller-3"))
	allowed, err = limiter.Allow(ctx, "caller-3")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestRateLimiter_ZeroLimitDisables(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	limiter := NewRateLimiter(client, 0)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		allowed, err := limiter.Allow(ctx, "caller-4")
		require.NoError(t, err)
		assert.True(t, allowed)
	}
}

func TestRateLimiter_CurrentUsage(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	limiter := NewRateLimiter(client, 10)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := limiter.Allow(ctx, "caller-5")
		require.NoError(t, err)
	}

	count, err := limiter.CurrentUsage(ctx, "caller-5")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestNoopLimiter_AllowsEverything(t *testing.T) {
	limiter := NewNoopLimiter()
	allowed, err := limiter.Allow(context.Background(), "anyone")
	require.NoError(t, err)
	assert.True(t, allowed)
}
