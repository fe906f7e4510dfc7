package cache

import (
	"context"
	"testing"
	"time"

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

func TestRedisStore_GetSet(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	store := NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k1", []byte("v1"), time.Minute))

	data, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []byte("v1"), data)

	_, found, err = store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRedisStore_TTLExpiry(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	store := NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k1", []byte("v1"), time.Hour))

	mr.FastForward(2 * time.Hour)

	_, found, err := store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.False(t, found, "entry should expire with its TTL")
}

func TestRedisStore_ClearAndLen(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	store := NewRedisStore(client)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k1", []byte("v"), time.Minute))
	require.NoError(t, store.Set(ctx, "k2", []byte("v"), time.Minute))

	// Unrelated keys must survive a cache clear.
	require.NoError(t, client.Set(ctx, "usage:2026-08", "42", 0).Err())

	n, err := store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, store.Clear(ctx))

	n, err = store.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	val, err := client.Get(ctx, "usage:2026-08").Result()
	require.NoError(t, err)
	assert.Equal(t, "42", val)
}
