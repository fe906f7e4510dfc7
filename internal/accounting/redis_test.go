package accounting

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

func TestRedisLedger_RecordAdditive(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ledger := NewRedisLedger(client)
	ctx := context.Background()

	total, err := ledger.Record(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, total)

	total, err = ledger.Record(ctx, 50)
	require.NoError(t, err)
	assert.Equal(t, 150, total)

	got, err := ledger.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, 150, got)
}

func TestRedisLedger_EmptyPeriodReadsZero(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ledger := NewRedisLedger(client)

	total, err := ledger.Total(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestRedisLedger_PeriodKeysAreIndependent(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ledger := NewRedisLedger(client)
	ctx := context.Background()

	now := time.Date(2026, time.August, 29, 12, 0, 0, 0, time.UTC)
	ledger.now = func() time.Time { return now }

	_, err := ledger.Record(ctx, 500)
	require.NoError(t, err)

	// A new month reads from a fresh key.
	now = time.Date(2026, time.September, 1, 0, 0, 1, 0, time.UTC)
	total, err := ledger.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, total)

	total, err = ledger.Record(ctx, 25)
	require.NoError(t, err)
	assert.Equal(t, 25, total)

	// The old period's key is untouched.
	val, err := client.Get(ctx, "usage:2026-08").Int()
	require.NoError(t, err)
	assert.Equal(t, 500, val)
}

func TestRedisLedger_Reset(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	ledger := NewRedisLedger(client)
	ctx := context.Background()

	_, err := ledger.Record(ctx, 300)
	require.NoError(t, err)

	require.NoError(t, ledger.Reset(ctx))

	total, err := ledger.Total(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}
