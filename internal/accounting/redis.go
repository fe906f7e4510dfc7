package accounting

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ledgerRetention keeps period keys around long enough to survive the
// month boundary plus a grace window.
const ledgerRetention = 60 * 24 * time.Hour

// RedisLedger is a Redis-backed accountant. Each period gets its own key, so
// rollover is implicit: a new month reads and increments a fresh key while
// the old one ages out.
type RedisLedger struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisLedger creates a ledger backed by the given Redis client.
func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client, now: time.Now}
}

var recordScript = redis.NewScript(`
	local key = KEYS[1]
	local units = tonumber(ARGV[1])
	local ttl = tonumber(ARGV[2])

	local total = redis.call('INCRBY', key, units)
	redis.call('EXPIRE', key, ttl)
	return total
`)

// Record atomically adds units to the current period's key.
func (l *RedisLedger) Record(ctx context.Context, units int) (int, error) {
	key := l.periodKey()
	total, err := recordScript.Run(ctx, l.client, []string{key},
		units, int(ledgerRetention.Seconds())).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to record usage: %w", err)
	}
	return total, nil
}

// Total returns the current period's accumulated units.
func (l *RedisLedger) Total(ctx context.Context) (int, error) {
	total, err := l.client.Get(ctx, l.periodKey()).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read usage: %w", err)
	}
	return total, nil
}

// Reset zeroes the current period.
func (l *RedisLedger) Reset(ctx context.Context) error {
	return l.client.Del(ctx, l.periodKey()).Err()
}

func (l *RedisLedger) periodKey() string {
	return "usage:" + l.now().Format(periodFormat)
}

var _ Accountant = (*RedisLedger)(nil)
