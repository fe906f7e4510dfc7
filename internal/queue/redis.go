package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisQueue is a Redis-list-backed queue shared across gateway pods.
type RedisQueue struct {
	client *redis.Client
	config *Config
	qKey   string
}

// NewRedisQueue creates a queue backed by the given Redis client.
func NewRedisQueue(client *redis.Client, config *Config) *RedisQueue {
	if config == nil {
		config = DefaultConfig("redis")
	}
	return &RedisQueue{
		client: client,
		config: config,
		qKey:   fmt.Sprintf("queue:%s", config.Name),
	}
}

// Enqueue adds a payload to the queue.
func (q *RedisQueue) Enqueue(ctx context.Context, payload []byte) error {
	if err := q.client.RPush(ctx, q.qKey, payload).Err(); err != nil {
		return fmt.Errorf("failed to push to queue: %w", err)
	}
	return nil
}

// Dequeue waits up to wait for the first payload via BLPOP, then drains
// without blocking until maxItems is reached.
func (q *RedisQueue) Dequeue(ctx context.Context, maxItems int, wait time.Duration) ([][]byte, error) {
	result, err := q.client.BLPop(ctx, wait, q.qKey).Result()
	if err == redis.Nil {
		return [][]byte{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop from queue: %w", err)
	}

	// result[0] is the key, result[1] the payload.
	payloads := [][]byte{[]byte(result[1])}

	for len(payloads) < maxItems {
		next, err := q.client.LPop(ctx, q.qKey).Result()
		if err == redis.Nil {
			break
		}
		if err != nil {
			// Return what we have; the rest stays queued.
			return payloads, nil
		}
		payloads = append(payloads, []byte(next))
	}

	return payloads, nil
}

// Length returns the current queue length.
func (q *RedisQueue) Length(ctx context.Context) (int, error) {
	length, err := q.client.LLen(ctx, q.qKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return int(length), nil
}

// Close is a no-op; the shared Redis client is closed by its owner.
func (q *RedisQueue) Close() error {
	return nil
}

// RedisDeadLetter stores failed payloads in a Redis hash keyed by item ID.
type RedisDeadLetter struct {
	client *redis.Client
	dlKey  string
}

// NewRedisDeadLetter creates a dead-letter store backed by the given client.
func NewRedisDeadLetter(client *redis.Client, config *Config) *RedisDeadLetter {
	if config == nil {
		config = DefaultConfig("redis")
	}
	return &RedisDeadLetter{
		client: client,
		dlKey:  fmt.Sprintf("dlq:%s", config.Name),
	}
}

// Add records a failed payload together with its error.
func (q *RedisDeadLetter) Add(ctx context.Context, payload []byte, cause error) error {
	item := DeadItem{
		ID:        uuid.NewString(),
		Payload:   payload,
		Error:     cause.Error(),
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter item: %w", err)
	}
	if err := q.client.HSet(ctx, q.dlKey, item.ID, data).Err(); err != nil {
		return fmt.Errorf("failed to add to dead letter queue: %w", err)
	}
	return nil
}

// List retrieves up to maxItems dead-lettered payloads.
func (q *RedisDeadLetter) List(ctx context.Context, maxItems int) ([]DeadItem, error) {
	results, err := q.client.HGetAll(ctx, q.dlKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list dead letter items: %w", err)
	}

	items := make([]DeadItem, 0, len(results))
	for _, data := range results {
		var item DeadItem
		if err := json.Unmarshal([]byte(data), &item); err != nil {
			continue // skip malformed items
		}
		items = append(items, item)
		if maxItems > 0 && len(items) >= maxItems {
			break
		}
	}
	return items, nil
}

// Remove deletes a dead-lettered payload by ID.
func (q *RedisDeadLetter) Remove(ctx context.Context, id string) error {
	if err := q.client.HDel(ctx, q.dlKey, id).Err(); err != nil {
		return fmt.Errorf("failed to remove from dead letter queue: %w", err)
	}
	return nil
}

// Close is a no-op; the shared Redis client is closed by its owner.
func (q *RedisDeadLetter) Close() error {
	return nil
}

var (
	_ Queue      = (*RedisQueue)(nil)
	_ DeadLetter = (*RedisDeadLetter)(nil)
)
