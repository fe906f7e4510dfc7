package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryQueue is a channel-backed queue for single-process deployments.
type MemoryQueue struct {
	items  chan []byte
	mu     sync.RWMutex
	closed bool
	config *Config
}

// NewMemoryQueue creates a new in-memory queue. The channel buffer holds ten
// batches so short write stalls do not block the enqueuing request.
func NewMemoryQueue(config *Config) *MemoryQueue {
	if config == nil {
		config = DefaultConfig("memory")
	}
	return &MemoryQueue{
		items:  make(chan []byte, config.BatchSize*10),
		config: config,
	}
}

// Enqueue adds a payload to the queue.
func (q *MemoryQueue) Enqueue(ctx context.Context, payload []byte) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.items <- payload:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue waits up to wait for the first payload, then drains without
// blocking until maxItems is reached.
func (q *MemoryQueue) Dequeue(ctx context.Context, maxItems int, wait time.Duration) ([][]byte, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return nil, ErrQueueClosed
	}

	var payloads [][]byte
	select {
	case payload := <-q.items:
		payloads = append(payloads, payload)
	case <-time.After(wait):
		return payloads, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	for len(payloads) < maxItems {
		select {
		case payload := <-q.items:
			payloads = append(payloads, payload)
		default:
			return payloads, nil
		}
	}

	return payloads, nil
}

// Length returns the current queue length.
func (q *MemoryQueue) Length(ctx context.Context) (int, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return 0, ErrQueueClosed
	}
	return len(q.items), nil
}

// Close shuts down the queue.
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.items)
	return nil
}

// MemoryDeadLetter keeps failed payloads in a slice.
type MemoryDeadLetter struct {
	mu     sync.RWMutex
	items  []DeadItem
	closed bool
}

// NewMemoryDeadLetter creates a new in-memory dead-letter store.
func NewMemoryDeadLetter() *MemoryDeadLetter {
	return &MemoryDeadLetter{items: make([]DeadItem, 0)}
}

// Add records a failed payload together with its error.
func (q *MemoryDeadLetter) Add(ctx context.Context, payload []byte, cause error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.items = append(q.items, DeadItem{
		ID:        uuid.NewString(),
		Payload:   payload,
		Error:     cause.Error(),
		Timestamp: time.Now(),
	})
	return nil
}

// List retrieves up to maxItems dead-lettered payloads.
func (q *MemoryDeadLetter) List(ctx context.Context, maxItems int) ([]DeadItem, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return nil, ErrQueueClosed
	}

	if maxItems <= 0 || maxItems > len(q.items) {
		maxItems = len(q.items)
	}
	result := make([]DeadItem, maxItems)
	copy(result, q.items[:maxItems])
	return result, nil
}

// Remove deletes a dead-lettered payload by ID.
func (q *MemoryDeadLetter) Remove(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	for i, item := range q.items {
		if item.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

// Close shuts down the dead-letter store.
func (q *MemoryDeadLetter) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.items = nil
	return nil
}

var (
	_ Queue      = (*MemoryQueue)(nil)
	_ DeadLetter = (*MemoryDeadLetter)(nil)
)
