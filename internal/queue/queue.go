// Package queue provides the async buffer between the gateway's hot path and
// durable audit-log writes, with two backends: an in-memory channel queue for
// standalone deployments and a Redis list queue for distributed ones. Items
// that exhaust their write retries land in a dead-letter queue for operator
// inspection.
package queue

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrQueueClosed is returned when operating on a closed queue.
	ErrQueueClosed = errors.New("queue is closed")

	// ErrItemNotFound is returned when a dead-letter item does not exist.
	ErrItemNotFound = errors.New("item not found")
)

// Queue buffers serialized records for asynchronous processing.
type Queue interface {
	// Enqueue adds a payload to the queue.
	Enqueue(ctx context.Context, payload []byte) error

	// Dequeue retrieves up to maxItems payloads, waiting up to wait for the
	// first one. An empty slice means the wait elapsed with nothing queued.
	Dequeue(ctx context.Context, maxItems int, wait time.Duration) ([][]byte, error)

	// Length returns the current queue length.
	Length(ctx context.Context) (int, error)

	// Close shuts down the queue.
	Close() error
}

// DeadLetter stores payloads whose processing failed terminally.
type DeadLetter interface {
	// Add records a failed payload together with its error.
	Add(ctx context.Context, payload []byte, cause error) error

	// List retrieves up to maxItems dead-lettered payloads.
	List(ctx context.Context, maxItems int) ([]DeadItem, error)

	// Remove deletes a dead-lettered payload by ID.
	Remove(ctx context.Context, id string) error

	// Close shuts down the dead-letter store.
	Close() error
}

// DeadItem is one failed payload awaiting inspection or replay.
type DeadItem struct {
	ID        string
	Payload   []byte
	Error     string
	Timestamp time.Time
}

// Config holds queue tuning parameters.
type Config struct {
	// Name keys the queue in shared backends.
	Name string

	// BatchSize is the maximum number of payloads processed per batch.
	BatchSize int

	// BatchWait is how long a drain waits for the first payload.
	BatchWait time.Duration

	// MaxRetries bounds write attempts before dead-lettering.
	MaxRetries int

	// RetryBackoff is the initial backoff between write attempts.
	RetryBackoff time.Duration
}

// DefaultConfig returns the default tuning for a named queue.
func DefaultConfig(name string) *Config {
	return &Config{
		Name:         name,
		BatchSize:    100,
		BatchWait:    5 * time.Second,
		MaxRetries:   3,
		RetryBackoff: 1 * time.Second,
	}
}
