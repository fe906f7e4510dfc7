package cache

import (
	"context"
	"time"
)

// Store is a time-boxed, content-addressed response cache. An entry older
// than its TTL is indistinguishable from a miss.
type Store interface {
	// Get retrieves a cached response by key.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a response under key for the given lifetime.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Clear removes all cached responses.
	Clear(ctx context.Context) error

	// Len returns the current number of cached responses.
	Len(ctx context.Context) (int, error)
}
