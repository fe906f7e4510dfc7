package gateway

import (
	"context"
	"time"

	"lingo_gateway/internal/providers"
)

// BackoffFunc maps a 1-based failed attempt number to the delay before the
// next attempt.
type BackoffFunc func(attempt int) time.Duration

// LinearBackoff returns a backoff growing linearly with the attempt number:
// base after the first failure, 2*base after the second, and so on.
func LinearBackoff(base time.Duration) BackoffFunc {
	return func(attempt int) time.Duration {
		return time.Duration(attempt) * base
	}
}

// Retryer re-runs provider calls that fail transiently. Permanent errors
// abort immediately, and the final attempt's error is returned unwrapped so
// the caller sees the real cause.
type Retryer struct {
	MaxAttempts int
	Backoff     BackoffFunc

	// Sleep is injectable for tests. It must honor ctx cancellation.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewRetryer creates a retryer with the given bounds.
func NewRetryer(maxAttempts int, backoff BackoffFunc) *Retryer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retryer{
		MaxAttempts: maxAttempts,
		Backoff:     backoff,
		Sleep:       sleepCtx,
	}
}

// Do runs fn up to MaxAttempts times, backing off between transient failures.
func (r *Retryer) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		if attempt > 1 {
			if err := r.Sleep(ctx, r.Backoff(attempt-1)); err != nil {
				return err
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !providers.IsTransient(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
