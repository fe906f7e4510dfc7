package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lingo_gateway/internal/features"
)

// GenerateResponse is a normalized provider response.
type GenerateResponse struct {
	// Output is the raw model output, expected to be a JSON document.
	Output []byte
	// UsageUnits is the provider-reported token usage for the call.
	UsageUnits int
	// Latency is the provider round-trip time.
	Latency time.Duration
}

// Client is implemented by each concrete generation provider.
type Client interface {
	// Generate sends a rendered prompt to the provider.
	Generate(ctx context.Context, spec *features.PromptSpec) (*GenerateResponse, error)

	// Close performs cleanup when the client is no longer needed.
	Close() error
}

// ErrorKind classifies provider failures for the retry policy. The
// classification happens once, here at the provider boundary; downstream
// code switches on Kind instead of inspecting messages or status codes.
type ErrorKind int

const (
	// Transient covers rate limiting and temporary unavailability.
	Transient ErrorKind = iota
	// Permanent covers everything else (bad request, auth failure, ...).
	Permanent
)

// Error is the tagged failure produced by a provider call.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the failure may succeed on a later attempt.
func (e *Error) Retryable() bool {
	return e.Kind == Transient
}

// IsTransient reports whether err is a provider error worth retrying.
func IsTransient(err error) bool {
	var pErr *Error
	return errors.As(err, &pErr) && pErr.Kind == Transient
}
