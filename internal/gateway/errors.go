// Package gateway runs the request pipeline: validate, consult the cache,
// call the provider with retries, validate the response, then record usage
// and history.
package gateway

import "fmt"

// ErrorKind classifies pipeline failures for the HTTP layer.
type ErrorKind int

const (
	// KindValidation marks a request rejected before any provider call.
	KindValidation ErrorKind = iota
	// KindParse marks a provider response that failed schema validation.
	KindParse
	// KindTerminal marks a provider call that failed after retries or with a
	// permanent error.
	KindTerminal
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindParse:
		return "parse"
	case KindTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// Error is a classified pipeline failure.
type Error struct {
	Kind  ErrorKind
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func validationError(cause error) *Error {
	return &Error{Kind: KindValidation, Cause: cause}
}

func parseError(cause error) *Error {
	return &Error{Kind: KindParse, Cause: cause}
}

func terminalError(cause error) *Error {
	return &Error{Kind: KindTerminal, Cause: cause}
}
