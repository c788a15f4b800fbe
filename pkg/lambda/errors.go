package lambda

import (
	"errors"
	"fmt"
)

// Configuration errors are fatal for the warm context and never retried.
var (
	ErrAlreadyListening = errors.New("listen can only be called once per execution context")
	ErrInvalidChunk     = errors.New("invalid non-string/byte chunk")
	ErrNotSupported     = errors.New("operation not supported on a synthetic connection")
	ErrAlreadyFinalized = errors.New("response already finalized")
	ErrCompletedTwice   = errors.New("invocation completed more than once")
	ErrHookExists       = errors.New("hook already registered")
)

// Translation and dispatch errors
var (
	ErrMalformedEvent = errors.New("malformed invocation event")
	ErrUnknownEvent   = errors.New("unknown invocation event")
	ErrHookNotFound   = errors.New("hook not found")
)

// AdapterError carries the adapter operation that failed
type AdapterError struct {
	Op  string // Operation that failed (e.g., "parse", "listen", "write")
	Err error  // Underlying error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("lambda adapter %s: %v", e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

func newAdapterError(op string, err error) *AdapterError {
	return &AdapterError{Op: op, Err: err}
}

// IsConfigurationError reports whether err is one of the fatal configuration errors
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrAlreadyListening) ||
		errors.Is(err, ErrInvalidChunk) ||
		errors.Is(err, ErrNotSupported) ||
		errors.Is(err, ErrAlreadyFinalized) ||
		errors.Is(err, ErrCompletedTwice) ||
		errors.Is(err, ErrHookExists)
}

// IsTranslationError reports whether err came from turning an event into a request
func IsTranslationError(err error) bool {
	return errors.Is(err, ErrMalformedEvent) || errors.Is(err, ErrUnknownEvent)
}
