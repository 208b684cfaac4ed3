package drover

import (
	"errors"
	"fmt"
	"time"
)

// ErrorClass partitions errors by how the orchestrator should react.
type ErrorClass string

const (
	// ClassTransient errors are temporary and safe to retry: rate limits,
	// flaky networks, overloaded upstreams.
	ClassTransient ErrorClass = "transient"

	// ClassPermanent errors cannot be fixed by retrying: bad credentials,
	// missing models, revoked access.
	ClassPermanent ErrorClass = "permanent"

	// ClassInvalid errors indicate a request the upstream rejected as
	// malformed. Retrying the identical request will fail again.
	ClassInvalid ErrorClass = "invalid"
)

// ClassifiedError is implemented by errors that carry handling metadata.
type ClassifiedError interface {
	error
	Class() ErrorClass
	Retryable() bool
	StatusCode() int
	RetryAfter() time.Duration
}

// Error is the concrete classified error produced by provider adapters.
type Error struct {
	Msg        string
	Kind       ErrorClass
	Code       int           // HTTP status, 0 if not applicable
	RetryDelay time.Duration // from a Retry-After header, 0 if absent
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Class returns the error classification.
func (e *Error) Class() ErrorClass { return e.Kind }

// Retryable reports whether the error is transient.
func (e *Error) Retryable() bool { return e.Kind == ClassTransient }

// StatusCode returns the HTTP status code, or 0.
func (e *Error) StatusCode() int { return e.Code }

// RetryAfter returns the upstream's suggested retry delay, or 0.
func (e *Error) RetryAfter() time.Duration { return e.RetryDelay }

// NewTransientError creates a retryable error.
func NewTransientError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Kind: ClassTransient, Code: statusCode, Cause: cause}
}

// NewTransientErrorWithRetry creates a retryable error carrying the
// upstream's suggested delay.
func NewTransientErrorWithRetry(msg string, statusCode int, retryAfter time.Duration, cause error) *Error {
	return &Error{Msg: msg, Kind: ClassTransient, Code: statusCode, RetryDelay: retryAfter, Cause: cause}
}

// NewPermanentError creates a non-retryable error.
func NewPermanentError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Kind: ClassPermanent, Code: statusCode, Cause: cause}
}

// NewInvalidRequestError creates an error for a request the upstream
// rejected as malformed.
func NewInvalidRequestError(msg string, statusCode int, cause error) *Error {
	return &Error{Msg: msg, Kind: ClassInvalid, Code: statusCode, Cause: cause}
}

// IsTransient reports whether err (or anything it wraps) is classified
// transient.
func IsTransient(err error) bool {
	var ce ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class() == ClassTransient
	}
	return false
}

// IsPermanent reports whether err is classified permanent.
func IsPermanent(err error) bool {
	var ce ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class() == ClassPermanent
	}
	return false
}

// StatusCodeOf extracts the HTTP status from a classified error, or 0.
func StatusCodeOf(err error) int {
	var ce ClassifiedError
	if errors.As(err, &ce) {
		return ce.StatusCode()
	}
	return 0
}

// RetryAfterOf extracts the suggested retry delay, or 0.
func RetryAfterOf(err error) time.Duration {
	var ce ClassifiedError
	if errors.As(err, &ce) {
		return ce.RetryAfter()
	}
	return 0
}
