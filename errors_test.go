package drover

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       *Error
		class     ErrorClass
		retryable bool
	}{
		{
			name:      "transient",
			err:       NewTransientError("rate limited", 429, nil),
			class:     ClassTransient,
			retryable: true,
		},
		{
			name:      "permanent",
			err:       NewPermanentError("invalid api key", 401, nil),
			class:     ClassPermanent,
			retryable: false,
		},
		{
			name:      "invalid",
			err:       NewInvalidRequestError("bad request", 400, nil),
			class:     ClassInvalid,
			retryable: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.class, tt.err.Class())
			assert.Equal(t, tt.retryable, tt.err.Retryable())
		})
	}
}

func TestErrorMessage(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := NewPermanentError("model not found", 404, nil)
		assert.Equal(t, "model not found", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := NewTransientError("upstream unavailable", 503, cause)
		assert.Equal(t, "upstream unavailable: connection reset", err.Error())
	})
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewTransientError("wrapped", 500, cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(NewTransientError("overloaded", 529, nil)))
	assert.False(t, IsTransient(NewPermanentError("forbidden", 403, nil)))
	assert.False(t, IsTransient(errors.New("plain")))
	assert.False(t, IsTransient(nil))
}

func TestIsTransient_WrappedError(t *testing.T) {
	inner := NewTransientError("rate limited", 429, nil)
	wrapped := fmt.Errorf("calling model: %w", inner)

	assert.True(t, IsTransient(wrapped))
	assert.Equal(t, 429, StatusCodeOf(wrapped))
}

func TestIsPermanent(t *testing.T) {
	assert.True(t, IsPermanent(NewPermanentError("forbidden", 403, nil)))
	assert.False(t, IsPermanent(NewTransientError("overloaded", 529, nil)))
	assert.False(t, IsPermanent(errors.New("plain")))
}

func TestStatusCodeOf(t *testing.T) {
	assert.Equal(t, 429, StatusCodeOf(NewTransientError("rate limited", 429, nil)))
	assert.Equal(t, 0, StatusCodeOf(errors.New("plain")))
	assert.Equal(t, 0, StatusCodeOf(nil))
}

func TestRetryAfterOf(t *testing.T) {
	err := NewTransientErrorWithRetry("rate limited", 429, 30*time.Second, nil)
	assert.Equal(t, 30*time.Second, RetryAfterOf(err))

	wrapped := fmt.Errorf("calling model: %w", err)
	assert.Equal(t, 30*time.Second, RetryAfterOf(wrapped))

	assert.Equal(t, time.Duration(0), RetryAfterOf(errors.New("plain")))
}
