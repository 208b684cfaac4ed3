package retry

import (
	"context"
	"time"

	"github.com/droverhq/drover"
)

// Do runs fn with the configured retry policy. Only errors classified
// transient (see drover.IsTransient) are retried; anything else is
// returned immediately. When the upstream suggests a Retry-After delay it
// takes precedence over the computed backoff. Context cancellation is
// honored during waits.
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !drover.IsTransient(err) {
			return zero, err
		}

		if attempt == attempts-1 {
			break
		}

		delay := cfg.Delay(attempt)
		if suggested := drover.RetryAfterOf(err); suggested > 0 {
			delay = suggested
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}
