// Package retry provides bounded exponential backoff for transient
// model-client errors.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Config holds backoff parameters.
type Config struct {
	// MaxAttempts is the attempt ceiling; the initial call counts as
	// attempt 1.
	MaxAttempts int

	// InitialDelay is the base delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay caps the delay between retries.
	MaxDelay time.Duration

	// Multiplier grows the delay each retry.
	Multiplier float64

	// Jitter randomizes each delay by ±Jitter (0.1 = ±10%) to avoid
	// thundering herds.
	Jitter float64
}

// DefaultConfig returns the default policy: 5 attempts, 1s initial delay
// doubling up to 30s, 10% jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  5,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
	}
}

// Disabled returns a single-attempt policy.
func Disabled() Config {
	return Config{MaxAttempts: 1}
}

// Delay computes the backoff before retry number attempt (0-indexed):
// min(MaxDelay, InitialDelay * Multiplier^attempt), jittered.
func (c Config) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))
	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.Jitter > 0 {
		delay *= 1.0 + (rand.Float64()*2-1)*c.Jitter
	}

	return time.Duration(delay)
}
