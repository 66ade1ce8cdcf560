package fault

import (
	"context"
	"math/rand"
	"time"
)

// RetryConfig controls the backoff loop in WithRetry.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration

	// MaxBackoff caps the growing delay.
	MaxBackoff time.Duration

	// BackoffFactor multiplies the delay after each failed attempt.
	BackoffFactor float64

	// Jitter is a +/- fraction of randomness applied to each delay.
	Jitter float64

	// RetryableFunc overrides the default transience check.
	RetryableFunc func(error) bool
}

// DefaultRetry is a sensible production configuration.
var DefaultRetry = RetryConfig{
	MaxAttempts:    3,
	InitialBackoff: time.Second,
	MaxBackoff:     30 * time.Second,
	BackoffFactor:  2.0,
	Jitter:         0.1,
}

// NoRetry disables retries.
var NoRetry = RetryConfig{MaxAttempts: 1}

// WithRetry runs fn until it succeeds, exhausts the attempt budget, fails
// non-retryably, or the context ends. The last error is returned wrapped in
// a *Categorized carrying the attempt count.
func WithRetry[T any](ctx context.Context, cfg RetryConfig, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	isRetryable := cfg.RetryableFunc
	if isRetryable == nil {
		isRetryable = IsRetryable
	}

	backoff := cfg.InitialBackoff
	var lastErr error

	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, &Categorized{Err: err, Category: Permanent, Attempts: attempt - 1, Context: "context ended"}
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !isRetryable(err) {
			return zero, &Categorized{Err: err, Category: Categorize(err), Attempts: attempt}
		}

		if attempt < cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return zero, &Categorized{Err: ctx.Err(), Category: Permanent, Attempts: attempt, Context: "context ended during backoff"}
			case <-time.After(jittered(backoff, cfg.Jitter)):
			}

			backoff = time.Duration(float64(backoff) * cfg.BackoffFactor)
			if backoff > cfg.MaxBackoff {
				backoff = cfg.MaxBackoff
			}
		}
	}

	return zero, &Categorized{Err: lastErr, Category: Transient, Attempts: cfg.MaxAttempts, Context: "retry budget exhausted"}
}

func jittered(base time.Duration, jitter float64) time.Duration {
	if jitter <= 0 || base <= 0 {
		return base
	}
	delta := float64(base) * jitter * (rand.Float64()*2 - 1)
	return time.Duration(float64(base) + delta)
}
