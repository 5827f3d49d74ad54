package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// BackoffFunc returns the delay to wait before retry number attempt, where
// the first retry is attempt 1.
type BackoffFunc func(attempt int) time.Duration

// RetryConfig controls how many times a failing call is repeated and how long
// to wait between attempts.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt. Zero means
	// the call is made exactly once.
	MaxRetries int

	// Backoff computes the wait before each retry. If nil,
	// DefaultBackoff is used.
	Backoff BackoffFunc

	// ShouldRetry optionally overrides the default transient-error check.
	// If nil, IsTransient is used.
	ShouldRetry func(err error) bool

	// OnRetry is called before each retry sleep with the retry number and
	// the error that caused it.
	OnRetry func(attempt int, err error)
}

// DefaultRetryConfig returns two retries with DefaultBackoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		Backoff:    DefaultBackoff(),
	}
}

// DefaultBackoff is capped exponential backoff starting at 500ms, doubling up
// to 10s, with ±25% jitter.
func DefaultBackoff() BackoffFunc {
	return ExponentialBackoff(500*time.Millisecond, 10*time.Second, 2.0, 0.25)
}

// ExponentialBackoff waits initial * multiplier^(attempt-1), capped at max,
// then adds ±jitter (a fraction of the delay) of random noise.
func ExponentialBackoff(initial, maxDelay time.Duration, multiplier, jitter float64) BackoffFunc {
	if multiplier <= 0 {
		multiplier = 2.0
	}
	if jitter < 0 {
		jitter = 0
	}
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		delay := float64(initial) * math.Pow(multiplier, float64(attempt-1))
		if maxDelay > 0 && delay > float64(maxDelay) {
			delay = float64(maxDelay)
		}
		if jitter > 0 {
			span := delay * jitter
			delay += (rand.Float64()*2 - 1) * span
		}
		if delay < 0 {
			delay = 0
		}
		return time.Duration(delay)
	}
}

// FixedBackoff waits d before every retry.
func FixedBackoff(d time.Duration) BackoffFunc {
	return func(int) time.Duration { return d }
}

// Do executes fn, retrying transient failures according to cfg. Context
// cancellation stops retries immediately.
func Do(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DoVal is like Do but returns the value produced by the successful call.
func DoVal[T any](ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) (T, error)) (T, error) {
	cfg = applyDefaults(cfg)

	var zero T
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		if ctx.Err() != nil || !cfg.ShouldRetry(err) || attempt == cfg.MaxRetries {
			return zero, lastErr
		}

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt+1, err)
		}

		timer := time.NewTimer(cfg.Backoff(attempt + 1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, lastErr
		case <-timer.C:
		}
	}
	return zero, lastErr
}

func applyDefaults(cfg RetryConfig) RetryConfig {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.Backoff == nil {
		cfg.Backoff = DefaultBackoff()
	}
	if cfg.ShouldRetry == nil {
		cfg.ShouldRetry = IsTransient
	}
	return cfg
}

// RetryLogger returns an OnRetry callback that logs each retry.
func RetryLogger(backend string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("resilience: retrying backend call",
			zap.String("backend", backend),
			zap.Int("retry", attempt),
			zap.Error(err),
		)
	}
}
