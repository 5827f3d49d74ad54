package resilience

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Backoff strategy names accepted by BackoffFromConfig.
const (
	BackoffExponential = "exponential"
	BackoffFixed       = "fixed"
)

// BackoffFromConfig builds a BackoffFunc from config values. The fixed
// strategy waits initialMs before every retry.
func BackoffFromConfig(strategy string, initialMs, maxMs int, multiplier, jitter float64) (BackoffFunc, error) {
	initial := 500 * time.Millisecond
	if initialMs > 0 {
		initial = time.Duration(initialMs) * time.Millisecond
	}
	maxDelay := 10 * time.Second
	if maxMs > 0 {
		maxDelay = time.Duration(maxMs) * time.Millisecond
	}

	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", BackoffExponential:
		return ExponentialBackoff(initial, maxDelay, multiplier, jitter), nil
	case BackoffFixed:
		return FixedBackoff(initial), nil
	default:
		return nil, eris.Errorf("resilience: unknown backoff strategy %q", strategy)
	}
}

// FromCircuitConfig converts config values to a CircuitBreakerConfig.
func FromCircuitConfig(failureThreshold, resetTimeoutSecs int) CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig()
	if failureThreshold > 0 {
		cfg.FailureThreshold = failureThreshold
	}
	if resetTimeoutSecs > 0 {
		cfg.ResetTimeout = time.Duration(resetTimeoutSecs) * time.Second
	}
	return cfg
}
