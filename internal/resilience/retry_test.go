package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetry(maxRetries int) RetryConfig {
	return RetryConfig{MaxRetries: maxRetries, Backoff: FixedBackoff(time.Millisecond)}
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	err := Do(context.Background(), DefaultRetryConfig(), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_SuccessAfterRetry(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastRetry(2), func(_ context.Context) error {
		calls++
		if calls < 3 {
			return NewTransientError(errors.New("temporary"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDo_ExhaustsRetries(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastRetry(2), func(_ context.Context) error {
		calls++
		return NewTransientError(errors.New("always fails"))
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("expected 1 attempt plus 2 retries, got %d calls", calls)
	}
}

func TestDo_ZeroRetries(t *testing.T) {
	var calls int
	_ = Do(context.Background(), fastRetry(0), func(_ context.Context) error {
		calls++
		return NewTransientError(errors.New("fail"))
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_NonTransientError_NoRetry(t *testing.T) {
	var calls int
	err := Do(context.Background(), fastRetry(3), func(_ context.Context) error {
		calls++
		return errors.New("permanent error: bad request")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call (no retry on permanent error), got %d", calls)
	}
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	err := Do(ctx, RetryConfig{MaxRetries: 5, Backoff: FixedBackoff(time.Hour)}, func(_ context.Context) error {
		calls++
		cancel()
		return NewTransientError(errors.New("fail"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call after cancel, got %d", calls)
	}
}

func TestDo_CancelDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := Do(ctx, RetryConfig{MaxRetries: 3, Backoff: FixedBackoff(time.Hour)}, func(_ context.Context) error {
		return NewTransientError(errors.New("fail"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if time.Since(start) > 5*time.Second {
		t.Error("backoff did not honour context cancellation")
	}
}

func TestDo_OnRetryAndBackoffAttemptNumbers(t *testing.T) {
	var retries, backoffs []int
	cfg := RetryConfig{
		MaxRetries: 2,
		Backoff: func(attempt int) time.Duration {
			backoffs = append(backoffs, attempt)
			return time.Millisecond
		},
		OnRetry: func(attempt int, _ error) { retries = append(retries, attempt) },
	}

	_ = Do(context.Background(), cfg, func(_ context.Context) error {
		return NewTransientError(errors.New("fail"))
	})

	want := []int{1, 2}
	if len(retries) != 2 || retries[0] != want[0] || retries[1] != want[1] {
		t.Errorf("OnRetry attempts = %v, want %v", retries, want)
	}
	if len(backoffs) != 2 || backoffs[0] != want[0] || backoffs[1] != want[1] {
		t.Errorf("Backoff attempts = %v, want %v", backoffs, want)
	}
}

func TestDo_CustomShouldRetry(t *testing.T) {
	var calls int
	cfg := fastRetry(2)
	cfg.ShouldRetry = func(error) bool { return true }

	_ = Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		return errors.New("anything")
	})
	if calls != 3 {
		t.Errorf("expected 3 calls with custom ShouldRetry, got %d", calls)
	}
}

func TestDoVal_ReturnsValue(t *testing.T) {
	var calls int
	got, err := DoVal(context.Background(), fastRetry(2), func(_ context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", NewTransientError(errors.New("once"))
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("got %q, want ok", got)
	}
}

func TestDoVal_ZeroValueOnFailure(t *testing.T) {
	got, err := DoVal(context.Background(), fastRetry(1), func(_ context.Context) (int, error) {
		return 42, NewTransientError(errors.New("fail"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if got != 0 {
		t.Errorf("expected zero value, got %d", got)
	}
}

func TestExponentialBackoff_NoJitter(t *testing.T) {
	b := ExponentialBackoff(100*time.Millisecond, time.Second, 2.0, 0)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{10, time.Second},
		{0, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := b(tt.attempt); got != tt.want {
			t.Errorf("attempt %d: got %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestExponentialBackoff_JitterBounds(t *testing.T) {
	b := ExponentialBackoff(time.Second, 10*time.Second, 2.0, 0.25)

	for i := 0; i < 200; i++ {
		got := b(1)
		if got < 750*time.Millisecond || got > 1250*time.Millisecond {
			t.Fatalf("jittered delay %v outside ±25%% of 1s", got)
		}
	}
}

func TestFixedBackoff(t *testing.T) {
	b := FixedBackoff(300 * time.Millisecond)
	for attempt := 1; attempt <= 4; attempt++ {
		if got := b(attempt); got != 300*time.Millisecond {
			t.Errorf("attempt %d: got %v", attempt, got)
		}
	}
}
