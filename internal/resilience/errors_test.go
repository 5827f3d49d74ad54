package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/rotisserie/eris"
)

type statusErr struct{ code int }

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", e.code) }
func (e statusErr) HTTPStatus() int { return e.code }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "dial timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"explicit transient", NewTransientError(errors.New("x")), true},
		{"wrapped transient", fmt.Errorf("outer: %w", NewTransientError(errors.New("x"))), true},
		{"net timeout", timeoutErr{}, true},
		{"conn refused", syscall.ECONNREFUSED, true},
		{"conn reset", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("post: %w", context.DeadlineExceeded), true},
		{"canceled", context.Canceled, false},
		{"refused message", errors.New("dial tcp 127.0.0.1:1: connect: connection refused"), true},
		{"no such host", errors.New("lookup api.example: no such host"), true},
		{"http status", statusErr{503}, false},
		{"wrapped http status", fmt.Errorf("perplexity: chat: %w", statusErr{401}), false},
		{"eris sentinel", eris.New("resilience: permanent"), false},
		{"plain", errors.New("bad request"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestStatusCode(t *testing.T) {
	code, ok := StatusCode(fmt.Errorf("wrap: %w", statusErr{429}))
	if !ok || code != 429 {
		t.Errorf("StatusCode = %d, %v; want 429, true", code, ok)
	}

	if _, ok := StatusCode(errors.New("plain")); ok {
		t.Error("expected no status for plain error")
	}
}

func TestTransientError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	te := NewTransientError(inner)
	if !errors.Is(te, inner) {
		t.Error("expected errors.Is to find inner error")
	}
	if te.Error() != "inner" {
		t.Errorf("Error() = %q", te.Error())
	}
}
