package resilience

import (
	"errors"
	"testing"
	"time"
)

var errStoreDown = errors.New("connection refused")

func TestCircuitBreakerOpensOnCountedFailures(t *testing.T) {
	b := NewCircuitBreaker(BreakerConfig{FailureThreshold: 2, OpenTimeout: 5 * time.Second}, func(err error) bool {
		return errors.Is(err, errStoreDown)
	})

	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	failing := func() error { return errStoreDown }
	rejected := func() error { return errors.New("birth year mismatch") }

	_ = b.Execute(rejected)
	_ = b.Execute(rejected)
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("uncounted errors must not trip the breaker, got %s", state)
	}

	_ = b.Execute(failing)
	_ = b.Execute(failing)
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}
	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	now = now.Add(6 * time.Second)
	if state := b.State(); state != CircuitStateHalfOpen {
		t.Fatalf("expected half-open state, got %s", state)
	}
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("expected probe to pass, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful probe, got %s", state)
	}
}

func TestCircuitBreakerFailedProbeReopens(t *testing.T) {
	b := NewCircuitBreaker(BreakerConfig{FailureThreshold: 1, OpenTimeout: time.Second}, nil)
	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	_ = b.Execute(func() error { return errStoreDown })
	now = now.Add(2 * time.Second)
	_ = b.Execute(func() error { return errStoreDown })

	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected reopened breaker, got %s", state)
	}
}
