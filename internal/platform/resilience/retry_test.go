package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errContended = errors.New("lock contended")

func fastRetry() RetryConfig {
	return RetryConfig{MaxTries: 4, InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, MaxElapsed: time.Second}
}

func TestRetryRecoversFromRetryableError(t *testing.T) {
	t.Parallel()

	calls := 0
	notified := 0
	got, err := Retry(context.Background(), fastRetry(), func(err error) bool {
		return errors.Is(err, errContended)
	}, func(error, time.Duration) { notified++ }, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errContended
		}
		return "merged", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "merged" || calls != 3 || notified != 2 {
		t.Fatalf("unexpected result got=%q calls=%d notified=%d", got, calls, notified)
	}
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	t.Parallel()

	calls := 0
	fatal := errors.New("team not found")
	_, err := Retry(context.Background(), fastRetry(), func(err error) bool {
		return errors.Is(err, errContended)
	}, nil, func() (int, error) {
		calls++
		return 0, fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestRetryGivesUpAfterMaxTries(t *testing.T) {
	t.Parallel()

	calls := 0
	_, err := Retry(context.Background(), fastRetry(), nil, nil, func() (int, error) {
		calls++
		return 0, errContended
	})
	if !errors.Is(err, errContended) {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 4 {
		t.Fatalf("expected 4 attempts, got %d", calls)
	}
}
