package resilience

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// Retry runs op with exponential backoff while retryable(err) holds.
// Any other error stops the loop immediately.
func Retry[T any](ctx context.Context, cfg RetryConfig, retryable func(error) bool, notify func(error, time.Duration), op func() (T, error)) (T, error) {
	cfg = cfg.Normalize()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = cfg.InitialInterval
	policy.MaxInterval = cfg.MaxInterval

	opts := []backoff.RetryOption{
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(cfg.MaxTries),
		backoff.WithMaxElapsedTime(cfg.MaxElapsed),
	}
	if notify != nil {
		opts = append(opts, backoff.WithNotify(notify))
	}

	return backoff.Retry(ctx, func() (T, error) {
		out, err := op()
		if err != nil && retryable != nil && !retryable(err) {
			return out, backoff.Permanent(err)
		}
		return out, err
	}, opts...)
}
