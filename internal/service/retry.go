package service

import (
	"context"
	"time"
)

// RetryPolicy bounds repeated attempts at a single pipeline stage. The
// zero value means one attempt, no delay.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// Do runs fn until it succeeds or the attempt budget is spent, returning
// the last error. The 0-based attempt number is passed to fn so callers
// can degrade their input on retries (the planning stage switches to a
// simplified prompt on attempt 1). Context cancellation stops the loop
// between attempts.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context, attempt int) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		if attempt > 0 && p.Backoff > 0 {
			select {
			case <-time.After(p.Backoff):
			case <-ctx.Done():
				return lastErr
			}
		}

		if err := fn(ctx, attempt); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
