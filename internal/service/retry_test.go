package service

import (
	"context"
	"errors"
	"testing"
)

func TestRetryPolicySucceedsFirstAttempt(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 2}

	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context, attempt int) error {
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

func TestRetryPolicyRetriesOnce(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 2}
	errBoom := errors.New("boom")

	var attempts []int
	err := policy.Do(context.Background(), func(ctx context.Context, attempt int) error {
		attempts = append(attempts, attempt)
		if attempt == 0 {
			return errBoom
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(attempts) != 2 || attempts[0] != 0 || attempts[1] != 1 {
		t.Errorf("expected attempts [0 1], got %v", attempts)
	}
}

func TestRetryPolicyExhaustsBudget(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 2}
	errFirst := errors.New("first")
	errLast := errors.New("last")

	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		if attempt == 0 {
			return errFirst
		}
		return errLast
	})
	if !errors.Is(err, errLast) {
		t.Errorf("expected last error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestRetryPolicyZeroValueRunsOnce(t *testing.T) {
	var policy RetryPolicy
	errBoom := errors.New("boom")

	calls := 0
	err := policy.Do(context.Background(), func(ctx context.Context, attempt int) error {
		calls++
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Errorf("expected boom, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestRetryPolicyStopsOnCanceledContext(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3}
	errBoom := errors.New("boom")

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := policy.Do(ctx, func(ctx context.Context, attempt int) error {
		calls++
		cancel()
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Errorf("expected boom, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call after cancellation, got %d", calls)
	}
}
