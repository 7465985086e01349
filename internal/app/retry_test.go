package app

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoffDurationAndJitter(t *testing.T) {
	if d := backoffDuration(2, 100*time.Millisecond, 300*time.Millisecond, 0); d != 200*time.Millisecond {
		t.Fatalf("unexpected delay: %v", d)
	}
	if d := backoffDuration(10, 100*time.Millisecond, 300*time.Millisecond, 0); d != 300*time.Millisecond {
		t.Fatalf("expected capped delay, got %v", d)
	}
	if j := applyJitter(100*time.Millisecond, 0); j != 100*time.Millisecond {
		t.Fatalf("jitter=0 mismatch: %v", j)
	}
	if j := applyJitter(100*time.Millisecond, 2); j < 0 || j > 200*time.Millisecond {
		t.Fatalf("jitter clamp mismatch: %v", j)
	}
	if d := backoffDuration(0, 100*time.Millisecond, 300*time.Millisecond, 0.2); d <= 0 {
		t.Fatalf("attempt clamp mismatch: %v", d)
	}
}

func TestWithExponentialBackoff(t *testing.T) {
	attempts := 0
	err := withExponentialBackoff(context.Background(), retryOptions{}, func(attempt int) error {
		attempts = attempt
		return nil
	})
	if err != nil || attempts != 1 {
		t.Fatalf("unexpected result err=%v attempts=%d", err, attempts)
	}

	attempts = 0
	err = withExponentialBackoff(context.Background(), retryOptions{}, func(attempt int) error {
		attempts = attempt
		return errors.New("x")
	})
	if err == nil || attempts != 1 {
		t.Fatalf("expected immediate failure, err=%v attempts=%d", err, attempts)
	}
}

func TestWithExponentialBackoffOnRetry(t *testing.T) {
	var waits []time.Duration
	attempts := 0
	err := withExponentialBackoff(context.Background(), retryOptions{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
		MaxDelay:   2 * time.Millisecond,
		OnRetry: func(attempt int, wait time.Duration, err error) {
			waits = append(waits, wait)
		},
	}, func(attempt int) error {
		attempts = attempt
		if attempt < 3 {
			return errors.New("temporary")
		}
		return nil
	})
	if err != nil || attempts != 3 {
		t.Fatalf("unexpected result err=%v attempts=%d", err, attempts)
	}
	if len(waits) != 2 || waits[0] != time.Millisecond || waits[1] != 2*time.Millisecond {
		t.Fatalf("unexpected waits: %v", waits)
	}
}

func TestWithExponentialBackoffStopsOnPermanentError(t *testing.T) {
	permanent := errors.New("permanent")
	attempts := 0
	err := withExponentialBackoff(context.Background(), retryOptions{
		MaxRetries: 5,
		BaseDelay:  time.Millisecond,
		Retryable:  func(err error) bool { return !errors.Is(err, permanent) },
	}, func(attempt int) error {
		attempts = attempt
		return permanent
	})
	if !errors.Is(err, permanent) || attempts != 1 {
		t.Fatalf("expected single attempt, err=%v attempts=%d", err, attempts)
	}
}

func TestWithExponentialBackoffHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := withExponentialBackoff(ctx, retryOptions{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}, func(attempt int) error {
		attempts = attempt
		cancel()
		return errors.New("boom")
	})
	if err == nil || attempts != 1 {
		t.Fatalf("expected cancel to stop retries, err=%v attempts=%d", err, attempts)
	}
}

func TestIsRateLimitError(t *testing.T) {
	if !isRateLimitError(errors.New("HTTP 429: slow down")) || !isRateLimitError(errors.New("Rate Limit exceeded")) {
		t.Fatalf("expected rate limit detection")
	}
	if isRateLimitError(nil) || isRateLimitError(errors.New("HTTP 500")) {
		t.Fatalf("unexpected rate limit detection")
	}
}
