package app

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

type retryOptions struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     float64
	// Retryable reports whether err is worth another attempt. Nil retries everything.
	Retryable func(err error) bool
	OnRetry   func(attempt int, wait time.Duration, err error)
}

func withExponentialBackoff(ctx context.Context, opts retryOptions, fn func(attempt int) error) error {
	attempts := opts.MaxRetries + 1
	if attempts <= 0 {
		attempts = 1
	}
	base := opts.BaseDelay
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	maxDelay := opts.MaxDelay
	if maxDelay <= 0 {
		maxDelay = 8 * time.Second
	}
	jitter := min(max(opts.Jitter, 0), 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts || ctx.Err() != nil {
			break
		}
		if opts.Retryable != nil && !opts.Retryable(lastErr) {
			break
		}
		wait := backoffDuration(attempt, base, maxDelay, jitter)
		if isRateLimitError(lastErr) {
			rateLimitWait := time.Duration(attempt*attempt) * time.Second
			if wait < rateLimitWait {
				wait = rateLimitWait
			}
			wait = min(applyJitter(wait, 0.35), 60*time.Second)
		}
		if opts.OnRetry != nil {
			opts.OnRetry(attempt, wait, lastErr)
		}
		if err := sleepContext(ctx, wait); err != nil {
			return lastErr
		}
	}
	return lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func backoffDuration(attempt int, base, maxDelay time.Duration, jitter float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	shift := min(attempt-1, 30)
	delay := base << shift
	if delay > maxDelay || delay < 0 {
		delay = maxDelay
	}
	if jitter == 0 {
		return delay
	}
	return max(applyJitter(delay, jitter), 0)
}

func applyJitter(delay time.Duration, jitter float64) time.Duration {
	if jitter <= 0 {
		return delay
	}
	jitter = min(jitter, 1)
	low := 1 - jitter
	high := 1 + jitter
	factor := low + rand.Float64()*(high-low)
	return time.Duration(float64(delay) * factor)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "429") || strings.Contains(s, "rate limit")
}
