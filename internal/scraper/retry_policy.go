package scraper

import (
	"context"
	"errors"
	"time"
)

// PauseFunc blocks for the given delay or until the context finishes. It is
// injectable so tests can observe backoff delays without sleeping.
type PauseFunc func(ctx context.Context, delay time.Duration) error

// TimerPause is the production PauseFunc, driven by a timer.
func TimerPause(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryPolicy wraps an operation with bounded retries and exponential backoff.
// The delay before retry n is BaseDelay * 2^(n-1), capped at MaxDelay. Delays
// carry no jitter; they are exactly the doubling sequence.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Pause       PauseFunc
}

// DefaultRetryPolicy mirrors the navigation defaults: three attempts,
// one second base delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
	}
}

// Do runs fn until it succeeds, the attempts are exhausted, or the context
// finishes. The last error is returned unchanged so callers can branch on
// sentinels such as ErrNavigationTimeout.
func (p RetryPolicy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	pause := p.Pause
	if pause == nil {
		pause = TimerPause
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			if err := pause(ctx, p.Backoff(attempt-1)); err != nil {
				return lastErr
			}
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if !p.shouldRetry(ctx, lastErr) {
			return lastErr
		}
	}
	return lastErr
}

// Backoff returns the delay applied after failed attempt number `attempt`
// (zero-based): BaseDelay, 2*BaseDelay, 4*BaseDelay, ...
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	delay := p.BaseDelay << uint(attempt)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

func (p RetryPolicy) shouldRetry(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}
