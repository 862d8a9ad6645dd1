// Package retry implements the bounded exponential backoff used by
// every source adapter: base delay, doubling growth, capped delay,
// capped attempt count. Sleeping is injectable so the policy is
// testable without real time.
package retry

import (
	"context"
	"fmt"
	"time"
)

// Policy bounds a retry loop. Zero values fall back to defaults.
type Policy struct {
	MaxAttempts int           // total attempts including the first (default 3)
	Base        time.Duration // first backoff delay (default 500ms)
	Max         time.Duration // backoff cap (default 30s)

	// Permanent reports errors that must not be retried. Nil means
	// every error is retryable.
	Permanent func(error) bool

	// Sleep waits for d or until ctx is done. Nil uses real time.
	Sleep func(ctx context.Context, d time.Duration) error
}

const (
	defaultAttempts = 3
	defaultBase     = 500 * time.Millisecond
	defaultMax      = 30 * time.Second
)

func (p Policy) attempts() int {
	if p.MaxAttempts <= 0 {
		return defaultAttempts
	}
	return p.MaxAttempts
}

// Delay returns the backoff before attempt i (i starts at 1 for the
// first retry): Base doubled per retry, capped at Max.
func (p Policy) Delay(i int) time.Duration {
	base, max := p.Base, p.Max
	if base <= 0 {
		base = defaultBase
	}
	if max <= 0 {
		max = defaultMax
	}
	d := base
	for n := 1; n < i; n++ {
		d *= 2
		if d >= max {
			return max
		}
	}
	if d > max {
		d = max
	}
	return d
}

func (p Policy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn up to MaxAttempts times. Permanent errors and context
// cancellation end the loop immediately; anything else backs off and
// retries. The last error is returned unwrapped so callers can still
// classify it with errors.Is.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= p.attempts(); attempt++ {
		if attempt > 1 {
			if err := p.sleep(ctx, p.Delay(attempt-1)); err != nil {
				return fmt.Errorf("backoff interrupted: %w", lastErr)
			}
		}
		err := fn()
		if err == nil {
			return nil
		}
		if p.Permanent != nil && p.Permanent(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}
		lastErr = err
	}
	return lastErr
}
