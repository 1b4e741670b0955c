package venueclient

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy implements the backoff schedule from spec.md §4.A: exponential
// with a base and cap, ±jitter, bounded attempt count.
type RetryPolicy struct {
	Base        time.Duration
	Cap         time.Duration
	JitterPct   float64
	MaxAttempts int
}

// DefaultRetryPolicy matches the spec's stated defaults: base 250ms, cap
// 30s, ±25% jitter, 5 attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Base:        250 * time.Millisecond,
		Cap:         30 * time.Second,
		JitterPct:   0.25,
		MaxAttempts: 5,
	}
}

// delay returns the backoff duration before attempt n (1-indexed).
func (p RetryPolicy) delay(n int) time.Duration {
	exp := p.Base << uint(n-1)
	if exp > p.Cap || (exp <= 0 && p.Base > 0) {
		exp = p.Cap
	}
	jitter := float64(exp) * p.JitterPct
	offset := (rand.Float64()*2 - 1) * jitter
	d := time.Duration(float64(exp) + offset)
	if d < 0 {
		d = 0
	}
	return d
}

// Do runs fn, retrying on transient *VenueError classifications up to
// MaxAttempts, checking ctx cancellation between attempts rather than
// during one (spec.md §5: "Retry loops check cancellation between
// attempts; they do not retry after cancellation").
func Do(ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		venueErr, ok := lastErr.(*VenueError)
		if !ok || !venueErr.Retryable() {
			return lastErr
		}
		if attempt == policy.MaxAttempts {
			break
		}

		timer := time.NewTimer(policy.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return lastErr
}
