package venueclient

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiter provides per-venue rate limiting using a token bucket.
type RateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

// NewRateLimiter creates an empty per-venue rate limiter registry.
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{limiters: make(map[string]*rate.Limiter)}
}

func (l *RateLimiter) getLimiter(venue string, rps float64, burst int) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[venue]
	l.mu.RUnlock()
	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, exists := l.limiters[venue]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(rate.Limit(rps), burst)
	l.limiters[venue] = limiter
	return limiter
}

// Wait blocks until a request for venue is allowed or ctx is cancelled.
func (l *RateLimiter) Wait(ctx context.Context, venue string, rps float64, burst int) error {
	return l.getLimiter(venue, rps, burst).Wait(ctx)
}
