package venueclient

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// BreakerConfig configures a gobreaker.CircuitBreaker per spec.md §4.A: K
// consecutive failures opens the breaker, a cooldown elapses, then a single
// probe call is permitted.
type BreakerConfig struct {
	Name                string
	ConsecutiveFailures uint32
	Cooldown            time.Duration
}

// DefaultBreakerConfig matches the spec's stated defaults: 10 consecutive
// failures, 60s cooldown.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{Name: name, ConsecutiveFailures: 10, Cooldown: 60 * time.Second}
}

// Breaker wraps one gobreaker.CircuitBreaker per (venue, operation) pair.
type Breaker struct {
	cb   *gobreaker.CircuitBreaker
	name string

	mu     sync.Mutex
	onOpen func()
}

// NewBreaker builds a breaker that trips after cfg.ConsecutiveFailures and
// allows a single half-open probe after cfg.Cooldown.
func NewBreaker(cfg BreakerConfig) *Breaker {
	b := &Breaker{name: cfg.Name}
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("venue circuit breaker state change")
			if to == gobreaker.StateOpen {
				b.mu.Lock()
				onOpen := b.onOpen
				b.mu.Unlock()
				if onOpen != nil {
					onOpen()
				}
			}
		},
	}
	b.cb = gobreaker.NewCircuitBreaker(settings)
	return b
}

// SetOnOpen registers a callback invoked every time this breaker trips to
// the open state, used to feed a breaker-trips metric (spec.md §4.C names
// "breaker trips" among the metrics the core must collect). Metrics
// reporting is deliberately not wired in at construction time, since a
// Breaker can be built and used before a metrics.Registry exists (e.g. in
// unit tests).
func (b *Breaker) SetOnOpen(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onOpen = fn
}

// Execute runs fn through the breaker. When the breaker is open, fn is not
// called and ErrCircuitOpen is classified as KindCircuitOpen.
func (b *Breaker) Execute(venue, op string, fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return classify(venue, op, KindCircuitOpen, ErrCircuitOpen)
	}
	return err
}

// State reports the breaker's current state string, for status reporting.
func (b *Breaker) State() string {
	return b.cb.State().String()
}

// contextDeadline is a small helper used by venue operations to bound a
// single call per spec.md §5's per-operation deadlines.
func contextDeadline(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d)
}
