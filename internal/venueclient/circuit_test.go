package venueclient

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	cfg := BreakerConfig{Name: "test.quotes", ConsecutiveFailures: 3, Cooldown: 50 * time.Millisecond}
	b := NewBreaker(cfg)

	failing := func() error { return errors.New("boom") }

	for i := 0; i < 3; i++ {
		err := b.Execute("kalshi", "quotes", failing)
		require.Error(t, err)
	}

	err := b.Execute("kalshi", "quotes", func() error { return nil })
	require.Error(t, err)
	var venueErr *VenueError
	require.ErrorAs(t, err, &venueErr)
	assert.Equal(t, KindCircuitOpen, venueErr.Kind)
}

func TestBreaker_SetOnOpen_FiresWhenBreakerTrips(t *testing.T) {
	cfg := BreakerConfig{Name: "test.discover", ConsecutiveFailures: 2, Cooldown: 50 * time.Millisecond}
	b := NewBreaker(cfg)

	trips := 0
	b.SetOnOpen(func() { trips++ })

	failing := func() error { return errors.New("boom") }
	for i := 0; i < 2; i++ {
		_ = b.Execute("kalshi", "discover", failing)
	}

	assert.Equal(t, 1, trips)
}

func TestBreaker_ClosesAfterCooldownOnSuccess(t *testing.T) {
	cfg := BreakerConfig{Name: "test.rule", ConsecutiveFailures: 2, Cooldown: 20 * time.Millisecond}
	b := NewBreaker(cfg)

	failing := func() error { return errors.New("boom") }
	for i := 0; i < 2; i++ {
		_ = b.Execute("kalshi", "rule", failing)
	}
	require.Equal(t, "open", b.State())

	time.Sleep(30 * time.Millisecond)

	err := b.Execute("kalshi", "rule", func() error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "closed", b.State())
}
