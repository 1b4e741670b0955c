package venueclient

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_RetriesTransientUntilSuccess(t *testing.T) {
	policy := DefaultRetryPolicy()
	policy.Base = 0
	policy.MaxAttempts = 3

	attempts := 0
	err := Do(context.Background(), policy, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return classify("kalshi", "quotes", KindTransient, errors.New("timeout"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestDo_DoesNotRetryPermanentFailure(t *testing.T) {
	policy := DefaultRetryPolicy()
	policy.Base = 0

	attempts := 0
	err := Do(context.Background(), policy, func(ctx context.Context) error {
		attempts++
		return classify("kalshi", "rule", KindPermanent, errors.New("bad request"))
	})

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestDo_GivesUpAfterMaxAttempts(t *testing.T) {
	policy := DefaultRetryPolicy()
	policy.Base = 0
	policy.MaxAttempts = 4

	attempts := 0
	err := Do(context.Background(), policy, func(ctx context.Context) error {
		attempts++
		return classify("kalshi", "discover", KindTransient, errors.New("503"))
	})

	require.Error(t, err)
	assert.Equal(t, 4, attempts)
}

func TestDo_StopsOnCancellationBetweenAttempts(t *testing.T) {
	policy := DefaultRetryPolicy()
	policy.Base = 0
	policy.MaxAttempts = 5

	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	err := Do(ctx, policy, func(ctx context.Context) error {
		attempts++
		if attempts == 1 {
			cancel()
		}
		return classify("kalshi", "quotes", KindTransient, errors.New("timeout"))
	})

	require.Error(t, err)
	assert.LessOrEqual(t, attempts, 2)
}

func TestRetryPolicy_DelayRespectsCap(t *testing.T) {
	policy := RetryPolicy{Base: 250_000_000, Cap: 1_000_000_000, JitterPct: 0.25, MaxAttempts: 10}
	for n := 1; n <= 10; n++ {
		d := policy.delay(n)
		assert.LessOrEqual(t, float64(d), float64(policy.Cap)*1.25)
		assert.GreaterOrEqual(t, d.Nanoseconds(), int64(0))
	}
}
