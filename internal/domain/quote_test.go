package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestQuoteSnapshot_Valid(t *testing.T) {
	cases := []struct {
		name string
		q    QuoteSnapshot
		want bool
	}{
		{"both legs within bounds", QuoteSnapshot{YesBid: f(0.90), YesAsk: f(0.95)}, true},
		{"bid above ask", QuoteSnapshot{YesBid: f(0.96), YesAsk: f(0.95)}, false},
		{"ask above 1", QuoteSnapshot{YesBid: f(0.5), YesAsk: f(1.2)}, false},
		{"bid below 0", QuoteSnapshot{NoBid: f(-0.1), NoAsk: f(0.1)}, false},
		{"missing legs are fine", QuoteSnapshot{}, true},
		{"one side valid one side missing", QuoteSnapshot{YesBid: f(0.1), YesAsk: f(0.2)}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.q.Valid())
		})
	}
}

func TestQuoteSnapshot_SpreadAndMid(t *testing.T) {
	q := QuoteSnapshot{YesBid: f(0.90), YesAsk: f(0.96)}
	assert.InDelta(t, 0.06, *q.YesSpread(), 1e-9)
	assert.InDelta(t, 0.93, *q.YesMid(), 1e-9)
	assert.Nil(t, q.NoSpread())
	assert.Nil(t, q.NoMid())
}

func TestBucketStart_TruncatesToFiveMinutes(t *testing.T) {
	t1 := time.Date(2026, 7, 31, 10, 12, 37, 0, time.UTC)
	want := time.Date(2026, 7, 31, 10, 10, 0, 0, time.UTC)
	assert.Equal(t, want, BucketStart(t1))
}
