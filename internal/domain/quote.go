package domain

import "time"

// QuoteBucketWidth is the alignment granularity for bounded-history samples.
const QuoteBucketWidth = 5 * time.Minute

// QuoteSnapshot is the single latest row per market (spec.md §3).
type QuoteSnapshot struct {
	Venue    string
	MarketID string
	AsOf     time.Time
	YesBid   *float64
	YesAsk   *float64
	NoBid    *float64
	NoAsk    *float64
	Source   string
}

// QuoteSample is one bounded-history row keyed by (MarketID, BucketStart).
type QuoteSample struct {
	Venue       string
	MarketID    string
	BucketStart time.Time
	YesBid      *float64
	YesAsk      *float64
	NoBid       *float64
	NoAsk       *float64
}

// BucketStart aligns t down to the nearest QuoteBucketWidth boundary, UTC.
func BucketStart(t time.Time) time.Time {
	t = t.UTC()
	width := QuoteBucketWidth
	return t.Truncate(width)
}

// sideSpreadMid returns (spread, midpoint) for a bid/ask pair, or (nil, nil)
// if either leg is absent, matching the nullable invariants in spec.md §3.
func sideSpreadMid(bid, ask *float64) (spread, mid *float64) {
	if bid == nil || ask == nil {
		return nil, nil
	}
	s := *ask - *bid
	m := (*bid + *ask) / 2
	return &s, &m
}

// YesSpread returns ask-bid for the YES side, or nil if either leg is missing.
func (q QuoteSnapshot) YesSpread() *float64 {
	s, _ := sideSpreadMid(q.YesBid, q.YesAsk)
	return s
}

// YesMid returns the YES midpoint, or nil if either leg is missing.
func (q QuoteSnapshot) YesMid() *float64 {
	_, m := sideSpreadMid(q.YesBid, q.YesAsk)
	return m
}

// NoSpread returns ask-bid for the NO side, or nil if either leg is missing.
func (q QuoteSnapshot) NoSpread() *float64 {
	s, _ := sideSpreadMid(q.NoBid, q.NoAsk)
	return s
}

// NoMid returns the NO midpoint, or nil if either leg is missing.
func (q QuoteSnapshot) NoMid() *float64 {
	_, m := sideSpreadMid(q.NoBid, q.NoAsk)
	return m
}

// Valid checks the bid<=ask and [0,1] bound invariants from spec.md §3 for
// whichever legs are present.
func (q QuoteSnapshot) Valid() bool {
	legs := [][2]*float64{{q.YesBid, q.YesAsk}, {q.NoBid, q.NoAsk}}
	for _, leg := range legs {
		bid, ask := leg[0], leg[1]
		if bid != nil && (*bid < 0 || *bid > 1) {
			return false
		}
		if ask != nil && (*ask < 0 || *ask > 1) {
			return false
		}
		if bid != nil && ask != nil && *bid > *ask {
			return false
		}
	}
	return true
}
