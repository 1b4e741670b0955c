// Package venueclient abstracts a single prediction-market venue behind the
// capability set the Ingestion Orchestrator drives: discovery, quotes, and
// rule text. Implementations wrap retry, rate limiting, and circuit
// breaking around a venue's wire protocol.
package venueclient

import (
	"context"
	"time"
)

// Client is the capability set a venue implementation must provide. All
// operations are normalized into core domain types at this boundary.
type Client interface {
	Name() string

	// Discover pages through the venue's market catalog. cursor is opaque
	// and venue-defined; an empty NextCursor signals the final page.
	Discover(ctx context.Context, cursor string) (Page, error)

	// Quotes fetches a batch of quotes for the given market IDs. The batch
	// size is bounded by the caller to the venue's configured batch limit.
	Quotes(ctx context.Context, marketIDs []string) ([]QuoteResult, error)

	// Rule fetches the resolution rule text for a single market.
	Rule(ctx context.Context, marketID string) (string, error)
}

// Page is one page of discovered markets and outcomes.
type Page struct {
	Markets    []MarketResult
	Outcomes   []OutcomeResult
	NextCursor string
}

// MarketResult is a venue-normalized market, ready for upsert_markets.
type MarketResult struct {
	MarketID     string
	Title        string
	Category     string
	Status       string
	OpenTime     time.Time
	CloseTime    *time.Time
	ResolvedTime *time.Time
	CanonicalURL string
}

// OutcomeResult is a venue-normalized outcome, ready for upsert_outcomes.
type OutcomeResult struct {
	MarketID string
	Side     string
	TokenID  string
}

// QuoteResult is a venue-normalized quote, ready for upsert_quotes_latest.
// Legs are nil when the venue did not quote that side.
type QuoteResult struct {
	MarketID string
	AsOf     time.Time
	YesBid   *float64
	YesAsk   *float64
	NoBid    *float64
	NoAsk    *float64
}
