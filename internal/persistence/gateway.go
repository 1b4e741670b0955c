// Package persistence defines the Persistence Gateway: the sole path to
// durable state for the core, per spec.md §4.B. All writes travel through
// typed, bounded-batch operations; all reads are paged or cursor-based —
// no interface here may return an unbounded collection.
package persistence

import (
	"context"
	"time"

	"github.com/denniswon/pm-endgame-sweep/internal/domain"
)

// MaxBatchSize is the hard cap on rows accepted by any single write call.
const MaxBatchSize = 1000

// ScoringFilter selects the markets load_scoring_inputs streams.
type ScoringFilter struct {
	Status      domain.Status
	CloseBefore time.Time
	CloseAfter  time.Time
	Cursor      string
	Limit       int
}

// ScoringInputRow is one (market, latest_quote, latest_rule) triple.
type ScoringInputRow struct {
	Market domain.Market
	Quote  domain.QuoteSnapshot
	Rule   domain.RuleSnapshot
}

// ScoringInputPage is one bounded page of scoring input rows, plus a cursor
// for the next page (empty when exhausted).
type ScoringInputPage struct {
	Rows       []ScoringInputRow
	NextCursor string
}

// Gateway is the sole path to durable state, per spec.md §4.B.
type Gateway interface {
	UpsertMarkets(ctx context.Context, batch []domain.Market) error
	UpsertOutcomes(ctx context.Context, batch []domain.Outcome) error

	// UpsertQuotesLatest writes one row per market, dropping any row whose
	// as_of is not strictly newer than the stored row (monotonic per
	// market, spec.md §4.B and §5).
	UpsertQuotesLatest(ctx context.Context, batch []domain.QuoteSnapshot) error

	// InsertQuoteSampleIfAbsent is idempotent on (market_id, bucket_start).
	InsertQuoteSampleIfAbsent(ctx context.Context, sample domain.QuoteSample) error

	// UpsertRuleLatest replaces the stored row only if rule_hash differs;
	// otherwise it touches updated_at only (spec.md §4.B, scenario S6).
	UpsertRuleLatest(ctx context.Context, rule domain.RuleSnapshot) error

	// UpsertScoresAndRecommendations writes both batches in a single
	// transaction, so that the score and recommendation for a given market
	// are never visible to a reader in a partially-written state (spec.md
	// §5: "Within a scoring tick, Score and Recommendation writes for the
	// same market are applied atomically").
	UpsertScoresAndRecommendations(ctx context.Context, scores []domain.ScoreSnapshot, recs []domain.RecommendationSnapshot) error

	// LoadScoringInputs pages eligible markets plus their latest quote and
	// rule snapshots. filter.Limit bounds the page size.
	LoadScoringInputs(ctx context.Context, filter ScoringFilter) (ScoringInputPage, error)

	// PruneQuoteSamples deletes samples whose bucket_start predates
	// olderThan, returning the number of rows removed.
	PruneQuoteSamples(ctx context.Context, olderThan time.Time) (int64, error)
}
