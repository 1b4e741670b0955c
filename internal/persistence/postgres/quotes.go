package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/denniswon/pm-endgame-sweep/internal/domain"
	"github.com/denniswon/pm-endgame-sweep/internal/persistence"
)

// UpsertQuotesLatest writes one row per market, dropping any incoming row
// whose as_of is not strictly newer than the stored row — enforced here at
// the gateway via the WHERE clause, not by the caller (spec.md §4.B, §5).
func (g *Gateway) UpsertQuotesLatest(ctx context.Context, batch []domain.QuoteSnapshot) error {
	if len(batch) == 0 {
		return nil
	}
	if len(batch) > persistence.MaxBatchSize {
		return fmt.Errorf("postgres: upsert_quotes_latest: batch of %d exceeds cap %d", len(batch), persistence.MaxBatchSize)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: upsert_quotes_latest: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO quotes_latest (venue, market_id, as_of, yes_bid, yes_ask, no_bid, no_ask, source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (venue, market_id) DO UPDATE SET
			as_of = EXCLUDED.as_of,
			yes_bid = EXCLUDED.yes_bid,
			yes_ask = EXCLUDED.yes_ask,
			no_bid = EXCLUDED.no_bid,
			no_ask = EXCLUDED.no_ask,
			source = EXCLUDED.source
		WHERE quotes_latest.as_of < EXCLUDED.as_of`)
	if err != nil {
		return fmt.Errorf("postgres: upsert_quotes_latest: prepare: %w", err)
	}
	defer stmt.Close()

	for _, q := range batch {
		if !q.Valid() {
			continue
		}
		if _, err := stmt.ExecContext(ctx, q.Venue, q.MarketID, q.AsOf, q.YesBid, q.YesAsk, q.NoBid, q.NoAsk, q.Source); err != nil {
			return fmt.Errorf("postgres: upsert_quotes_latest: exec: %w", err)
		}
	}

	return tx.Commit()
}

// InsertQuoteSampleIfAbsent is idempotent on (market_id, bucket_start),
// per spec.md §4.B and testable property #7.
func (g *Gateway) InsertQuoteSampleIfAbsent(ctx context.Context, sample domain.QuoteSample) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	_, err := g.db.ExecContext(ctx, `
		INSERT INTO quotes_5m (venue, market_id, bucket_start, yes_bid, yes_ask, no_bid, no_ask)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (venue, market_id, bucket_start) DO NOTHING`,
		sample.Venue, sample.MarketID, sample.BucketStart, sample.YesBid, sample.YesAsk, sample.NoBid, sample.NoAsk)
	if err != nil {
		return fmt.Errorf("postgres: insert_quote_sample_if_absent: %w", err)
	}
	return nil
}

// PruneQuoteSamples deletes samples whose bucket_start predates olderThan,
// per spec.md §4.B, §8 (retention), and the daily retention task in §4.C.
func (g *Gateway) PruneQuoteSamples(ctx context.Context, olderThan time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	res, err := g.db.ExecContext(ctx, `DELETE FROM quotes_5m WHERE bucket_start < $1`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("postgres: prune_quote_samples: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("postgres: prune_quote_samples: rows affected: %w", err)
	}
	return n, nil
}
