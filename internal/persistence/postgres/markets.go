package postgres

import (
	"context"
	"fmt"

	"github.com/denniswon/pm-endgame-sweep/internal/domain"
	"github.com/denniswon/pm-endgame-sweep/internal/persistence"
)

// UpsertMarkets overwrites mutable fields and refreshes updated_at on
// primary-key collision, per spec.md §4.B.
func (g *Gateway) UpsertMarkets(ctx context.Context, batch []domain.Market) error {
	if len(batch) == 0 {
		return nil
	}
	if len(batch) > persistence.MaxBatchSize {
		return fmt.Errorf("postgres: upsert_markets: batch of %d exceeds cap %d", len(batch), persistence.MaxBatchSize)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: upsert_markets: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO markets (venue, market_id, title, category, status, open_time, close_time, resolved_time, canonical_url, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (venue, market_id) DO UPDATE SET
			title = EXCLUDED.title,
			category = EXCLUDED.category,
			status = EXCLUDED.status,
			close_time = EXCLUDED.close_time,
			resolved_time = EXCLUDED.resolved_time,
			canonical_url = EXCLUDED.canonical_url,
			updated_at = now()`)
	if err != nil {
		return fmt.Errorf("postgres: upsert_markets: prepare: %w", err)
	}
	defer stmt.Close()

	for _, m := range batch {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("postgres: upsert_markets: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, m.Venue, m.MarketID, m.Title, m.Category, m.Status,
			m.OpenTime, m.CloseTime, m.ResolvedTime, m.CanonicalURL); err != nil {
			return fmt.Errorf("postgres: upsert_markets: exec: %w", err)
		}
	}

	return tx.Commit()
}

// UpsertOutcomes overwrites mutable fields and refreshes updated_at on
// primary-key collision, per spec.md §4.B.
func (g *Gateway) UpsertOutcomes(ctx context.Context, batch []domain.Outcome) error {
	if len(batch) == 0 {
		return nil
	}
	if len(batch) > persistence.MaxBatchSize {
		return fmt.Errorf("postgres: upsert_outcomes: batch of %d exceeds cap %d", len(batch), persistence.MaxBatchSize)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: upsert_outcomes: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO market_outcomes (venue, market_id, side, token_id, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (venue, market_id, side) DO UPDATE SET
			token_id = EXCLUDED.token_id,
			updated_at = now()`)
	if err != nil {
		return fmt.Errorf("postgres: upsert_outcomes: prepare: %w", err)
	}
	defer stmt.Close()

	for _, o := range batch {
		if _, err := stmt.ExecContext(ctx, o.Venue, o.MarketID, o.Side, o.TokenID); err != nil {
			return fmt.Errorf("postgres: upsert_outcomes: exec: %w", err)
		}
	}

	return tx.Commit()
}
