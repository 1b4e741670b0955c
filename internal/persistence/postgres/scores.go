package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/denniswon/pm-endgame-sweep/internal/domain"
	"github.com/denniswon/pm-endgame-sweep/internal/persistence"
)

// UpsertScoresAndRecommendations writes both batches in one transaction, so
// a reader never observes a score without its matching recommendation (or
// vice versa) for the same market, per spec.md §5.
func (g *Gateway) UpsertScoresAndRecommendations(ctx context.Context, scores []domain.ScoreSnapshot, recs []domain.RecommendationSnapshot) error {
	if len(scores) == 0 && len(recs) == 0 {
		return nil
	}
	if len(scores) > persistence.MaxBatchSize {
		return fmt.Errorf("postgres: upsert_scores_and_recommendations: score batch of %d exceeds cap %d", len(scores), persistence.MaxBatchSize)
	}
	if len(recs) > persistence.MaxBatchSize {
		return fmt.Errorf("postgres: upsert_scores_and_recommendations: recommendation batch of %d exceeds cap %d", len(recs), persistence.MaxBatchSize)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: upsert_scores_and_recommendations: begin: %w", err)
	}
	defer tx.Rollback()

	if err := execScoreUpserts(ctx, tx, scores); err != nil {
		return err
	}
	if err := execRecommendationUpserts(ctx, tx, recs); err != nil {
		return err
	}

	return tx.Commit()
}

func execScoreUpserts(ctx context.Context, tx *sqlx.Tx, batch []domain.ScoreSnapshot) error {
	if len(batch) == 0 {
		return nil
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO scores_latest (venue, market_id, as_of, t_remaining_sec, gross_yield, fee_bps, net_yield,
			yield_velocity, liquidity_score, staleness_sec, staleness_penalty, definition_risk_score, overall_score, breakdown)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (venue, market_id) DO UPDATE SET
			as_of = EXCLUDED.as_of,
			t_remaining_sec = EXCLUDED.t_remaining_sec,
			gross_yield = EXCLUDED.gross_yield,
			fee_bps = EXCLUDED.fee_bps,
			net_yield = EXCLUDED.net_yield,
			yield_velocity = EXCLUDED.yield_velocity,
			liquidity_score = EXCLUDED.liquidity_score,
			staleness_sec = EXCLUDED.staleness_sec,
			staleness_penalty = EXCLUDED.staleness_penalty,
			definition_risk_score = EXCLUDED.definition_risk_score,
			overall_score = EXCLUDED.overall_score,
			breakdown = EXCLUDED.breakdown`)
	if err != nil {
		return fmt.Errorf("postgres: upsert_scores_and_recommendations: prepare scores: %w", err)
	}
	defer stmt.Close()

	for _, s := range batch {
		breakdownJSON, err := json.Marshal(s.Breakdown)
		if err != nil {
			return fmt.Errorf("postgres: upsert_scores_and_recommendations: marshal breakdown: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, s.Venue, s.MarketID, s.AsOf, s.TRemainingSec, s.GrossYield, s.FeeBps,
			s.NetYield, s.YieldVelocity, s.LiquidityScore, s.StalenessSec, s.StalenessPenalty,
			s.DefinitionRiskScore, s.OverallScore, breakdownJSON); err != nil {
			return fmt.Errorf("postgres: upsert_scores_and_recommendations: exec scores: %w", err)
		}
	}
	return nil
}

func execRecommendationUpserts(ctx context.Context, tx *sqlx.Tx, batch []domain.RecommendationSnapshot) error {
	if len(batch) == 0 {
		return nil
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO recs_latest (venue, market_id, as_of, recommended_side, entry_price, expected_payout,
			max_position_pct, risk_score, risk_flags, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (venue, market_id) DO UPDATE SET
			as_of = EXCLUDED.as_of,
			recommended_side = EXCLUDED.recommended_side,
			entry_price = EXCLUDED.entry_price,
			expected_payout = EXCLUDED.expected_payout,
			max_position_pct = EXCLUDED.max_position_pct,
			risk_score = EXCLUDED.risk_score,
			risk_flags = EXCLUDED.risk_flags,
			notes = EXCLUDED.notes`)
	if err != nil {
		return fmt.Errorf("postgres: upsert_scores_and_recommendations: prepare recommendations: %w", err)
	}
	defer stmt.Close()

	for _, r := range batch {
		flagsJSON, err := json.Marshal(r.RiskFlags)
		if err != nil {
			return fmt.Errorf("postgres: upsert_scores_and_recommendations: marshal flags: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, r.Venue, r.MarketID, r.AsOf, r.RecommendedSide, r.EntryPrice,
			r.ExpectedPayout, r.MaxPositionPct, r.RiskScore, flagsJSON, r.Notes); err != nil {
			return fmt.Errorf("postgres: upsert_scores_and_recommendations: exec recommendations: %w", err)
		}
	}
	return nil
}
