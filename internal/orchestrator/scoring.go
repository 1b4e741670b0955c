package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/denniswon/pm-endgame-sweep/internal/config"
	"github.com/denniswon/pm-endgame-sweep/internal/domain"
	"github.com/denniswon/pm-endgame-sweep/internal/persistence"
	"github.com/denniswon/pm-endgame-sweep/internal/scoring"
)

// runScoringTick pages eligible markets, computes scores and
// recommendations in bounded chunks, and writes them back through the
// gateway. A market whose feature computation yields a non-finite value is
// dropped with a warning rather than written (spec.md §4.E).
func (o *Orchestrator) runScoringTick(ctx context.Context) {
	now := time.Now().UTC()
	horizon := now.Add(time.Duration(o.cfg.Scoring.MaxTRemainingSec) * time.Second)
	cursor := ""

	for {
		page, err := o.gateway.LoadScoringInputs(ctx, persistence.ScoringFilter{
			Status:      domain.StatusActive,
			CloseAfter:  now,
			CloseBefore: horizon,
			Cursor:      cursor,
			Limit:       o.cfg.Scoring.MaxScoringChunk,
		})
		if err != nil {
			log.Warn().Err(err).Msg("scoring input page load failed, tick aborted")
			return
		}
		if len(page.Rows) == 0 {
			return
		}

		o.scoreChunk(ctx, page.Rows, now)

		if page.NextCursor == "" {
			return
		}
		cursor = page.NextCursor
	}
}

func (o *Orchestrator) scoreChunk(ctx context.Context, rows []persistence.ScoringInputRow, now time.Time) {
	scores := make([]domain.ScoreSnapshot, 0, len(rows))
	recs := make([]domain.RecommendationSnapshot, 0, len(rows))

	for _, row := range rows {
		in := scoring.Input{Market: row.Market, Quote: row.Quote, Rule: row.Rule}
		if !scoring.Eligible(in, o.cfg.Scoring, now) {
			if o.metrics != nil {
				o.metrics.EligibilityMisses.WithLabelValues(eligibilityGate(in, o.cfg.Scoring, now)).Inc()
			}
			continue
		}

		score, rec, ok := scoring.Compute(in, o.cfg.Scoring, now)
		if !ok {
			log.Warn().Str("venue", row.Market.Venue).Str("market_id", row.Market.MarketID).
				Msg("scoring produced a non-finite value, market dropped this tick")
			continue
		}
		scores = append(scores, score)
		recs = append(recs, rec)
	}

	if len(scores) == 0 {
		return
	}

	if err := o.gateway.UpsertScoresAndRecommendations(ctx, scores, recs); err != nil {
		log.Warn().Err(err).Msg("score/recommendation chunk write failed")
		return
	}
	if o.metrics != nil {
		o.metrics.ScoresWritten.Add(float64(len(scores)))
	}
}

// eligibilityGate reports which gate failed, for metrics attribution. It
// re-checks each condition rather than threading a reason out of Eligible,
// keeping that function a simple boolean predicate.
func eligibilityGate(in scoring.Input, cfg config.ScoringConfig, now time.Time) string {
	m := in.Market
	switch {
	case m.Status != domain.StatusActive:
		return "status"
	case m.CloseTime == nil || !m.CloseTime.After(now):
		return "close_time"
	case m.CloseTime.Sub(now).Seconds() < cfg.MinTRemainingSec || m.CloseTime.Sub(now).Seconds() > cfg.MaxTRemainingSec:
		return "t_remaining"
	case in.Quote.MarketID == "":
		return "no_quote"
	case now.Sub(in.Quote.AsOf).Seconds() > cfg.QuoteStaleMaxSec:
		return "stale_quote"
	case in.Rule.MarketID == "":
		return "no_rule"
	default:
		return "unknown"
	}
}
