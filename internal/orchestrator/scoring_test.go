package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/denniswon/pm-endgame-sweep/internal/config"
	"github.com/denniswon/pm-endgame-sweep/internal/domain"
	"github.com/denniswon/pm-endgame-sweep/internal/persistence"
	"github.com/denniswon/pm-endgame-sweep/internal/scoring"
)

func TestRunScoringTick_WritesScoreAndRecommendationForEligibleMarket(t *testing.T) {
	gw := newFakeGateway()
	now := time.Now().UTC()
	closeTime := now.Add(48 * time.Hour)
	yesAsk := 0.94
	yesBid := 0.90

	gw.scoringRows = []persistence.ScoringInputRow{
		{
			Market: domain.Market{Venue: "v", MarketID: "m1", Status: domain.StatusActive, CloseTime: &closeTime},
			Quote:  domain.QuoteSnapshot{Venue: "v", MarketID: "m1", AsOf: now, YesAsk: &yesAsk, YesBid: &yesBid},
			Rule:   domain.RuleSnapshot{Venue: "v", MarketID: "m1", AsOf: now, RuleHash: "h1"},
		},
	}
	orch, _ := newTestOrchestrator(t, gw)

	orch.runScoringTick(context.Background())

	gw.mu.Lock()
	defer gw.mu.Unlock()
	assert.Len(t, gw.scores, 1)
	assert.Len(t, gw.recs, 1)
	assert.Equal(t, "m1", gw.scores[0].MarketID)
}

func TestRunScoringTick_SkipsIneligibleMarket(t *testing.T) {
	gw := newFakeGateway()
	now := time.Now().UTC()
	closeTime := now.Add(48 * time.Hour)

	// No quote at all: in.Quote.MarketID == "" fails the eligibility gate.
	gw.scoringRows = []persistence.ScoringInputRow{
		{Market: domain.Market{Venue: "v", MarketID: "m2", Status: domain.StatusActive, CloseTime: &closeTime}},
	}
	orch, _ := newTestOrchestrator(t, gw)

	orch.runScoringTick(context.Background())

	gw.mu.Lock()
	defer gw.mu.Unlock()
	assert.Empty(t, gw.scores)
	assert.Empty(t, gw.recs)
}

func TestEligibilityGate_ReportsSpecificReason(t *testing.T) {
	now := time.Now().UTC()
	cfg := config.Default().Scoring

	in := scoring.Input{Market: domain.Market{Status: domain.StatusClosed}}
	assert.Equal(t, "status", eligibilityGate(in, cfg, now))
}
