package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/denniswon/pm-endgame-sweep/internal/domain"
	"github.com/denniswon/pm-endgame-sweep/internal/persistence"
	"github.com/denniswon/pm-endgame-sweep/internal/venueclient"
)

func TestPollVenueQuotes_WritesQuotesAndSample(t *testing.T) {
	gw := newFakeGateway()
	now := time.Now().UTC()
	closeTime := now.Add(48 * time.Hour)
	gw.scoringRows = []persistence.ScoringInputRow{
		{Market: domain.Market{Venue: "quote-test-venue", MarketID: "m1", Status: domain.StatusActive, CloseTime: &closeTime}},
	}

	yesBid, yesAsk := 0.90, 0.94
	client := &fakeClient{
		name: "quote-test-venue",
		quotes: []venueclient.QuoteResult{
			{MarketID: "m1", AsOf: now, YesBid: &yesBid, YesAsk: &yesAsk},
		},
	}
	orch, _ := newTestOrchestrator(t, gw, client)

	orch.pollVenueQuotes(context.Background(), client, now, now.Add(365*24*time.Hour))

	gw.mu.Lock()
	defer gw.mu.Unlock()
	snap, ok := gw.quotes["quote-test-venue:m1"]
	assert.True(t, ok)
	assert.Equal(t, 0.90, *snap.YesBid)
	assert.Len(t, gw.samples, 1)
}

func TestPollVenueQuotes_QuoteErrorWritesNothing(t *testing.T) {
	gw := newFakeGateway()
	now := time.Now().UTC()
	closeTime := now.Add(48 * time.Hour)
	gw.scoringRows = []persistence.ScoringInputRow{
		{Market: domain.Market{Venue: "quote-test-venue-2", MarketID: "m1", Status: domain.StatusActive, CloseTime: &closeTime}},
	}
	client := &fakeClient{name: "quote-test-venue-2", quotesErr: assertError("venue outage")}
	orch, _ := newTestOrchestrator(t, gw, client)

	orch.pollVenueQuotes(context.Background(), client, now, now.Add(365*24*time.Hour))

	gw.mu.Lock()
	defer gw.mu.Unlock()
	assert.Empty(t, gw.quotes)
}
