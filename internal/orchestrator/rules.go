package orchestrator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/denniswon/pm-endgame-sweep/internal/domain"
	"github.com/denniswon/pm-endgame-sweep/internal/persistence"
	"github.com/denniswon/pm-endgame-sweep/internal/rules"
)

// ruleHashCache remembers the last computed rule_hash per (venue, market),
// so a worker skips re-invoking the extractor when the fetched text is
// unchanged (scenario S6) without requiring an extra gateway read beyond
// the operations named in the persistence contract.
var ruleHashCache sync.Map

// startRuleWorkers spawns a fixed pool of workers consuming the rule-fetch
// queue, per spec.md §4.C.
func (o *Orchestrator) startRuleWorkers(ctx context.Context, poolSize int) {
	for i := 0; i < poolSize; i++ {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			o.runRuleWorker(ctx)
		}()
	}
}

func (o *Orchestrator) runRuleWorker(ctx context.Context) {
	for {
		key, ok := o.queue.Dequeue()
		if !ok {
			return
		}
		if o.metrics != nil {
			o.metrics.QueueLength.Set(float64(o.queue.Len()))
		}

		venue, marketID, ok := splitKey(key)
		if !ok {
			continue
		}

		workCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		o.processRuleFetch(workCtx, venue, marketID)
		cancel()

		if ctx.Err() != nil && o.queue.Len() == 0 {
			return
		}
	}
}

func (o *Orchestrator) processRuleFetch(ctx context.Context, venue, marketID string) {
	client, err := o.venues.Get(venue)
	if err != nil {
		return
	}

	text, err := client.Rule(ctx, marketID)
	if err != nil {
		log.Warn().Str("venue", venue).Str("market_id", marketID).Err(err).Msg("rule fetch failed")
		return
	}

	hash := rules.Hash(text)
	cacheKey := venue + ":" + marketID
	prevHash, hadPrev := ruleHashCache.Load(cacheKey)

	snapshot := domain.RuleSnapshot{
		Venue:    venue,
		MarketID: marketID,
		AsOf:     time.Now().UTC(),
		RuleHash: hash,
	}

	if hadPrev && prevHash.(string) == hash {
		if err := o.gateway.UpsertRuleLatest(ctx, snapshot); err != nil {
			log.Warn().Str("venue", venue).Str("market_id", marketID).Err(err).Msg("rule touch failed")
		}
		return
	}

	result := rules.Extract(text)
	snapshot.RuleText = text
	snapshot.DefinitionRiskScore = result.DefinitionRiskScore
	snapshot.RiskFlags = result.Flags

	if err := o.gateway.UpsertRuleLatest(ctx, snapshot); err != nil {
		log.Warn().Str("venue", venue).Str("market_id", marketID).Err(err).Msg("rule upsert failed")
		return
	}
	ruleHashCache.Store(cacheKey, hash)
}

// startFullSweep re-enqueues every active market whose close_time falls
// within the next 365 days as a floor, independent of newly-seen tracking.
// Markets with no close_time or closing later than that are not swept.
func (o *Orchestrator) startFullSweep(ctx context.Context, period time.Duration) {
	o.startLoop(ctx, "rule-full-sweep", period, o.runFullSweepTick)
}

func (o *Orchestrator) runFullSweepTick(ctx context.Context) {
	cursor := ""
	for {
		page, err := o.gateway.LoadScoringInputs(ctx, scoringFilterForSweep(cursor))
		if err != nil {
			log.Warn().Err(err).Msg("full sweep page failed")
			return
		}
		for _, row := range page.Rows {
			o.enqueueRuleFetch(row.Market.Venue + ":" + row.Market.MarketID)
		}
		if page.NextCursor == "" {
			return
		}
		cursor = page.NextCursor
	}
}

func scoringFilterForSweep(cursor string) persistence.ScoringFilter {
	return persistence.ScoringFilter{
		Status:      domain.StatusActive,
		CloseAfter:  time.Now().UTC(),
		CloseBefore: time.Now().UTC().Add(365 * 24 * time.Hour),
		Cursor:      cursor,
		Limit:       1000,
	}
}

func splitKey(key string) (venue, marketID string, ok bool) {
	idx := strings.IndexByte(key, ':')
	if idx < 0 {
		return "", "", false
	}
	return key[:idx], key[idx+1:], true
}
