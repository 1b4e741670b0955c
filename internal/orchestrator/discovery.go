package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/denniswon/pm-endgame-sweep/internal/domain"
	"github.com/denniswon/pm-endgame-sweep/internal/venueclient"
)

// seenMarkets tracks markets already enqueued for a rule fetch at least
// once this process's lifetime, approximating "newly-seen" from spec.md
// §4.C without requiring an extra gateway existence check per market. The
// 24h full-sweep loop re-enqueues every active market closing within the
// next 365 days regardless of this map.
var seenMarkets sync.Map

// runDiscoveryTick pages through every registered venue, upserting Markets
// and Outcomes in batches of at most 1,000, and enqueues a rule-fetch
// request for every newly-seen market. A batch failure for one venue does
// not halt the others or this tick; the next tick retries (spec.md §4.C).
func (o *Orchestrator) runDiscoveryTick(ctx context.Context) {
	for _, venueName := range o.venues.Venues() {
		client, err := o.venues.Get(venueName)
		if err != nil {
			continue
		}
		o.discoverVenue(ctx, client)
	}
}

func (o *Orchestrator) discoverVenue(ctx context.Context, client venueclient.Client) {
	cursor := ""
	for {
		if ctx.Err() != nil {
			return
		}
		page, err := client.Discover(ctx, cursor)
		if err != nil {
			log.Warn().Str("venue", client.Name()).Err(err).Msg("discovery page failed, will retry next tick")
			return
		}

		if err := o.upsertDiscoveredPage(ctx, client.Name(), page); err != nil {
			log.Warn().Str("venue", client.Name()).Err(err).Msg("discovery batch upsert failed, will retry next tick")
			return
		}

		if page.NextCursor == "" || page.NextCursor == cursor {
			return
		}
		cursor = page.NextCursor
	}
}

func (o *Orchestrator) upsertDiscoveredPage(ctx context.Context, venue string, page venueclient.Page) error {
	markets := make([]domain.Market, 0, len(page.Markets))
	for _, m := range page.Markets {
		markets = append(markets, domain.Market{
			Venue:        venue,
			MarketID:     m.MarketID,
			Title:        m.Title,
			Category:     m.Category,
			Status:       domain.Status(m.Status),
			OpenTime:     m.OpenTime,
			CloseTime:    m.CloseTime,
			ResolvedTime: m.ResolvedTime,
			CanonicalURL: m.CanonicalURL,
			UpdatedAt:    time.Now().UTC(),
		})
	}
	outcomes := make([]domain.Outcome, 0, len(page.Outcomes))
	for _, oc := range page.Outcomes {
		outcomes = append(outcomes, domain.Outcome{
			Venue:     venue,
			MarketID:  oc.MarketID,
			Side:      domain.Side(oc.Side),
			TokenID:   oc.TokenID,
			UpdatedAt: time.Now().UTC(),
		})
	}

	for _, chunk := range chunkMarkets(markets, 1000) {
		if err := o.gateway.UpsertMarkets(ctx, chunk); err != nil {
			return err
		}
	}
	for _, chunk := range chunkOutcomes(outcomes, 1000) {
		if err := o.gateway.UpsertOutcomes(ctx, chunk); err != nil {
			return err
		}
	}

	if o.metrics != nil {
		o.metrics.DiscoveryMarkets.Add(float64(len(markets)))
	}

	for _, m := range markets {
		key := venue + ":" + m.MarketID
		if _, alreadySeen := seenMarkets.LoadOrStore(key, struct{}{}); !alreadySeen {
			o.enqueueRuleFetch(key)
		}
	}
	return nil
}

func (o *Orchestrator) enqueueRuleFetch(key string) {
	dropsBefore := o.queue.Drops()
	o.queue.Enqueue(key)
	if o.metrics == nil {
		return
	}
	o.metrics.QueueLength.Set(float64(o.queue.Len()))
	if dropped := o.queue.Drops() - dropsBefore; dropped > 0 {
		o.metrics.QueueDrops.Add(float64(dropped))
	}
}

func chunkMarkets(in []domain.Market, size int) [][]domain.Market {
	var out [][]domain.Market
	for i := 0; i < len(in); i += size {
		end := i + size
		if end > len(in) {
			end = len(in)
		}
		out = append(out, in[i:end])
	}
	return out
}

func chunkOutcomes(in []domain.Outcome, size int) [][]domain.Outcome {
	var out [][]domain.Outcome
	for i := 0; i < len(in); i += size {
		end := i + size
		if end > len(in) {
			end = len(in)
		}
		out = append(out, in[i:end])
	}
	return out
}
