package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/denniswon/pm-endgame-sweep/internal/domain"
	"github.com/denniswon/pm-endgame-sweep/internal/persistence"
	"github.com/denniswon/pm-endgame-sweep/internal/venueclient"
)

// runQuotesTick selects eligible markets per venue, fetches quotes in
// chunks bounded by the venue's batch limit, writes them through
// upsert_quotes_latest, and inserts a bounded-history sample for any
// bucket that doesn't have one yet (spec.md §4.C).
func (o *Orchestrator) runQuotesTick(ctx context.Context) {
	now := time.Now().UTC()
	horizon := now.Add(time.Duration(o.cfg.Scoring.MaxTRemainingSec) * time.Second)

	for _, venueName := range o.venues.Venues() {
		client, err := o.venues.Get(venueName)
		if err != nil {
			continue
		}
		o.pollVenueQuotes(ctx, client, now, horizon)
	}
}

func (o *Orchestrator) pollVenueQuotes(ctx context.Context, client venueclient.Client, now, horizon time.Time) {
	cfg := o.cfg.Venues[client.Name()]
	batchLimit := cfg.BatchLimit
	if batchLimit <= 0 {
		batchLimit = 100
	}

	cursor := ""
	for {
		page, err := o.gateway.LoadScoringInputs(ctx, persistence.ScoringFilter{
			Status:      domain.StatusActive,
			CloseAfter:  now,
			CloseBefore: horizon,
			Cursor:      cursor,
			Limit:       1000,
		})
		if err != nil {
			log.Warn().Str("venue", client.Name()).Err(err).Msg("quote-eligible page load failed")
			return
		}
		if len(page.Rows) == 0 {
			return
		}

		marketIDs := make([]string, 0, len(page.Rows))
		for _, row := range page.Rows {
			if row.Market.Venue == client.Name() {
				marketIDs = append(marketIDs, row.Market.MarketID)
			}
		}

		for _, chunk := range chunkStrings(marketIDs, batchLimit) {
			o.fetchAndWriteQuotes(ctx, client, chunk)
		}

		if page.NextCursor == "" {
			return
		}
		cursor = page.NextCursor
	}
}

func (o *Orchestrator) fetchAndWriteQuotes(ctx context.Context, client venueclient.Client, marketIDs []string) {
	quotes, err := client.Quotes(ctx, marketIDs)
	if err != nil {
		log.Warn().Str("venue", client.Name()).Err(err).Msg("quote fetch failed, retrying next tick")
		return
	}

	snapshots := make([]domain.QuoteSnapshot, 0, len(quotes))
	for _, q := range quotes {
		snapshots = append(snapshots, domain.QuoteSnapshot{
			Venue:    client.Name(),
			MarketID: q.MarketID,
			AsOf:     q.AsOf,
			YesBid:   q.YesBid,
			YesAsk:   q.YesAsk,
			NoBid:    q.NoBid,
			NoAsk:    q.NoAsk,
			Source:   client.Name(),
		})
	}

	if err := o.gateway.UpsertQuotesLatest(ctx, snapshots); err != nil {
		log.Warn().Str("venue", client.Name()).Err(err).Msg("quote upsert failed")
		return
	}
	if o.metrics != nil {
		o.metrics.QuotesWritten.Add(float64(len(snapshots)))
	}

	for _, s := range snapshots {
		sample := domain.QuoteSample{
			Venue:       s.Venue,
			MarketID:    s.MarketID,
			BucketStart: domain.BucketStart(s.AsOf),
			YesBid:      s.YesBid,
			YesAsk:      s.YesAsk,
			NoBid:       s.NoBid,
			NoAsk:       s.NoAsk,
		}
		if err := o.gateway.InsertQuoteSampleIfAbsent(ctx, sample); err != nil {
			log.Warn().Str("venue", s.Venue).Str("market_id", s.MarketID).Err(err).Msg("quote sample insert failed")
		}
	}
}

func chunkStrings(in []string, size int) [][]string {
	var out [][]string
	for i := 0; i < len(in); i += size {
		end := i + size
		if end > len(in) {
			end = len(in)
		}
		out = append(out, in[i:end])
	}
	return out
}
