// Package orchestrator implements the Ingestion Orchestrator: the three
// cooperating periodic loops from spec.md §4.C (discovery, quote polling,
// rule refresh) plus the scoring loop and daily retention task. Loops
// communicate only through the store and the bounded rule-fetch queue —
// no entity is shared mutably between them (spec.md §5, §9).
package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/denniswon/pm-endgame-sweep/internal/config"
	"github.com/denniswon/pm-endgame-sweep/internal/metrics"
	"github.com/denniswon/pm-endgame-sweep/internal/persistence"
	"github.com/denniswon/pm-endgame-sweep/internal/venueclient"
)

// Orchestrator wires the venue registry, persistence gateway, and metrics
// registry into the periodic loops and drives their lifecycle.
type Orchestrator struct {
	venues  *venueclient.Registry
	gateway persistence.Gateway
	metrics *metrics.Registry
	cfg     *config.Config
	queue   *RuleFetchQueue

	wg sync.WaitGroup
}

// New builds an Orchestrator ready to Run.
func New(venues *venueclient.Registry, gateway persistence.Gateway, metricsReg *metrics.Registry, cfg *config.Config) *Orchestrator {
	return &Orchestrator{
		venues:  venues,
		gateway: gateway,
		metrics: metricsReg,
		cfg:     cfg,
		queue:   NewRuleFetchQueue(10_000),
	}
}

// Run starts every loop as an independent goroutine and blocks until ctx is
// cancelled, then drains in-flight work before returning. No write is left
// half-applied on shutdown (spec.md §4.C).
func (o *Orchestrator) Run(ctx context.Context) {
	log.Info().Strs("venues", o.venues.Venues()).Msg("orchestrator starting")

	o.startLoop(ctx, "discovery", time.Duration(o.cfg.Cadence.DiscoverySec)*time.Second, o.runDiscoveryTick)
	o.startLoop(ctx, "quotes", time.Duration(o.cfg.Cadence.QuotesSec)*time.Second, o.runQuotesTick)
	o.startLoop(ctx, "scoring", time.Duration(o.cfg.Cadence.ScoringSec)*time.Second, o.runScoringTick)
	o.startLoop(ctx, "retention", 24*time.Hour, o.runRetentionTick)

	o.startRuleWorkers(ctx, 4)
	o.startFullSweep(ctx, 24*time.Hour)

	<-ctx.Done()
	log.Info().Msg("orchestrator shutdown signal received, draining")
	o.queue.Close()
	o.wg.Wait()
	log.Info().Msg("orchestrator drained, exiting")
}

// RunOnce performs a single discovery, quote-polling, and scoring pass and
// returns, without starting the rule-fetch workers or any ticker. It is
// used by operational smoke tests that want one pass without the
// continuously-running process (SPEC_FULL.md's `scan-once` subcommand).
func (o *Orchestrator) RunOnce(ctx context.Context) {
	log.Info().Strs("venues", o.venues.Venues()).Msg("scan-once starting")
	o.runDiscoveryTick(ctx)
	o.runQuotesTick(ctx)
	o.runScoringTick(ctx)
	log.Info().Msg("scan-once complete")
}

// startLoop runs fn once per period on its own goroutine until ctx is
// cancelled, matching the ticker-driven loop idiom used throughout this
// codebase's scheduled jobs.
func (o *Orchestrator) startLoop(ctx context.Context, name string, period time.Duration, fn func(ctx context.Context)) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Debug().Str("loop", name).Msg("loop stopped accepting new ticks")
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(context.Background(), period)
				fn(tickCtx)
				cancel()
			}
		}
	}()
}
