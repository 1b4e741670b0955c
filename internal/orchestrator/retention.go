package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// runRetentionTick prunes quote samples older than the configured
// retention window. It runs daily through the gateway (spec.md §4 control
// flow, §8 property #8).
func (o *Orchestrator) runRetentionTick(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-o.cfg.RetentionWindow())
	n, err := o.gateway.PruneQuoteSamples(ctx, cutoff)
	if err != nil {
		log.Warn().Err(err).Msg("retention prune failed, will retry next tick")
		return
	}
	if o.metrics != nil {
		o.metrics.SamplesPruned.Add(float64(n))
	}
	log.Info().Int64("pruned", n).Msg("retention task completed")
}
