// Package metrics holds in-process Prometheus collectors for the core.
// Metrics exposition (serving /metrics over HTTP) is an explicitly
// out-of-scope external collaborator per spec.md §1; this registry is
// populated by the core but never wired to an HTTP handler here.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds every counter and gauge the core updates.
type Registry struct {
	VenueFailures      *prometheus.CounterVec
	RetryAttempts      *prometheus.CounterVec
	QueueDrops         prometheus.Counter
	QueueLength        prometheus.Gauge
	BreakerTrips       *prometheus.CounterVec
	EligibilityMisses  *prometheus.CounterVec
	DiscoveryMarkets   prometheus.Counter
	QuotesWritten       prometheus.Counter
	ScoresWritten       prometheus.Counter
	SamplesPruned       prometheus.Counter
}

// NewRegistry constructs a Registry and registers every collector with reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		VenueFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pmsweep_venue_failures_total",
			Help: "Classified venue call failures by venue, operation, and kind.",
		}, []string{"venue", "op", "kind"}),

		RetryAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pmsweep_venue_retry_attempts_total",
			Help: "Retry attempts issued by the venue client retry policy, by venue and operation.",
		}, []string{"venue", "op"}),

		QueueDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pmsweep_rule_queue_drops_total",
			Help: "Entries dropped from the rule-fetch queue on overflow.",
		}),

		QueueLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pmsweep_rule_queue_length",
			Help: "Current length of the rule-fetch queue.",
		}),

		BreakerTrips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pmsweep_circuit_breaker_trips_total",
			Help: "Circuit breaker state transitions to open, by venue and operation.",
		}, []string{"venue", "op"}),

		EligibilityMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pmsweep_eligibility_misses_total",
			Help: "Markets skipped in a scoring tick by the failed gate.",
		}, []string{"gate"}),

		DiscoveryMarkets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pmsweep_discovery_markets_total",
			Help: "Markets upserted by the discovery loop.",
		}),

		QuotesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pmsweep_quotes_written_total",
			Help: "Quote snapshots written by the quote polling loop.",
		}),

		ScoresWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pmsweep_scores_written_total",
			Help: "Score snapshots written by the scoring engine.",
		}),

		SamplesPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pmsweep_quote_samples_pruned_total",
			Help: "Quote samples removed by the retention task.",
		}),
	}

	reg.MustRegister(
		r.VenueFailures, r.RetryAttempts, r.QueueDrops, r.QueueLength, r.BreakerTrips,
		r.EligibilityMisses, r.DiscoveryMarkets, r.QuotesWritten,
		r.ScoresWritten, r.SamplesPruned,
	)
	return r
}
