package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/denniswon/pm-endgame-sweep/internal/config"
	"github.com/denniswon/pm-endgame-sweep/internal/metrics"
	"github.com/denniswon/pm-endgame-sweep/internal/persistence/postgres"
	"github.com/denniswon/pm-endgame-sweep/internal/venueclient"
)

// app bundles the constructed dependencies shared by every subcommand that
// actually drives the core, so serve and scan-once don't duplicate wiring.
type app struct {
	cfg      *config.Config
	venues   *venueclient.Registry
	gateway  *postgres.Gateway
	metrics  *metrics.Registry
	closeAll func() error
}

// buildApp loads configuration, opens the store, and registers one HTTP
// venue client per configured venue. Every venue uses the generic
// RESTAdapter; venues with a bespoke wire format would supply their own
// WireAdapter here instead.
func buildApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	db, err := postgres.Open(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	gateway := postgres.NewGateway(db, 0)
	metricsRegistry := metrics.NewRegistry(prometheus.NewRegistry())

	registry := venueclient.NewRegistry()
	adapter := &venueclient.RESTAdapter{
		DiscoverPath: "/markets",
		QuotesPath:   "/quotes",
		RulePath:     "/rules",
	}
	for name, venueCfg := range cfg.Venues {
		client := venueclient.NewHTTPClient(name, venueCfg, adapter)
		client.SetMetrics(metricsRegistry)
		if err := registry.Register(client); err != nil {
			db.Close()
			return nil, fmt.Errorf("venue %q: %w", name, err)
		}
	}

	return &app{
		cfg:      cfg,
		venues:   registry,
		gateway:  gateway,
		metrics:  metricsRegistry,
		closeAll: db.Close,
	}, nil
}
