package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/denniswon/pm-endgame-sweep/internal/orchestrator"
)

// serveCmd runs every periodic loop until the process receives a shutdown
// signal, draining in-flight work before exiting (spec.md §4.C).
func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run discovery, quote polling, rule refresh, scoring, and retention continuously",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer a.closeAll()

			orch := orchestrator.New(a.venues, a.gateway, a.metrics, a.cfg)
			orch.Run(cmd.Context())
			log.Info().Msg("serve exiting")
			return nil
		},
	}
}
