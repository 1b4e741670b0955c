package main

import (
	"context"

	"github.com/spf13/cobra"
)

// Execute builds the pmsweep root command and runs it against ctx, which is
// cancelled on SIGINT/SIGTERM by main.
func Execute(ctx context.Context) error {
	var configPath string

	root := &cobra.Command{
		Use:   "pmsweep",
		Short: "PM Endgame Sweep — prediction market convergence-carry scanner",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (defaults apply if omitted)")

	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(scanOnceCmd(&configPath))
	root.AddCommand(versionCmd())

	return root.ExecuteContext(ctx)
}
