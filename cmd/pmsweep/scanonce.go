package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/denniswon/pm-endgame-sweep/internal/orchestrator"
)

// breakerStatusReporter is implemented by venue clients that expose their
// circuit breaker states (currently *venueclient.HTTPClient). Using an
// inline interface here avoids forcing every Client implementation to
// carry a method the core itself never calls.
type breakerStatusReporter interface {
	BreakerStatus() map[string]string
}

// scanOnceCmd runs a single discovery + quote + scoring pass and exits,
// useful for operational smoke tests against a configured venue and store.
func scanOnceCmd(configPath *string) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "scan-once",
		Short: "Run one discovery, quote, and scoring pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(*configPath)
			if err != nil {
				return err
			}
			defer a.closeAll()

			orchestrator.New(a.venues, a.gateway, a.metrics, a.cfg).RunOnce(cmd.Context())

			if verbose {
				printBreakerStatus(a)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&verbose, "verbose", false, "print a per-venue circuit breaker status summary")
	return cmd
}

func printBreakerStatus(a *app) {
	for _, name := range a.venues.Venues() {
		client, err := a.venues.Get(name)
		if err != nil {
			continue
		}
		reporter, ok := client.(breakerStatusReporter)
		if !ok {
			continue
		}
		fmt.Printf("%s: %v\n", name, reporter.BreakerStatus())
	}
}
