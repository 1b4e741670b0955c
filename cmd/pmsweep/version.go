package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const buildVersion = "v0.1.0"

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("pmsweep " + buildVersion)
			return nil
		},
	}
}
