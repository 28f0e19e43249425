package main

import (
	"os"

	"matchwise/backend/internal/config"
	"matchwise/backend/internal/logger"

	"github.com/spf13/cobra"
)

const app = "matchctl"

var (
	// Used for flags.
	debug bool

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "matchctl scores skill exchange listings and manages the matchwise database",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			level := "warn"
			if debug {
				level = "debug"
			}
			logger.InitWithWriter(config.LoggerConfig{Level: level, Environment: "development"}, os.Stderr)
		},
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "verbose/debug output")
}
