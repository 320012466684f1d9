package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sangkips/maglo-api/internal/config"
	"github.com/sangkips/maglo-api/pkg/logger"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

// cfg is loaded once before any subcommand runs
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "maglo",
	Short: "Maglo invoicing API",
	Long: `Maglo is the backend of the Maglo invoicing dashboard. It serves the
invoice, session, dashboard and settings API over HTTP.

Configuration is read from .env and the environment.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()

		if err := logger.Setup(logger.LogConfig{
			Level:      cfg.Log.Level,
			Format:     cfg.Log.Format,
			Output:     cfg.Log.Output,
			TimeFormat: time.RFC3339,
		}); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return cfg.Validate()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().Err(err).Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
