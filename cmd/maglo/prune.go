package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sangkips/maglo-api/internal/config"
	"github.com/sangkips/maglo-api/pkg/logger"
	"github.com/spf13/cobra"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired idempotency keys",
	Long: `Delete idempotency keys whose replay window has passed.

Run it periodically, for example from cron, against the PostgreSQL store.`,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(pruneCmd)

	pruneCmd.Flags().Duration("timeout", time.Minute, "Maximum time the delete may take")
}

func runPrune(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("prune")

	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("prune requires DB_DRIVER=%s, got %q", config.DriverPostgres, cfg.Database.Driver)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")

	st, err := openStores(cfg, false)
	if err != nil {
		return err
	}
	defer st.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	deleted, err := st.idempotency.DeleteExpired(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to prune idempotency keys: %w", err)
	}

	log.Info().Int64("deleted", deleted).Msg("expired idempotency keys pruned")
	return nil
}
