package main

import (
	"fmt"

	"github.com/sangkips/maglo-api/internal/config"
	"github.com/sangkips/maglo-api/internal/infrastructure/database"
	"github.com/sangkips/maglo-api/pkg/logger"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("migrate")

	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrate requires DB_DRIVER=%s, got %q", config.DriverPostgres, cfg.Database.Driver)
	}

	db, err := openPostgres(cfg, true)
	if err != nil {
		return err
	}
	defer database.Close(db)

	log.Info().Str("database", cfg.Database.Name).Msg("migrations applied")
	return nil
}
