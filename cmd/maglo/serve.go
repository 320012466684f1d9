package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/maglo-api/internal/presentation/http/routes"
	"github.com/sangkips/maglo-api/pkg/logger"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server.

With DB_DRIVER=postgres the schema is migrated on startup unless
--skip-migrate is given. With DB_DRIVER=memory nothing is persisted.`,
	Example: `  # Start against PostgreSQL
  maglo serve

  # Start with throwaway storage
  DB_DRIVER=memory REDIS_ENABLED=false maglo serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Bool("skip-migrate", false, "Do not run schema migrations on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	skipMigrate, _ := cmd.Flags().GetBool("skip-migrate")

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := openStores(cfg, !skipMigrate)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			log.Error().Err(err).Msg("failed to close storage")
		}
	}()

	sessions, closeSessions, err := openSessionStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSessions(); err != nil {
			log.Error().Err(err).Msg("failed to close session store")
		}
	}()

	app := buildApplication(cfg, st, sessions)
	defer app.rateLimiter.Stop()

	server := &http.Server{
		Addr:    ":" + cfg.App.Port,
		Handler: routes.Setup(app.handlers, app.deps),
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("app", cfg.App.Name).
			Str("env", cfg.App.Env).
			Str("port", cfg.App.Port).
			Str("db_driver", cfg.Database.Driver).
			Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		if ok {
			return err
		}
		return nil
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return err
	}

	log.Info().Msg("server stopped gracefully")
	return nil
}
