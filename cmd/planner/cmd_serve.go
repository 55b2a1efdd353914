package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	httpapi "github.com/coursepath/planner/internal/interface/http"
	"github.com/coursepath/planner/internal/interface/http/handlers"
	"github.com/coursepath/planner/pkg/logger"
)

// serveCmd runs the HTTP API until interrupted.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the planner HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	dir, err := directory(cfg)
	if err != nil {
		return err
	}

	// ─────────────────────────────────────────────────────────────────────────
	// HEALTH CHECKS
	// ─────────────────────────────────────────────────────────────────────────
	health := handlers.NewCompositeHealthChecker(cfg.App.Version)
	health.AddCheck("catalog", handlers.NewCatalogCheck(a.catalog.Len))
	if a.conn != nil {
		health.AddCheck("database", handlers.NewPingCheck(a.conn))
	}
	if a.cache != nil {
		health.AddCheck("redis", handlers.NewPingCheck(a.cache))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpapi.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.RequestTimeout = cfg.HTTP.RequestTimeout
	httpCfg.RateLimitPerMinute = cfg.HTTP.RateLimit
	httpCfg.AllowedOrigins = cfg.HTTP.CORSOrigins
	httpCfg.EnableMetrics = cfg.Observability.MetricsEnabled

	httpLogger := logger.New(logger.Options{
		Output: cmd.ErrOrStderr(),
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	}).With(logger.String("app", cfg.App.Name))

	server := httpapi.NewServer(httpCfg, httpapi.Dependencies{
		AssemblePlan:  a.assembleHandler(),
		ReplaceCourse: a.replaceHandler(),
		GetPlan:       a.planHandler(),
		GetPlanTable:  a.tableHandler(),
		Counselors:    dir,
		Logger:        httpLogger,
		HealthChecker: health,
	})

	errCh := server.StartAsync()
	log.Info("planner API started",
		"address", server.Address(),
		"storage", cfg.Storage.Backend,
		"courses", a.catalog.Len(),
	)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	log.Info("starting graceful shutdown...", "timeout", cfg.App.ShutdownTimeout.String())
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info("shutdown completed successfully")
	return nil
}
