package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/cv-analyzer-web/internal/observability"
	"alfredoptarigan/cv-analyzer-web/internal/server"
	"alfredoptarigan/cv-analyzer-web/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web front end",
	Long: `Start the web front end.

Routes:
- GET  /                 upload form
- POST /analyze          submit the form
- GET  /results          analysis dashboard
- POST /api/analyze-cv   proxy relay to the analysis backend
- GET  /api/v1/health    health check
- GET  /metrics          Prometheus metrics`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (overrides PORT)")
	serveCmd.Flags().String("backend-url", "", "Analysis backend base URL (overrides BACKEND_URL)")
	serveCmd.Flags().String("store", "", "Result store driver: memory, file or postgres (overrides STORE_DRIVER)")

	bindFlag := func(key, flagName string) {
		if err := viper.BindPFlag(key, serveCmd.Flags().Lookup(flagName)); err != nil {
			panic(err)
		}
	}

	bindFlag("PORT", "port")
	bindFlag("BACKEND_URL", "backend-url")
	bindFlag("STORE_DRIVER", "store")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)
	defer func() { _ = logger.Sync() }()

	logger.Info("✅ Config loaded successfully", zap.String("env", cfg.Server.Env))

	shutdownTracing, err := observability.SetupTracing(cfg.Tracing.Enabled)
	if err != nil {
		return err
	}

	deps, err := server.Wire(cfg, logger)
	if err != nil {
		return err
	}

	app, err := server.New(deps)
	if err != nil {
		return err
	}
	logger.Info("✅ Handlers initialized")

	sweeper := services.NewSessionSweeper(
		deps.Sweepers(),
		cfg.Store.SweepInterval,
		cfg.Store.SessionIdle,
		logger,
	)
	sweeper.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	g.Go(func() error {
		logger.Info("🚀 Server starting", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("🛑 Shutting down server...")
		sweeper.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var errs []error
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
		}
		if err := shutdownTracing(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("failed to flush traces: %w", err))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
