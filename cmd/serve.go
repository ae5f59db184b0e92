package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/meetbook/internal/config"
	"github.com/teemow/meetbook/internal/instrumentation"
	"github.com/teemow/meetbook/internal/scheduling"
	"github.com/teemow/meetbook/internal/server"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	Enabled bool
	Addr    string
}

func newServeCmd() *cobra.Command {
	var (
		httpAddr       string
		metricsEnabled bool
		metricsAddr    string
		sweepSchedule  string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduling HTTP server",
		Long: `Serve the meeting scheduling endpoint, the admin routes and health checks.

Prometheus metrics are served on a separate address. When LINK_SWEEP_SCHEDULE
is set, meetings without a link are retried on that cron schedule.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("http-addr") {
				cfg.HTTP.Addr = httpAddr
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.HTTP.MetricsAddr = metricsAddr
			}
			if cmd.Flags().Changed("sweep-schedule") {
				cfg.Sweep.Schedule = sweepSchedule
			}
			return runServe(cfg, logger, MetricsConfig{Enabled: metricsEnabled, Addr: cfg.HTTP.MetricsAddr})
		},
	}

	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8000", "HTTP server address. Can also use HTTP_ADDR env var.")
	cmd.Flags().BoolVar(&metricsEnabled, "metrics-enabled", true, "Enable the metrics server on a dedicated port.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9090", "Metrics server address. Can also use METRICS_ADDR env var.")
	cmd.Flags().StringVar(&sweepSchedule, "sweep-schedule", "", "Cron schedule for retrying meetings without a link. Can also use LINK_SWEEP_SCHEDULE env var.")

	return cmd
}

func runServe(cfg *config.Config, logger *slog.Logger, metricsConfig MetricsConfig) error {
	shutdownCtx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := instrumentation.NewProvider(shutdownCtx, telemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Error("error during instrumentation shutdown", "error", err)
		}
	}()

	a, err := newApp(shutdownCtx, cfg, logger, provider.Metrics())
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if !a.store.Exists() {
		logger.Warn("no Google credential found, meetings will get fallback links until `meetbook auth` is run",
			"token_path", a.store.Path())
	}

	serverContext := server.NewServerContext(shutdownCtx)
	serverContext.AddCheck("database", a.db.Ping)

	var auth *server.AdminAuth
	if cfg.Admin.Enabled() {
		auth = server.NewAdminAuth(cfg.Admin.Token, []byte(cfg.Admin.JWTSecret), logger)
	} else {
		logger.Warn("admin routes are not protected, set ADMIN_TOKEN or ADMIN_JWT_SECRET")
	}

	srv, err := server.New(server.Config{
		Addr:              cfg.HTTP.Addr,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		Handlers:          server.NewHandlers(a.service, a.bulk, a.repo, cfg.Location(), logger),
		Auth:              auth,
		ServerContext:     serverContext,
		Metrics:           provider.Metrics(),
		Logger:            logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	errCh := make(chan error, 2)

	var metricsServer *server.MetricsServer
	if metricsConfig.Enabled && provider.Enabled() && provider.PrometheusHandler() != nil {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    metricsConfig.Addr,
			InstrumentationProvider: provider,
			Logger:                  logger,
		})
		if err != nil {
			return fmt.Errorf("failed to create metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	var sweeper *scheduling.Sweeper
	if cfg.Sweep.Schedule != "" {
		sweeper, err = scheduling.NewSweeper(a.bulk, cfg.Sweep.Schedule, scheduling.WithLogger(logger))
		if err != nil {
			return err
		}
		sweeper.Start(shutdownCtx)
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-shutdownCtx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server failed", "error", runErr)
	}

	ctx, cancelShutdown := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancelShutdown()

	if sweeper != nil {
		if err := sweeper.Stop(ctx); err != nil {
			logger.Error("error stopping link sweep", "error", err)
		}
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("error during server shutdown", "error", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			logger.Error("error during metrics server shutdown", "error", err)
		}
	}

	return runErr
}

func telemetryConfig(t config.TelemetryConfig) instrumentation.Config {
	return instrumentation.Config{
		ServiceName:       t.ServiceName,
		ServiceVersion:    version,
		ServiceInstanceID: t.InstanceID,
		Enabled:           t.Enabled,
		MetricsExporter:   t.MetricsExporter,
		TracingExporter:   t.TracingExporter,
		OTLPEndpoint:      t.OTLPEndpoint,
		OTLPInsecure:      t.OTLPInsecure,
		TraceSamplingRate: t.SamplingRate,
	}
}
