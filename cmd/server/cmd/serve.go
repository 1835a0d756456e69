package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hackbox-events/server/internal/config"
	"github.com/hackbox-events/server/internal/metrics"
	"github.com/hackbox-events/server/internal/telemetry"
)

var (
	// Server flags (override config/env)
	serverHost string
	serverPort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the events HTTP server",
	Long: `Start the events HTTP server and begin accepting API requests.

The server will:
- Load configuration from --config (optional) and environment variables
- Bootstrap the admin account if ADMIN_* env vars are set
- Start River workers for email delivery and photo compression
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with custom config file
  server serve --config /etc/hackbox/config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host address (default: 0.0.0.0)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (default: 8080)")
}

func runServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if serverHost != "" {
		cfg.Server.Host = serverHost
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Str("environment", cfg.Environment).Msg("starting events server")

	metrics.Init(Version, GitCommit, BuildDate)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn().Err(err).Msg("tracing shutdown error")
		}
	}()

	setupCtx, setupCancel := context.WithTimeout(ctx, 30*time.Second)
	app, err := newApplication(setupCtx, cfg, logger)
	if err != nil {
		setupCancel()
		return err
	}
	if err := app.bootstrapAdmin(setupCtx); err != nil {
		logger.Error().Err(err).Msg("admin bootstrap failed")
	}
	setupCancel()

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if app.pool != nil {
		collectorCtx, collectorCancel := context.WithCancel(runCtx)
		defer collectorCancel()
		go metrics.NewDBCollector(app.pool).Start(collectorCtx, 15*time.Second)
	}

	// River stops through app.close; cancelling its start context would abort
	// running jobs instead of draining them.
	riverCtx, riverCancel := context.WithCancel(context.WithoutCancel(ctx))
	defer riverCancel()

	if app.river != nil {
		if err := app.river.Start(riverCtx); err != nil {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			app.close(closeCtx)
			cancel()
			return fmt.Errorf("river workers failed to start (run `server migrate river`?): %w", err)
		}
		logger.Info().Msg("river background job workers started")
	} else {
		logger.Info().Msg("background jobs run in-process")
	}

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           app.router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			shutdownApp(app, logger)
			return fmt.Errorf("http server: %w", err)
		}
	case <-runCtx.Done():
	}
	return gracefulShutdown(server, app, logger)
}

func gracefulShutdown(server *http.Server, app *application, logger zerolog.Logger) error {
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := server.Shutdown(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("shutdown error")
	}
	shutdownApp(app, logger)
	if err == nil {
		logger.Info().Msg("server stopped")
	}
	return err
}

func shutdownApp(app *application, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	app.close(ctx)
	logger.Debug().Msg("background work drained")
}
