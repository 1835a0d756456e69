package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/rs/zerolog"

	"github.com/hackbox-events/server/internal/api"
	"github.com/hackbox-events/server/internal/api/handlers"
	"github.com/hackbox-events/server/internal/auth"
	"github.com/hackbox-events/server/internal/certificate"
	"github.com/hackbox-events/server/internal/config"
	"github.com/hackbox-events/server/internal/domain/accounts"
	"github.com/hackbox-events/server/internal/domain/events"
	"github.com/hackbox-events/server/internal/domain/registrations"
	"github.com/hackbox-events/server/internal/email"
	"github.com/hackbox-events/server/internal/filestore"
	"github.com/hackbox-events/server/internal/jobs"
	"github.com/hackbox-events/server/internal/metrics"
	"github.com/hackbox-events/server/internal/photos"
	"github.com/hackbox-events/server/internal/storage"
	"github.com/hackbox-events/server/internal/storage/memory"
	"github.com/hackbox-events/server/internal/storage/postgres"
)

// application is the assembled server: services, router and the background
// machinery that has to be started and stopped with it.
type application struct {
	cfg    config.Config
	logger zerolog.Logger

	pool     *pgxpool.Pool
	river    *river.Client[pgx.Tx]
	notifier *email.AsyncNotifier
	inline   *photos.InlineCompressor

	accounts *accounts.Service
	router   *api.Router
}

// newApplication wires every component from cfg. The caller owns the result
// and must call close.
func newApplication(ctx context.Context, cfg config.Config, logger zerolog.Logger) (_ *application, err error) {
	app := &application{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			app.close(context.Background())
		}
	}()

	repos, err := app.openRepositories(ctx)
	if err != nil {
		return nil, err
	}

	files, err := newFileStore(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("file store: %w", err)
	}

	sender, err := email.NewSender(cfg.Email, logger)
	if err != nil {
		return nil, fmt.Errorf("email sender: %w", err)
	}

	photoOpts := photos.Options{
		MaxWidth:  cfg.Photos.MaxWidth,
		MaxHeight: cfg.Photos.MaxHeight,
		Quality:   cfg.Photos.Quality,
	}

	var (
		notifier   events.Notifier
		compressor events.PhotoCompressor
	)
	if app.jobsEnabled() {
		workers := jobs.NewWorkers(sender, files, photoOpts, logger)
		hooks := []rivertype.Hook{metrics.NewRiverMetricsHook()}
		client, err := jobs.NewClient(app.pool, cfg.Jobs, workers, newRiverLogger(cfg.Logging), hooks, jobAlert(logger))
		if err != nil {
			return nil, fmt.Errorf("river client: %w", err)
		}
		app.river = client
		policy := jobs.NewRetryPolicy(cfg.Jobs)
		notifier = jobs.NewEmailQueue(client, policy)
		compressor = jobs.NewPhotoQueue(client, policy)
	} else {
		app.notifier = email.NewAsyncNotifier(sender, logger, cfg.Environment == "production")
		app.inline = photos.NewInlineCompressor(files, photoOpts, logger)
		notifier = app.notifier
		compressor = app.inline
	}

	tokens := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiry, cfg.Auth.Issuer)
	app.accounts = accounts.NewService(repos.Accounts, tokens, logger)

	eventsSvc := events.NewService(repos.Events, events.Deps{
		Files:                  files,
		Notifier:               notifier,
		Mailer:                 sender,
		Certificates:           certificate.NewGenerator(cfg.Certificates.Issuer),
		Directory:              app.accounts,
		Registrations:          repos.Registrations,
		Photos:                 compressor,
		CertificateConcurrency: cfg.Certificates.Concurrency,
	}, logger)
	registrationsSvc := registrations.NewService(repos.Registrations, registrations.Deps{
		Events:   eventsSvc,
		Accounts: app.accounts,
		Notifier: notifier,
	}, logger)

	// A nil *pgxpool.Pool must not reach the checker as a non-nil interface.
	var healthDB handlers.HealthDB
	if app.pool != nil {
		healthDB = app.pool
	}

	app.router = api.NewRouter(api.Deps{
		Config:        cfg,
		Logger:        logger,
		Tokens:        tokens,
		Accounts:      app.accounts,
		Events:        eventsSvc,
		Registrations: registrationsSvc,
		Health:        handlers.NewHealthChecker(healthDB, app.jobsEnabled(), Version, GitCommit),
		Version:       Version,
		GitCommit:     GitCommit,
		BuildDate:     BuildDate,
	})
	return app, nil
}

func (a *application) openRepositories(ctx context.Context) (storage.Repositories, error) {
	if a.cfg.Database.Driver == config.DatabaseDriverMemory {
		a.logger.Warn().Msg("using in-memory storage; data is lost on restart")
		return storage.Repositories{
			Events:        memory.NewEventRepository(),
			Registrations: memory.NewRegistrationRepository(),
			Accounts:      memory.NewAccountRepository(),
		}, nil
	}

	pool, err := postgres.Open(ctx, a.cfg.Database.URL, a.cfg.Database.MaxConnections)
	if err != nil {
		return storage.Repositories{}, err
	}
	a.pool = pool
	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return storage.Repositories{}, err
	}
	return storage.Repositories{
		Events:        repo.Events(),
		Registrations: repo.Registrations(),
		Accounts:      repo.Accounts(),
	}, nil
}

// jobsEnabled reports whether background work goes through River, which
// needs Postgres.
func (a *application) jobsEnabled() bool {
	return a.cfg.Jobs.Enabled && a.pool != nil
}

// bootstrapAdmin creates the configured administrator when none exists yet.
func (a *application) bootstrapAdmin(ctx context.Context) error {
	bootstrap := a.cfg.AdminBootstrap
	if bootstrap.Email == "" || bootstrap.Password == "" {
		a.logger.Warn().Msg("admin bootstrap env vars not fully set; skipping")
		return nil
	}
	created, err := a.accounts.EnsureAdmin(ctx, bootstrap.Name, bootstrap.Email, bootstrap.Password)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}
	if a.cfg.Environment == "production" {
		a.logger.Info().Msg("bootstrapped admin account")
	} else {
		a.logger.Info().Str("email", bootstrap.Email).Msg("bootstrapped admin account")
	}
	return nil
}

// close stops background work and releases the database. Safe on a partially
// built application.
func (a *application) close(ctx context.Context) {
	if a.router != nil {
		a.router.Close()
	}
	if a.river != nil {
		if err := a.river.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error().Err(err).Msg("river workers shutdown error")
		}
	}
	if a.notifier != nil {
		if err := a.notifier.Wait(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("pending notifications abandoned")
		}
	}
	if a.inline != nil {
		a.inline.Wait()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

func newFileStore(ctx context.Context, cfg config.StorageConfig) (filestore.Store, error) {
	policies := filestore.DefaultPolicies(cfg.MaxUploadBytes, cfg.MaxPhotoBytes)
	if cfg.Driver == config.StorageDriverS3 {
		return filestore.NewS3Store(ctx, filestore.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		}, policies)
	}
	return filestore.NewLocalStore(cfg.LocalRoot, policies)
}

// newRiverLogger gives River a slog logger at the configured level.
func newRiverLogger(cfg config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "console" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

// jobAlert surfaces discarded jobs in the application log.
func jobAlert(logger zerolog.Logger) jobs.AlertFunc {
	logger = logger.With().Str("component", "jobs").Logger()
	return func(_ context.Context, failure jobs.Failure) {
		evt := logger.Warn()
		if failure.Final {
			evt = logger.Error()
		}
		evt.Err(failure.Err).
			Int64("job_id", failure.JobID).
			Str("kind", failure.Kind).
			Str("queue", failure.Queue).
			Int("attempt", failure.Attempt).
			Bool("final", failure.Final).
			Msg("background job failed")
	}
}

const shutdownTimeout = 10 * time.Second
