package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"bizbridge/gateway/pkg/accounts"
	"bizbridge/gateway/pkg/artifacts"
	"bizbridge/gateway/pkg/auth"
	"bizbridge/gateway/pkg/config"
	"bizbridge/gateway/pkg/maintenance"
	"bizbridge/gateway/pkg/orchestrator"
	"bizbridge/gateway/pkg/session"
	"bizbridge/gateway/pkg/telemetry/health"
	"bizbridge/gateway/pkg/telemetry/logging"
	"bizbridge/gateway/pkg/telemetry/metrics"
	"bizbridge/gateway/pkg/telemetry/tracing"
	"bizbridge/gateway/pkg/upstream"
)

// AppOptions customizes NewApp. The zero value builds everything from the
// configuration.
type AppOptions struct {
	// Version is reported as the service version on spans and /version.
	Version string

	// Commit and BuildDate are reported on /version.
	Commit    string
	BuildDate string

	// Logger replaces the logger built from the configuration.
	Logger *logging.Logger

	// HTTPClient replaces the upstream client built from the configuration.
	// It is also used for token bootstrap and remote image fetches.
	HTTPClient *http.Client

	// Registry receives the gateway metrics. Defaults to a fresh registry.
	Registry *prometheus.Registry
}

// App holds the wired collaborators of one gateway process.
type App struct {
	Config       *config.Config
	Logger       *logging.Logger
	Metrics      *metrics.Collector
	Tracer       *tracing.Tracer
	Pool         *accounts.Pool
	Upstream     *upstream.Gateway
	Sessions     *session.Cache
	Chats        *session.Registry
	Artifacts    *artifacts.Store
	Orchestrator *orchestrator.Orchestrator
	Scheduler    *maintenance.Scheduler
	Health       *health.Checker
	Build        health.VersionInfo
}

// NewApp builds every collaborator from cfg. The returned App must be
// closed to flush spans and release the artifact catalog.
func NewApp(cfg *config.Config, opts AppOptions) (*App, error) {
	app := &App{
		Config: cfg,
		Build:  health.VersionInfo{Version: opts.Version, Commit: opts.Commit, BuildDate: opts.BuildDate},
	}

	app.Logger = opts.Logger
	if app.Logger == nil {
		logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging, os.Stderr))
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		app.Logger = logger
	}
	logger := app.Logger.Logger

	app.Metrics = metrics.NewCollector(&cfg.Telemetry.Metrics, opts.Registry)

	tracer, err := tracing.New(&cfg.Telemetry.Tracing, opts.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}
	app.Tracer = tracer

	client := opts.HTTPClient
	if client == nil {
		if client, err = upstream.NewHTTPClient(cfg.Upstream); err != nil {
			_ = app.Close(context.Background())
			return nil, err
		}
	}

	app.Pool, err = accounts.Load(cfg.Accounts, auth.IssuerOptions{
		AuthBaseURL: cfg.Upstream.AuthBaseURL,
		UserAgent:   cfg.Upstream.UserAgent,
		HTTPClient:  client,
		OnRefresh:   app.Metrics.RecordTokenRefresh,
	})
	if err != nil {
		_ = app.Close(context.Background())
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	app.Upstream, err = upstream.New(cfg.Upstream, upstream.Options{
		HTTPClient: client,
		Metrics:    app.Metrics,
		Tracer:     app.Tracer,
		Logger:     logger,
	})
	if err != nil {
		_ = app.Close(context.Background())
		return nil, fmt.Errorf("failed to create upstream gateway: %w", err)
	}

	app.Sessions = session.NewCache(cfg.Session.TTL)
	if app.Chats, err = session.NewRegistry(cfg.Session.ChatRegistrySize); err != nil {
		_ = app.Close(context.Background())
		return nil, err
	}

	catalog, err := artifacts.OpenCatalog(cfg.Artifacts.Catalog)
	if err != nil {
		_ = app.Close(context.Background())
		return nil, err
	}
	app.Artifacts, err = artifacts.NewStore(cfg.Artifacts.Dir, cfg.Server.BaseURL, catalog, artifacts.Options{
		Metrics: app.Metrics,
		Logger:  logger,
	})
	if err != nil {
		_ = catalog.Close()
		_ = app.Close(context.Background())
		return nil, err
	}

	app.Orchestrator, err = orchestrator.New(orchestrator.Options{
		Upstream:    app.Upstream,
		Pool:        app.Pool,
		Cache:       app.Sessions,
		Registry:    app.Chats,
		Artifacts:   app.Artifacts,
		Models:      cfg.Models,
		Config:      cfg.Orchestrator,
		ImageClient: client,
		Metrics:     app.Metrics,
		Tracer:      app.Tracer,
		Logger:      logger,
	})
	if err != nil {
		_ = app.Close(context.Background())
		return nil, err
	}

	app.Scheduler = maintenance.NewScheduler(logger)
	jobs := []maintenance.Job{
		maintenance.SessionSweep(app.Sessions, cfg.Session.SweepSchedule, app.Metrics),
	}
	if cfg.Artifacts.Retention.MaxAge > 0 {
		jobs = append(jobs, maintenance.ArtifactRetention(app.Artifacts, cfg.Artifacts.Retention.Schedule, cfg.Artifacts.Retention.MaxAge))
	}
	for _, job := range jobs {
		if err := app.Scheduler.Add(job); err != nil {
			_ = app.Close(context.Background())
			return nil, fmt.Errorf("failed to schedule %s: %w", job.Name, err)
		}
	}

	app.Health = health.New(cfg.Server.ReadinessTimeout)
	app.Health.RegisterCheck("accounts", health.AccountsCheck(app.Pool))
	app.Health.RegisterCheck("artifact_dir", health.DirCheck(app.Artifacts.Dir()))
	app.Health.RegisterCheck("artifact_catalog", func(ctx context.Context) error {
		_, err := app.Artifacts.Catalog().ByChat(ctx, "")
		return err
	})
	app.Health.RegisterCheck("scheduler", health.RunningCheck(app.Scheduler))

	logger.Info("gateway assembled",
		"accounts", app.Pool.Len(),
		"models", len(app.Orchestrator.Models()),
		"artifact_dir", app.Artifacts.Dir(),
		"catalog", cfg.Artifacts.Catalog.Backend,
	)
	return app, nil
}

// Close stops background jobs, releases the artifact catalog and flushes
// pending spans. It is safe to call on a partially built App.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Artifacts != nil {
		if err := a.Artifacts.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close artifact store: %w", err))
		}
	}
	if err := a.Tracer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown tracer: %w", err))
	}
	return errors.Join(errs...)
}
