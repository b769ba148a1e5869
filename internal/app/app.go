// Package app provides application initialization and wiring.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dronedb/ddb/internal/adapters/artifactcache"
	"github.com/dronedb/ddb/internal/adapters/hashutil"
	"github.com/dronedb/ddb/internal/adapters/metrics"
	"github.com/dronedb/ddb/internal/adapters/remote"
	tlsAdapter "github.com/dronedb/ddb/internal/adapters/tls"
	"github.com/dronedb/ddb/internal/adapters/watcher"
	"github.com/dronedb/ddb/internal/application"
	"github.com/dronedb/ddb/internal/config"
	"github.com/dronedb/ddb/internal/ports/input"
	"github.com/dronedb/ddb/internal/ports/output"

	httpServer "github.com/dronedb/ddb/internal/adapters/http"
)

// App holds all application components wired for `ddb serve`.
type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Opener        *application.Opener
	Tree          input.WorkingTree
	Artifacts     *application.Artifacts
	HealthService *application.HealthService
	PullService   *application.PullService
	HTTPServer    *httpServer.Server
	TLSServer     *tlsAdapter.Server
	Watcher       *watcher.Watcher
	Metrics       *metrics.Collector
	MetricsServer *metrics.Server
}

// New creates and initializes a new application against an already
// initialized working tree at cfg.Index.Root.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if cfg.Metrics.Enabled {
		app.Metrics = metrics.NewCollector("ddb")
		app.MetricsServer = metrics.NewServer(
			cfg.Metrics.Port,
			cfg.Metrics.Path,
			logger,
		)
	}

	var metricsCollector output.MetricsCollector
	if app.Metrics != nil {
		metricsCollector = app.Metrics
	} else {
		metricsCollector = &output.NoOpMetrics{}
	}

	app.Opener = application.NewOpener(metricsCollector, logger)

	tree, err := app.Opener.OpenWorkingTree(ctx, cfg.Index.Root, true)
	if err != nil {
		return nil, fmt.Errorf("opening working tree: %w", err)
	}
	app.Tree = tree

	app.HealthService = application.NewHealthService(app.Tree)

	hasher := hashutil.NewHasher()
	cache := artifactcache.New(app.Tree.Root())
	app.Artifacts = application.NewArtifacts(app.Tree.Root(), cache, hasher, metricsCollector, logger)

	app.HTTPServer = httpServer.NewServer(
		cfg.Server,
		app.Tree,
		app.HealthService,
		logger,
	)

	if cfg.TLS.Enabled {
		tlsServer, err := tlsAdapter.NewServer(
			tlsAdapter.Config{
				Enabled:  cfg.TLS.Enabled,
				Domains:  cfg.TLS.Domains,
				Email:    cfg.TLS.Email,
				CacheDir: cfg.TLS.CacheDir,
				Staging:  cfg.TLS.Staging,
			},
			app.HTTPServer.Router(),
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("initializing TLS: %w", err)
		}
		app.TLSServer = tlsServer
	}

	if cfg.Remote.Type != "" {
		objStorage, err := initRemoteStorage(ctx, cfg.Remote)
		if err != nil {
			return nil, fmt.Errorf("initializing remote storage: %w", err)
		}
		app.PullService = application.NewPullService(objStorage, app.Tree, app.Tree.Root(), 0, logger)
	}

	if cfg.Watcher.Enabled {
		w, err := watcher.New(
			watcher.Config{
				Paths:    []string{cfg.Index.Root},
				Debounce: cfg.Watcher.DebounceDelay,
			},
			app.handleFileEvent,
			logger,
		)
		if err != nil {
			logger.Warn("failed to initialize file watcher", "error", err)
		} else {
			app.Watcher = w
		}
	}

	return app, nil
}

// Start starts all application components.
func (a *App) Start(ctx context.Context) error {
	if a.Watcher != nil {
		if err := a.Watcher.Start(ctx); err != nil {
			a.Logger.Warn("failed to start file watcher", "error", err)
		}
	}

	if a.PullService != nil {
		a.PullService.Start(ctx)
	}

	if a.MetricsServer != nil {
		go func() {
			if err := a.MetricsServer.Start(); err != nil {
				a.Logger.Error("metrics server error", "error", err)
			}
		}()
	}

	if a.Config.TLS.Enabled && a.TLSServer != nil {
		return a.TLSServer.ListenAndServe(a.Config.Server.Address())
	}
	return a.HTTPServer.Start()
}

// Shutdown gracefully shuts down all components.
func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("shutting down application")

	if a.Watcher != nil {
		_ = a.Watcher.Stop()
	}

	if a.PullService != nil {
		a.PullService.Stop()
	}

	if a.MetricsServer != nil {
		if err := a.MetricsServer.Shutdown(ctx); err != nil {
			a.Logger.Error("metrics server shutdown error", "error", err)
		}
	}

	if err := a.HTTPServer.Shutdown(ctx); err != nil {
		a.Logger.Error("HTTP server shutdown error", "error", err)
	}

	if a.Tree != nil {
		if err := a.Tree.Close(); err != nil {
			a.Logger.Error("failed to close working tree", "error", err)
		}
	}

	return nil
}

// handleFileEvent handles file system events for hot-reload by
// incrementally re-adding the changed path to the index.
func (a *App) handleFileEvent(ctx context.Context, event watcher.Event) error {
	a.Logger.Info("file event", "path", event.Path, "operation", event.Operation.String())

	switch event.Operation {
	case watcher.OpCreate, watcher.OpModify:
		return a.Tree.AddToIndex(ctx, []string{event.Path}, nil)

	case watcher.OpDelete:
		_, err := a.Tree.RemoveFromIndex(ctx, []string{event.Path}, nil)
		return err
	}

	return nil
}

// initRemoteStorage initializes the appropriate remote object storage
// adapter for `ddb pull`.
func initRemoteStorage(ctx context.Context, cfg config.RemoteConfig) (output.ObjectStorage, error) {
	switch cfg.Type {
	case "local":
		return remote.NewLocalStorage(cfg.LocalPath), nil

	case "s3":
		return remote.NewS3Storage(ctx, remote.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})

	case "azure":
		return remote.NewAzureStorage(remote.AzureConfig{
			Container:        cfg.Azure.Container,
			AccountName:      cfg.Azure.AccountName,
			AccountKey:       cfg.Azure.AccountKey,
			ConnectionString: cfg.Azure.ConnectionString,
			Prefix:           cfg.Azure.Prefix,
		})

	case "http":
		return remote.NewHTTPStorage(remote.HTTPConfig{
			BaseURL:   cfg.HTTP.BaseURL,
			IndexFile: cfg.HTTP.IndexFile,
			Timeout:   cfg.HTTP.Timeout,
			Username:  cfg.HTTP.Username,
			Password:  cfg.HTTP.Password,
		}), nil

	default:
		return nil, fmt.Errorf("unknown remote storage type: %s", cfg.Type)
	}
}
