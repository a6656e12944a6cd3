// Package main is the entry point for the quotesync service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/jsamuelsen/quotesync/internal/adapters/clients"
	"github.com/jsamuelsen/quotesync/internal/adapters/clients/acl"
	"github.com/jsamuelsen/quotesync/internal/adapters/events"
	"github.com/jsamuelsen/quotesync/internal/adapters/http"
	"github.com/jsamuelsen/quotesync/internal/adapters/http/handlers"
	"github.com/jsamuelsen/quotesync/internal/adapters/memory"
	"github.com/jsamuelsen/quotesync/internal/adapters/sqlite"
	"github.com/jsamuelsen/quotesync/internal/app"
	"github.com/jsamuelsen/quotesync/internal/platform/config"
	"github.com/jsamuelsen/quotesync/internal/platform/logging"
	"github.com/jsamuelsen/quotesync/internal/platform/telemetry"
	"github.com/jsamuelsen/quotesync/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD)"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. Configuration (fail fast)
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.LoadFrom(configDir(), profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 2. Logging
	logger := logging.New(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	logging.SetDefault(logger)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("store", cfg.Store.Driver),
	)

	// 3. Telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		Insecure:     cfg.Telemetry.Insecure,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	healthRegistry := ports.NewHealthRegistry()

	// 4. Persistence
	store, closeStore, err := openStore(ctx, &cfg.Store, logger)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := closeStore(); closeErr != nil {
			logger.Error("closing store", slog.Any("error", closeErr))
		}
	}()

	if err := healthRegistry.Register(store); err != nil {
		return fmt.Errorf("registering store health check: %w", err)
	}

	// 5. Remote source (ACL over the resilient client)
	httpClient, err := clients.New(&clients.Config{
		BaseURL:     cfg.Remote.BaseURL,
		ServiceName: cfg.Remote.Name,
		UserAgent:   cfg.App.Name + "/" + Version,
		Timeout:     cfg.Client.Timeout,
		Retry:       cfg.Client.Retry,
		Circuit:     cfg.Client.CircuitBreaker,
		Transport:   cfg.Client.Transport,
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}

	remote, err := acl.NewRemoteQuoteSource(acl.RemoteSourceConfig{
		Client:     httpClient,
		Name:       cfg.Remote.Name,
		FetchLimit: cfg.Remote.FetchLimit,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("creating remote source: %w", err)
	}

	if err := healthRegistry.Register(remote); err != nil {
		return fmt.Errorf("registering remote health check: %w", err)
	}

	// 6. Application layer
	collection := app.NewCollection(app.CollectionConfig{Store: store, Logger: logger})
	if err := collection.Load(ctx); err != nil {
		return fmt.Errorf("loading collection: %w", err)
	}

	quoteService := app.NewQuoteService(app.QuoteServiceConfig{
		Collection:    collection,
		Remote:        remote,
		SubmitEnabled: cfg.Remote.SubmitEnabled,
		SubmitTimeout: cfg.Remote.SubmitTimeout,
		Logger:        logger,
	})

	inbox := events.NewInbox(logger)

	coordinator, err := app.NewSyncCoordinator(app.SyncCoordinatorConfig{
		Collection:   collection,
		Remote:       remote,
		Events:       inbox,
		Logger:       logger,
		FetchTimeout: cfg.Sync.FetchTimeout,
	})
	if err != nil {
		return fmt.Errorf("creating sync coordinator: %w", err)
	}

	err = prometheus.DefaultRegisterer.Register(telemetry.NewSyncCollector(func() telemetry.SyncSnapshot {
		status := coordinator.Status()

		return telemetry.SyncSnapshot{
			State:           string(status.State),
			ConflictPending: status.Conflict != nil,
			QuoteCount:      collection.Len(),
		}
	}))
	if err != nil {
		return fmt.Errorf("registering sync metrics: %w", err)
	}

	// 7. HTTP
	server := http.New(&cfg.Server, logger)
	http.SetupRouter(server.Engine(), http.RouterConfig{
		Logger:      logger,
		ServiceName: cfg.Telemetry.ServiceName,
		Timeout:     cfg.Server.RequestTimeout,
		Health:      handlers.NewHealthHandler(healthRegistry, handlers.NewBuildInfo(Version, Commit, BuildTime), nil),
		Quotes:      handlers.NewQuoteHandler(quoteService),
		Sync:        handlers.NewSyncHandler(coordinator, inbox),
	})

	// 8. Run until a signal or the first failure
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return server.Run(gctx) })

	if cfg.Sync.Enabled {
		g.Go(func() error { return coordinator.Run(gctx, cfg.Sync.Interval, cfg.Sync.SyncOnStart) })
	}

	err = g.Wait()

	logger.Info("waiting for background submissions")
	quoteService.Wait()

	if err != nil {
		return fmt.Errorf("service stopped: %w", err)
	}

	logger.Info("shutdown complete")

	return nil
}

// storeBackend is what the service needs from either store driver.
type storeBackend interface {
	ports.QuoteStore
	ports.HealthChecker
}

func openStore(ctx context.Context, cfg *config.StoreConfig, logger *slog.Logger) (storeBackend, func() error, error) {
	if cfg.Driver == config.StoreDriverMemory {
		return memory.NewStore(), func() error { return nil }, nil
	}

	store, err := sqlite.Open(ctx, cfg.Path, sqlite.Options{BusyTimeout: cfg.BusyTimeout, Logger: logger})
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}

	return store, store.Close, nil
}

func configDir() string {
	if dir := os.Getenv("APP_CONFIG_DIR"); dir != "" {
		return dir
	}

	return "configs"
}
