// Package main is the entry point for the game price gateway.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jsamuelsen/game-price-gateway/internal/adapters/cache"
	"github.com/jsamuelsen/game-price-gateway/internal/adapters/clients"
	"github.com/jsamuelsen/game-price-gateway/internal/adapters/clients/acl"
	"github.com/jsamuelsen/game-price-gateway/internal/adapters/http"
	"github.com/jsamuelsen/game-price-gateway/internal/adapters/http/handlers"
	"github.com/jsamuelsen/game-price-gateway/internal/app"
	"github.com/jsamuelsen/game-price-gateway/internal/platform/config"
	"github.com/jsamuelsen/game-price-gateway/internal/platform/logging"
	"github.com/jsamuelsen/game-price-gateway/internal/platform/telemetry"
	"github.com/jsamuelsen/game-price-gateway/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// cacheStore is what the gateway needs from a cache backend.
type cacheStore interface {
	ports.Cache
	Close() error
}

func run() error {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 1. Determine profile from environment
	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	// 2. Load and validate configuration (fail fast)
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// 3. Initialize logging
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

	logger.Info("starting gateway",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
		slog.String("price_fetcher", cfg.Services.PriceFetcher.BaseURL),
	)

	// 4. Initialize telemetry (noop if disabled)
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(context.Background()); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	healthRegistry := ports.NewHealthRegistry()

	// 5. Create the upstream HTTP client and the price-fetcher adapter
	httpClient, err := clients.New(&clients.Config{
		UserAgent:           cfg.Client.UserAgent,
		DefaultTimeout:      cfg.Client.Timeout,
		MaxIdleConns:        cfg.Client.Transport.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Client.Transport.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.Client.Transport.IdleConnTimeout,
	})
	if err != nil {
		return fmt.Errorf("creating HTTP client: %w", err)
	}

	priceFetcher := acl.NewPriceFetcherClient(acl.PriceFetcherConfig{
		Client:        httpClient,
		BaseURL:       cfg.Services.PriceFetcher.BaseURL,
		ServiceName:   cfg.Services.PriceFetcher.Name,
		SearchTimeout: cfg.Services.PriceFetcher.SearchTimeout,
		PricesTimeout: cfg.Services.PriceFetcher.PricesTimeout,
		Logger:        logger,
	})

	if err := healthRegistry.Register(priceFetcher); err != nil {
		return fmt.Errorf("registering price fetcher health check: %w", err)
	}

	// 6. Create the search cache; Redis connects in the background
	store, cacheErr, err := newCacheStore(ctx, &cfg.Cache, healthRegistry, logger)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			logger.Error("cache close error", slog.Any("error", closeErr))
		}
	}()

	// 7. Create the game service (application layer)
	gameService := app.NewGameService(app.GameServiceConfig{
		Catalog: priceFetcher,
		Cache:   store,
		Key:     cache.SearchKey,
		TTL:     cfg.Cache.TTL,
		Logger:  logger,
	})

	// 8. Create handlers
	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)
	healthHandler := handlers.NewHealthHandler(healthRegistry, buildInfo, handlers.WithServiceName(cfg.App.Name))
	gamesHandler := handlers.NewGamesHandler(gameService)

	// 9. Create the API server and its router
	server := http.New(&cfg.Server, logger)

	routerCfg := http.NewDefaultRouterConfig(logger, cfg.App.Name, healthHandler, gamesHandler)
	routerCfg.CORS = cfg.CORS
	routerCfg.Timeout = cfg.Server.RequestTimeout
	http.SetupRouter(server.Engine(), routerCfg)

	servers := []*http.Server{server}
	if cfg.Metrics.Enabled {
		servers = append(servers, http.NewMetricsServer(cfg.Server.Host, cfg.Metrics.Port, logger))
	}

	// 10. Start servers (non-blocking)
	serverErrs := make([]<-chan error, 0, len(servers))
	for _, s := range servers {
		serverErrs = append(serverErrs, s.Start())
	}

	// 11. Wait for shutdown signal
	return waitForShutdown(logger, servers, merge(serverErrs...), cacheErr, cfg.Server.ShutdownTimeout)
}

// newCacheStore selects the Redis store or, when caching is disabled, a no-op.
// The returned channel reports a fatal connection failure of a required store.
func newCacheStore(
	ctx context.Context,
	cfg *config.CacheConfig,
	registry ports.HealthRegistry,
	logger *slog.Logger,
) (cacheStore, <-chan error, error) {
	if !cfg.Enabled {
		logger.Info("search cache disabled")
		return cache.NewNoopStore(), nil, nil
	}

	logger.Info("search cache enabled", slog.Any("cache", cfg))

	store := cache.NewRedisStore(cache.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		Password:        cfg.Password,
		DB:              cfg.DB,
		DialTimeout:     cfg.DialTimeout,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ConnectAttempts: cfg.ConnectAttempts,
		ConnectBackoff:  cfg.ConnectBackoff,
		Required:        cfg.Required,
	}, logger)

	if err := registry.Register(store); err != nil {
		return nil, nil, fmt.Errorf("registering cache health check: %w", err)
	}

	logger.Info("connecting to redis",
		slog.String("addr", cfg.Addr()),
		slog.Bool("required", cfg.Required),
	)

	return store, store.Connect(ctx), nil
}

// merge fans the server error channels into one that closes when all do.
func merge(chans ...<-chan error) <-chan error {
	out := make(chan error, len(chans))
	remaining := make(chan struct{}, len(chans))

	for _, ch := range chans {
		go func() {
			for err := range ch {
				out <- err
			}
			remaining <- struct{}{}
		}()
	}

	go func() {
		for range chans {
			<-remaining
		}
		close(out)
	}()

	return out
}

// waitForShutdown blocks until a shutdown signal, a server error or a fatal
// cache error, then gracefully stops every server.
func waitForShutdown(
	logger *slog.Logger,
	servers []*http.Server,
	serverErr <-chan error,
	cacheErr <-chan error,
	shutdownTimeout time.Duration,
) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var cause error

	for cause == nil {
		select {
		case err := <-serverErr:
			cause = fmt.Errorf("server error: %w", err)

		case err, ok := <-cacheErr:
			if !ok {
				// Connection loop finished without a fatal error.
				cacheErr = nil
				continue
			}

			cause = fmt.Errorf("cache unavailable: %w", err)

		case sig := <-quit:
			logger.Info("received shutdown signal", slog.String("signal", sig.String()))

			return shutdown(logger, servers, shutdownTimeout)
		}
	}

	logger.Error("stopping gateway", slog.Any("error", cause))

	if err := shutdown(logger, servers, shutdownTimeout); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	return cause
}

func shutdown(logger *slog.Logger, servers []*http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	logger.Info("initiating graceful shutdown", slog.Duration("timeout", timeout))

	// Stop accepting new requests, drain in-flight
	for _, s := range servers {
		if err := s.Shutdown(ctx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
	}

	logger.Info("shutdown complete")

	return nil
}
