package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/store-locator-etl/internal/adapter/csvfile"
	httpadapter "github.com/couchcryptid/store-locator-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/store-locator-etl/internal/adapter/kafka"
	"github.com/couchcryptid/store-locator-etl/internal/adapter/mapbox"
	"github.com/couchcryptid/store-locator-etl/internal/adapter/postgres"
	"github.com/couchcryptid/store-locator-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/store-locator-etl/internal/adapter/xlsx"
	"github.com/couchcryptid/store-locator-etl/internal/config"
	"github.com/couchcryptid/store-locator-etl/internal/domain"
	"github.com/couchcryptid/store-locator-etl/internal/fetch"
	"github.com/couchcryptid/store-locator-etl/internal/observability"
	"github.com/couchcryptid/store-locator-etl/internal/pipeline"
	"github.com/couchcryptid/store-locator-etl/internal/report"
	"github.com/couchcryptid/store-locator-etl/internal/source"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("failed to read .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, metrics); err != nil {
		logger.Error("etl failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) error {
	resolver := fetch.NewResolver(fetch.ResolverOptions{
		UserAgent: cfg.FetchUserAgent,
		Timeout:   cfg.FetchTimeout,
		CacheSize: cfg.ResolverCacheSize,
		OnCache: func(result string) {
			metrics.ResolverCache.WithLabelValues(result).Inc()
		},
	}, logger)

	var fetcher fetch.Fetcher
	if cfg.FetchDir != "" {
		fetcher = fetch.NewDirFetcher(cfg.FetchDir)
		logger.Info("replaying snapshots", "dir", cfg.FetchDir)
	} else {
		fetcher = fetch.NewHTTPFetcher(fetch.HTTPOptions{
			UserAgent:  cfg.FetchUserAgent,
			Timeout:    cfg.FetchTimeout,
			MaxRetries: cfg.FetchMaxRetries,
			Rate:       cfg.FetchRate,
		}, logger)
	}

	registry := source.Default(source.Env{
		Logger:   logger,
		Resolver: resolver,
		OnSkip: func(name string) {
			metrics.ItemsSkipped.WithLabelValues(name).Inc()
		},
	})
	sources, err := pipeline.Sources(registry, cfg.Sources, cfg.Catalog)
	if err != nil {
		return err
	}

	// Geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	loaders, closers, err := buildLoaders(ctx, cfg, logger)
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				logger.Error("loader close error", "error", err)
			}
		}
	}()
	if err != nil {
		return err
	}

	p := pipeline.New(sources, fetcher, pipeline.NewLabeler(geocoder, logger, metrics), loaders, logger, metrics)

	if cfg.Schedule == "" {
		summary, err := p.RunOnce(ctx)
		if err != nil {
			return err
		}
		if len(summary.LoadErrors) > 0 {
			return errors.New("one or more loaders failed")
		}
		return nil
	}

	return serve(ctx, cfg, p, logger)
}

func buildLoaders(ctx context.Context, cfg *config.Config, logger *slog.Logger) ([]pipeline.Loader, []io.Closer, error) {
	loaders := []pipeline.Loader{csvfile.NewSink(cfg.OutputDir, logger)}
	var closers []io.Closer

	if cfg.XLSXEnabled {
		loaders = append(loaders, xlsx.NewSink(cfg.OutputDir, logger))
	}
	if cfg.ReportEnabled {
		loaders = append(loaders, report.NewSink(cfg.OutputDir, logger))
	}
	if cfg.SQLitePath != "" {
		store, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, closers, err
		}
		loaders = append(loaders, store)
		closers = append(closers, store)
	}
	if cfg.PostgresDSN != "" {
		sink, err := postgres.Connect(ctx, cfg.PostgresDSN, logger)
		if err != nil {
			return nil, closers, err
		}
		loaders = append(loaders, sink)
		closers = append(closers, sink)
	}
	if cfg.KafkaEnabled {
		writer := kafkaadapter.NewWriter(cfg, logger)
		loaders = append(loaders, writer)
		closers = append(closers, writer)
	}
	return loaders, closers, nil
}

func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger) error {
	lastRun := func() (any, bool) { return p.LastRun() }
	srv := httpadapter.NewServer(cfg.HTTPAddr, p, lastRun, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	err := p.RunScheduled(ctx, cfg.Schedule)
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Error("http server shutdown error", "error", shutdownErr)
	}

	logger.Info("shutdown complete")
	return err
}
