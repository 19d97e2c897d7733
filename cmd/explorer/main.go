package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	httpadapter "github.com/couchcryptid/quake-map-explorer/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/quake-map-explorer/internal/adapter/kafka"
	"github.com/couchcryptid/quake-map-explorer/internal/adapter/mapbox"
	"github.com/couchcryptid/quake-map-explorer/internal/catalog"
	"github.com/couchcryptid/quake-map-explorer/internal/config"
	"github.com/couchcryptid/quake-map-explorer/internal/domain"
	"github.com/couchcryptid/quake-map-explorer/internal/explorer"
	"github.com/couchcryptid/quake-map-explorer/internal/observability"
)

const slowRequest = 500 * time.Millisecond

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		cached, err := mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		if err != nil {
			logger.Error("failed to create geocoder cache", "error", err)
			os.Exit(1)
		}
		geocoder = cached
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	basemaps, err := catalog.LoadBasemaps(cfg.BasemapWorldPath, cfg.BasemapNAPath)
	if err != nil {
		logger.Error("failed to load basemaps", "error", err)
		os.Exit(1)
	}
	basemaps.Plates = catalog.LoadPlates(cfg.BasemapPlatesPath, logger)

	registry := explorer.NewRegistry(explorer.Options{
		Width:    cfg.ViewportWidth,
		Height:   cfg.ViewportHeight,
		Exponent: cfg.RadiusZoomExponent,
		Basemaps: basemaps,
		Logger:   logger,
		Metrics:  metrics,
	}, cfg.MaxSessions)

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:           cfg.HTTPAddr,
		AllowedOrigins: cfg.AllowedOrigins,
		SlowRequest:    slowRequest,
	}, registry, registry, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	// Start HTTP server. /readyz reports 503 until the catalog is installed.
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// Drive session animations.
	g.Go(func() error {
		registry.Run(gctx, cfg.FrameInterval)
		return nil
	})

	// Load the catalog.
	g.Go(func() error {
		events, err := loadCatalog(gctx, cfg, metrics, logger)
		if err != nil {
			return err
		}
		if n := catalog.EnrichPlaces(gctx, events, geocoder, logger); n > 0 {
			logger.Info("places resolved", "count", n)
		}
		registry.SetCatalog(domain.NewCatalog(events))
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("explorer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

// loadCatalog reads the raw events from the configured source.
func loadCatalog(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) ([]domain.Event, error) {
	var (
		events []domain.Event
		report catalog.LoadReport
		err    error
	)
	switch cfg.CatalogSource {
	case config.SourceSQLite:
		events, report, err = catalog.LoadSQLite(ctx, cfg.CatalogPath)
	case config.SourceKafka:
		reader := kafkaadapter.NewReader(cfg, metrics, logger)
		defer func() {
			if err := reader.Close(); err != nil {
				logger.Error("kafka reader close error", "error", err)
			}
		}()
		return reader.ReadCatalog(ctx)
	default:
		events, report, err = catalog.LoadCSVFile(cfg.CatalogPath)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s catalog: %w", cfg.CatalogSource, err)
	}

	metrics.RecordsConsumed.Add(float64(report.Rows))
	metrics.RecordsSkipped.Add(float64(report.Dropped))
	logger.Info("catalog loaded",
		"source", cfg.CatalogSource,
		"path", cfg.CatalogPath,
		"rows", report.Rows,
		"loaded", report.Loaded,
		"dropped", report.Dropped,
		"missing_time", report.MissingTime,
	)
	return events, nil
}
