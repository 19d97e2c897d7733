// Command publish loads a catalog file and writes it to the Kafka catalog
// topic, where explorer instances started with CATALOG_SOURCE=kafka pick it up.
//
// Usage:
//
//	KAFKA_BROKERS=localhost:9092 go run ./cmd/publish -source sqlite -path data/quakes.db
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	kafkaadapter "github.com/couchcryptid/quake-map-explorer/internal/adapter/kafka"
	"github.com/couchcryptid/quake-map-explorer/internal/catalog"
	"github.com/couchcryptid/quake-map-explorer/internal/config"
	"github.com/couchcryptid/quake-map-explorer/internal/domain"
	"github.com/couchcryptid/quake-map-explorer/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	source := flag.String("source", config.SourceCSV, "catalog file format: csv or sqlite")
	path := flag.String("path", cfg.CatalogPath, "catalog file to publish")
	flag.Parse()

	logger := observability.NewLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *source, *path, logger); err != nil {
		logger.Error("publish failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, source, path string, logger *slog.Logger) error {
	var (
		events []domain.Event
		report catalog.LoadReport
		err    error
	)
	switch source {
	case config.SourceCSV:
		events, report, err = catalog.LoadCSVFile(path)
	case config.SourceSQLite:
		events, report, err = catalog.LoadSQLite(ctx, path)
	default:
		return fmt.Errorf("unsupported source %q: must be csv or sqlite", source)
	}
	if err != nil {
		return err
	}
	logger.Info("catalog loaded", "path", path, "rows", report.Rows, "loaded", report.Loaded, "dropped", report.Dropped)

	w := kafkaadapter.NewWriter(cfg, logger)
	defer func() {
		if err := w.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}()
	return w.PublishCatalog(ctx, domain.NewCatalog(events), time.Now())
}
