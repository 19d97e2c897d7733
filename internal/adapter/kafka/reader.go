package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/quake-map-explorer/internal/config"
	"github.com/couchcryptid/quake-map-explorer/internal/domain"
	"github.com/couchcryptid/quake-map-explorer/internal/observability"
)

// fetcher is the part of kafkago.Reader the catalog load uses.
type fetcher interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	Close() error
}

// Reader loads the catalog snapshot published on the catalog topic.
// Offsets are never committed, so every start replays the whole topic.
type Reader struct {
	reader  fetcher
	idle    time.Duration
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewReader creates a consumer for the configured catalog topic.
func NewReader(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.KafkaBrokers,
		Topic:       cfg.KafkaCatalogTopic,
		GroupID:     cfg.KafkaGroupID,
		StartOffset: kafkago.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	return &Reader{reader: r, idle: cfg.KafkaReadTimeout, metrics: metrics, logger: logger}
}

// ReadCatalog consumes records until the topic has been idle for the read
// timeout. Records sharing a message key replace earlier ones in place.
// Undecodable records are skipped.
func (r *Reader) ReadCatalog(ctx context.Context) ([]domain.Event, error) {
	var events []domain.Event
	byKey := make(map[string]int)

	for {
		fetchCtx, cancel := context.WithTimeout(ctx, r.idle)
		msg, err := r.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				r.logger.Info("catalog feed idle", "events", len(events), "idle", r.idle)
				return events, nil
			}
			return nil, fmt.Errorf("fetch catalog record: %w", err)
		}

		r.metrics.RecordsConsumed.Inc()
		e, err := decodeMessage(msg)
		if err != nil {
			r.metrics.RecordsSkipped.Inc()
			r.logger.Warn("skipping catalog record",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
			continue
		}

		if key := string(msg.Key); key != "" {
			if i, ok := byKey[key]; ok {
				events[i] = e
				continue
			}
			byKey[key] = len(events)
		}
		events = append(events, e)
	}
}

// Close releases the consumer.
func (r *Reader) Close() error {
	return r.reader.Close()
}

func decodeMessage(msg kafkago.Message) (domain.Event, error) {
	var e domain.Event
	if err := json.Unmarshal(msg.Value, &e); err != nil {
		return domain.Event{}, fmt.Errorf("decode catalog record: %w", err)
	}
	// Catalog IDs are reassigned on load.
	e.ID = ""
	return e, nil
}
