package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/quake-map-explorer/internal/config"
	"github.com/couchcryptid/quake-map-explorer/internal/domain"
)

// publishBatch bounds one WriteMessages call.
const publishBatch = 500

// Writer publishes catalog records to the catalog topic.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured catalog topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaCatalogTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishCatalog serializes the catalog's events and writes them in batches,
// keyed by event ID so a republished catalog replaces the previous records.
func (w *Writer) PublishCatalog(ctx context.Context, c domain.Catalog, now time.Time) error {
	events := c.Events()
	for start := 0; start < len(events); start += publishBatch {
		end := min(start+publishBatch, len(events))
		msgs := make([]kafkago.Message, 0, end-start)
		for _, e := range events[start:end] {
			msg, err := serializeToMessage(e, now)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("publish catalog records %d-%d: %w", start, end, err)
		}
	}
	w.logger.Info("catalog published", "events", len(events), "topic", w.writer.Topic)
	return nil
}

// Close flushes and releases the producer.
func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an Event into a Kafka message.
func serializeToMessage(e domain.Event, now time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize event %s: %w", e.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(e.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "content_type", Value: []byte("application/json")},
			{Key: "published_at", Value: []byte(now.UTC().Format(time.RFC3339))},
		},
	}, nil
}
