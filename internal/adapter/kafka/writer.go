package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/radar-archive-locator/internal/config"
	"github.com/couchcryptid/radar-archive-locator/internal/domain"
)

// Writer produces locate results to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured result topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaResultTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes results in a single WriteMessages call.
// Results are keyed by request id so all answers to one id share a partition.
func (w *Writer) LoadBatch(ctx context.Context, results []domain.LocateResult) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(results))
	for i := range results {
		msg, err := serializeToMessage(results[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a LocateResult into a Kafka message.
func serializeToMessage(res domain.LocateResult) (kafkago.Message, error) {
	data, err := json.Marshal(res)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize locate result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(res.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(res.Kind)},
			{Key: "processed_at", Value: []byte(res.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
