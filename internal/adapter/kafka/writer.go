// Package kafka publishes finished tour plans to a sink topic for
// downstream consumers. Publishing is optional; the pipeline runs without
// it when no brokers are configured.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/park-tour-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces tour plan messages to a Kafka topic.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishPlan serializes and publishes a tour plan. The deterministic plan
// ID is the message key, so replayed runs land on the same partition and
// downstream upserts stay idempotent.
func (w *Writer) PublishPlan(ctx context.Context, plan domain.TourPlan) error {
	msg, err := serializeToMessage(plan)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish tour plan %s: %w", plan.ID, err)
	}
	w.logger.Info("tour plan published", "plan_id", plan.ID, "tours", len(plan.Tours))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a TourPlan into a Kafka message.
func serializeToMessage(plan domain.TourPlan) (kafkago.Message, error) {
	data, err := json.Marshal(plan)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize tour plan: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(plan.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "tour_count", Value: []byte(strconv.Itoa(len(plan.Tours)))},
			{Key: "generated_at", Value: []byte(plan.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
