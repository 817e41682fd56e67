// Package kafka publishes the country-scoped latest snapshot to a Kafka
// topic, one message per country. Downstream dashboards key on location, so
// a compacted topic always holds each country's most recent reading.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/pinemarten/covid-trends-etl/internal/domain"
)

// Publisher produces snapshot messages to a Kafka topic. It satisfies the
// pipeline's sink interface.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a producer for the given brokers and topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		// A failed run is rerun end to end rather than retried per message.
		MaxAttempts: 1,
	}
	return &Publisher{writer: w, logger: logger}
}

// Name identifies this sink in logs and metrics.
func (p *Publisher) Name() string { return "kafka" }

// Store publishes every row of the latest snapshot in a single WriteMessages
// call. Either all messages are acked or the run fails.
func (p *Publisher) Store(ctx context.Context, run domain.RunMeta, a domain.Analysis) error {
	if len(a.Latest.Rows) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(a.Latest.Rows))
	for i, rec := range a.Latest.Rows {
		msg, err := serializeToMessage(run, a.Latest.Date, rec)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	p.logger.Info("snapshot published", "topic", p.writer.Topic,
		"messages", len(msgs), "snapshot_date", a.Latest.Date.Format("2006-01-02"))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals one snapshot row into a Kafka message keyed by
// location.
func serializeToMessage(run domain.RunMeta, date time.Time, rec domain.Record) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot row %s: %w", rec.Location, err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Location),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(run.ID)},
			{Key: "snapshot_date", Value: []byte(date.Format("2006-01-02"))},
			{Key: "started_at", Value: []byte(run.StartedAt.Format(time.RFC3339))},
		},
	}, nil
}
