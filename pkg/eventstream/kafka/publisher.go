// Package kafka publishes mutation events to a Kafka topic via kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/eventstream"
)

// Publisher writes mutation events to a Kafka topic, keyed by project id so
// events for one project land on one partition in order.
type Publisher struct {
	writer *kafkago.Writer
	logger *zap.Logger
}

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of bootstrap broker addresses.
	Brokers []string

	// Topic is the topic mutation events are written to.
	Topic string
}

// NewPublisher creates a Kafka-backed eventstream publisher.
func NewPublisher(c Config, logger *zap.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}
	if c.Topic == "" {
		return nil, fmt.Errorf("kafka topic is required")
	}

	writer := &kafkago.Writer{
		Addr:     kafkago.TCP(c.Brokers...),
		Topic:    c.Topic,
		Balancer: &kafkago.Hash{},
	}

	logger.Info("kafka event publisher initialized",
		zap.Strings("brokers", c.Brokers),
		zap.String("topic", c.Topic),
	)

	return &Publisher{
		writer: writer,
		logger: logger,
	}, nil
}

// Publish writes the event to the configured topic.
func (p *Publisher) Publish(ctx context.Context, event *eventstream.MutationEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.ProjectID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("writing event %s: %w", event.EventID, err)
	}

	p.logger.Debug("published mutation event",
		zap.String("event_type", event.EventType),
		zap.String("project_id", event.ProjectID),
	)

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
