package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/user/seo-audit-service/internal/entity"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventPublisher writes audit lifecycle events to a Kafka topic, keyed by job id.
type EventPublisher struct {
	writer messageWriter
}

// NewEventPublisher creates a publisher for the given brokers and topic.
func NewEventPublisher(brokers []string, topic string) *EventPublisher {
	return &EventPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}
}

// NewEventPublisherWithWriter builds a publisher using a custom writer (tests).
func NewEventPublisherWithWriter(writer messageWriter) *EventPublisher {
	return &EventPublisher{writer: writer}
}

// Publish sends one event.
func (p *EventPublisher) Publish(ctx context.Context, event entity.AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.JobID),
		Value: payload,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Close shuts down the underlying writer.
func (p *EventPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher drops events. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, entity.AuditEvent) error { return nil }
func (NoopPublisher) Close() error                                    { return nil }
