// Package notify carries committed transition events to the rest of
// the platform (email/WhatsApp workers, admin feeds) over Kafka.
package notify

import (
	"context"
	"encoding/json"

	models "github.com/oceandrift/fishcrew/internal"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers: brokers,
		Topic:   topic,
	})
	return &Producer{writer: writer, logger: logger}
}

// Emit publishes one transition event, keyed by trip id so all events
// for a trip land on the same partition in order. Consumers derive
// idempotency keys from (trip_id, type, version).
func (p *Producer) Emit(ctx context.Context, event models.TransitionEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.TripID.String()),
		Value: value,
	})
	if err != nil {
		return err
	}

	p.logger.Debug("transition event published",
		zap.String("trip_id", event.TripID.String()),
		zap.String("type", string(event.Type)),
		zap.Int("version", event.Version))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
