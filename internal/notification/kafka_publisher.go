package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Envelope is the wire format of order events consumed by the email and
// push workers.
type Envelope struct {
	EventID      string    `json:"eventId"`
	EventType    EventType `json:"eventType"`
	EventVersion int       `json:"eventVersion"`
	OccurredAt   time.Time `json:"occurredAt"`
	Producer     string    `json:"producer"`
	RestaurantID string    `json:"restaurantId"`
	OrderID      string    `json:"orderId"`
	Payload      Event     `json:"payload"`
}

type KafkaPublisher struct {
	writer   MessageWriter
	producer string
}

func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
}

func NewKafkaPublisher(writer MessageWriter, producer string) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, producer: producer}
}

// Send publishes the event keyed by restaurant so one restaurant's events
// stay ordered within a partition.
func (p *KafkaPublisher) Send(ctx context.Context, restaurantID string, event Event) error {
	env := Envelope{
		EventID:      uuid.NewString(),
		EventType:    event.Type,
		EventVersion: 1,
		OccurredAt:   event.OccurredAt,
		Producer:     p.producer,
		RestaurantID: restaurantID,
		OrderID:      event.OrderID,
		Payload:      event,
	}

	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshaling envelope: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(restaurantID),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(event.Type)},
			{Key: "x-event-version", Value: []byte("1")},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing %s for order %s: %w", event.Type, event.OrderID, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
