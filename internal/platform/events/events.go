// Package events publishes domain events (registrations finalized, referrals
// transitioned, hospitals provisioned) to Kafka for downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Event is the envelope written to the event topic.
type Event struct {
	Type     string          `json:"type"`
	Hospital string          `json:"hospital,omitempty"`
	EntityID string          `json:"entity_id"`
	At       time.Time       `json:"at"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Event types emitted by the application.
const (
	TypeHospitalProvisioned   = "hospital.provisioned"
	TypeRegistrationFinalized = "antenatal.registration.finalized"
	TypeReferralCreated       = "referral.created"
	TypeReferralTransitioned  = "referral.transitioned"
	TypeAppointmentBooked     = "appointment.booked"
)

// Publisher emits domain events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher discards all events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// KafkaPublisher writes events to a Kafka topic, keyed by entity ID so events
// for the same entity stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
		logger: logger,
	}
}

// Publish marshals the event and writes it to the topic.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.EntityID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error().Err(err).
			Str("event_type", event.Type).
			Str("entity_id", event.EntityID).
			Msg("failed to publish event")
		return fmt.Errorf("write event %s: %w", event.Type, err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NewPayload marshals v for use as an event payload. Marshal failures return
// a null payload rather than blocking the event.
func NewPayload(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}
