package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// DefaultKafkaTopic is the topic telemetry events land on.
const DefaultKafkaTopic = "dossier.curation"

// KafkaPublisher streams telemetry events to a Kafka topic, keyed by entity
// so one entity's events stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// KafkaConfig holds configuration for the Kafka publisher.
type KafkaConfig struct {
	// Brokers lists the bootstrap broker addresses.
	Brokers []string

	// Topic defaults to DefaultKafkaTopic if empty.
	Topic string
}

// kafkaEnvelope wraps an event with a unique ID for downstream dedup.
type kafkaEnvelope struct {
	EventID string `json:"event_id"`
	Event
}

// NewKafkaPublisher creates a publisher writing to the configured brokers.
func NewKafkaPublisher(cfg KafkaConfig, logger *zap.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker is required")
	}

	topic := cfg.Topic
	if topic == "" {
		topic = DefaultKafkaTopic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	logger.Info("kafka telemetry publisher initialized",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", topic),
	)

	return &KafkaPublisher{writer: writer, logger: logger}, nil
}

// Publish sends one event to the topic.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(kafkaEnvelope{
		EventID: uuid.NewString(),
		Event:   event,
	})
	if err != nil {
		return fmt.Errorf("marshaling kafka event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Entity),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing kafka message: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Ensure KafkaPublisher implements Publisher
var _ Publisher = (*KafkaPublisher)(nil)
