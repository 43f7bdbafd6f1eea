package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig represents Apache Kafka producer configuration
type KafkaConfig struct {
	Brokers      []string      // Kafka broker addresses
	BatchTimeout time.Duration // Producer batch timeout (default: 10ms)
	RequiredAcks int           // 0=none, 1=leader, -1=all (default: 1)
	MaxAttempts  int           // Write attempts per message (default: 3)
}

// KafkaQueue publishes to Kafka. Every subject is used as the topic name.
type KafkaQueue struct {
	config KafkaConfig
	writer *kafka.Writer
}

// newKafkaQueue creates a Kafka publisher
func newKafkaQueue(cfg KafkaConfig) (*KafkaQueue, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}

	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}
	if cfg.RequiredAcks == 0 {
		cfg.RequiredAcks = int(kafka.RequireOne)
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 3
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		MaxAttempts:            cfg.MaxAttempts,
		AllowAutoTopicCreation: true,
	}

	return &KafkaQueue{config: cfg, writer: writer}, nil
}

func kafkaMessage(subject string, data []byte) kafka.Message {
	return kafka.Message{
		Topic: subject,
		Key:   []byte(subject),
		Value: data,
		Time:  time.Now(),
	}
}

// Publish publishes a message to the topic named subject
func (q *KafkaQueue) Publish(ctx context.Context, subject string, data []byte) error {
	if err := q.writer.WriteMessages(ctx, kafkaMessage(subject, data)); err != nil {
		return fmt.Errorf("failed to publish to kafka topic %s: %w", subject, err)
	}
	return nil
}

// PublishBatch writes all messages in one producer call
func (q *KafkaQueue) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	msgs := make([]kafka.Message, len(messages))
	for i, m := range messages {
		msgs[i] = kafkaMessage(m.Subject, m.Data)
	}

	err := q.writer.WriteMessages(ctx, msgs...)
	if err == nil {
		return len(msgs), nil
	}

	// WriteErrors reports per-message outcomes
	if werrs, ok := err.(kafka.WriteErrors); ok {
		failed := werrs.Count()
		if failed < len(msgs) {
			return len(msgs) - failed, nil
		}
	}
	return 0, fmt.Errorf("failed to publish batch: %w", err)
}

// Close flushes pending writes and closes the producer
func (q *KafkaQueue) Close() error {
	return q.writer.Close()
}

// Stats returns producer stats (for monitoring)
func (q *KafkaQueue) Stats() kafka.WriterStats {
	return q.writer.Stats()
}
