package queue

import (
	"context"
	"fmt"
	"strings"

	"github.com/tempcast/tempcast/internal/config"
	"github.com/tempcast/tempcast/internal/utils"
)

// NewPublisher creates the Publisher selected by cfg.Type.
// An empty type or "none" yields a publisher that drops every message.
func NewPublisher(cfg config.QueueConfig) (Publisher, error) {
	queueType := utils.QueueType(strings.ToLower(cfg.Type))

	switch queueType {
	case "", utils.QueueTypeNone:
		return NopPublisher{}, nil

	case utils.QueueTypeNATS:
		return newNATSQueue(NATSConfig{
			URL:      cfg.URL,
			Username: cfg.Username,
			Password: cfg.Password,
			Stream:   streamName(cfg.SubjectPrefix),
			Subjects: []string{subjectPrefix(cfg.SubjectPrefix) + ".>"},
		})

	case utils.QueueTypeRedis:
		return newRedisQueue(RedisConfig{
			URL:      cfg.URL,
			Password: cfg.Password,
			DB:       cfg.RedisDB,
			Stream:   cfg.RedisStream,
		})

	case utils.QueueTypeKafka:
		brokers := cfg.KafkaBrokers
		if len(brokers) == 0 && cfg.URL != "" {
			brokers = strings.Split(cfg.URL, ",")
		}
		return newKafkaQueue(KafkaConfig{Brokers: brokers})

	case utils.QueueTypeMemory:
		return newMemoryQueue(), nil

	default:
		return nil, fmt.Errorf("unsupported queue type: %s (supported: none, nats, redis, kafka, memory)", queueType)
	}
}

// NewSubscriber creates a Subscriber for the brokers that support one (nats, memory).
func NewSubscriber(cfg config.QueueConfig) (Subscriber, error) {
	switch utils.QueueType(strings.ToLower(cfg.Type)) {
	case utils.QueueTypeNATS:
		return newNATSQueue(NATSConfig{URL: cfg.URL, Username: cfg.Username, Password: cfg.Password})
	case utils.QueueTypeMemory:
		return newMemoryQueue(), nil
	default:
		return nil, fmt.Errorf("queue type %q cannot be subscribed to (supported: nats, memory)", cfg.Type)
	}
}

// NopPublisher discards messages
type NopPublisher struct{}

func (NopPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	return nil
}

func (NopPublisher) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	return len(messages), nil
}

func (NopPublisher) Close() error {
	return nil
}

func subjectPrefix(prefix string) string {
	if prefix == "" {
		return "tempcast"
	}
	return prefix
}

// streamName derives a JetStream stream name from the subject prefix
func streamName(prefix string) string {
	return strings.ToUpper(sanitizeName(subjectPrefix(prefix)))
}

// sanitizeName replaces characters not allowed in stream and consumer names.
// Allowed: A-Z, a-z, 0-9, dash (-) and underscore (_)
func sanitizeName(s string) string {
	result := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}
	return string(result)
}
