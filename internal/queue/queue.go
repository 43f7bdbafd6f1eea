// Package queue publishes forecast events to a message broker.
//
// Location summaries go to <prefix>.summary.<region> and batch completions to
// <prefix>.batch. Every backend delivers the JSON payload unchanged.
package queue

import "context"

// Publisher sends event payloads to a broker subject (a topic for Kafka, a
// stream for Redis)
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error

	// PublishBatch returns how many messages were accepted. A partial batch is
	// not an error.
	PublishBatch(ctx context.Context, messages []BatchMessage) (int, error)

	Close() error
}

// BatchMessage is one entry of a PublishBatch call
type BatchMessage struct {
	Subject string
	Data    []byte
}

// Subscriber delivers published events, used by the watch command
type Subscriber interface {
	// Subscribe registers handler for subject; wildcards follow the backend
	Subscribe(subject string, handler MessageHandler) error
	Unsubscribe(subject string) error
	Close() error
}

// MessageHandler handles one delivered event
type MessageHandler func(subject string, data []byte) error

// Queue is a backend that can both publish and subscribe
type Queue interface {
	Publisher
	Subscriber
}

var (
	_ Queue     = (*NATSQueue)(nil)
	_ Queue     = (*MemoryQueue)(nil)
	_ Publisher = (*RedisQueue)(nil)
	_ Publisher = (*KafkaQueue)(nil)
	_ Publisher = NopPublisher{}
)
