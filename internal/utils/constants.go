package utils

import "time"

// =============================================================================
// Timeout Constants
// =============================================================================

// HTTP Handler Timeouts
const (
	// DefaultRequestTimeout bounds one forecast request served over HTTP
	DefaultRequestTimeout = 60 * time.Second

	// ShutdownTimeout is the grace period for in-flight requests on shutdown
	ShutdownTimeout = 10 * time.Second
)

// Queue Timeouts
const (
	// QueueConnectTimeout bounds broker connection and ping
	QueueConnectTimeout = 5 * time.Second

	// PublishTimeout bounds one event publish
	PublishTimeout = 5 * time.Second
)

// =============================================================================
// Forecast Request Limits
// =============================================================================

const (
	// MaxHorizon is the longest forecast accepted over HTTP
	MaxHorizon = 500

	// MaxSimulations is the largest ensemble accepted over HTTP
	MaxSimulations = 10000

	// MaxSeriesLength is the longest inline series accepted over HTTP
	MaxSeriesLength = 5000

	// MaxNLags is the widest lag window accepted over HTTP
	MaxNLags = 50
)

// =============================================================================
// Queue Type Constants
// =============================================================================

// QueueType represents the type of message queue
type QueueType string

const (
	// QueueTypeNone disables event publishing (default)
	QueueTypeNone QueueType = "none"

	// QueueTypeNATS represents NATS JetStream
	QueueTypeNATS QueueType = "nats"

	// QueueTypeRedis represents Redis Streams
	QueueTypeRedis QueueType = "redis"

	// QueueTypeKafka represents Apache Kafka
	QueueTypeKafka QueueType = "kafka"

	// QueueTypeMemory represents in-memory queue (for testing)
	QueueTypeMemory QueueType = "memory"
)
