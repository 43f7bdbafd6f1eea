package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tempcast/tempcast/internal/config"
)

func TestNewPublisher(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.QueueConfig
		wantType interface{}
		wantErr  bool
	}{
		{"empty is nop", config.QueueConfig{}, NopPublisher{}, false},
		{"none", config.QueueConfig{Type: "none"}, NopPublisher{}, false},
		{"memory", config.QueueConfig{Type: "MEMORY"}, &MemoryQueue{}, false},
		{"kafka from url", config.QueueConfig{Type: "kafka", URL: "k1:9092,k2:9092"}, &KafkaQueue{}, false},
		{"kafka without brokers", config.QueueConfig{Type: "kafka"}, nil, true},
		{"unsupported", config.QueueConfig{Type: "rabbitmq"}, nil, true},
		{"redis unreachable", config.QueueConfig{Type: "redis", URL: "127.0.0.1:1"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub, err := NewPublisher(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() { _ = pub.Close() }()
			assert.IsType(t, tt.wantType, pub)
		})
	}
}

func TestNewPublisher_KafkaBrokersFromURL(t *testing.T) {
	pub, err := NewPublisher(config.QueueConfig{Type: "kafka", URL: "k1:9092,k2:9092"})
	require.NoError(t, err)
	defer func() { _ = pub.Close() }()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, pub.(*KafkaQueue).config.Brokers)
}

func TestNewSubscriber_Unsupported(t *testing.T) {
	_, err := NewSubscriber(config.QueueConfig{Type: "kafka"})
	assert.Error(t, err)

	sub, err := NewSubscriber(config.QueueConfig{Type: "memory"})
	require.NoError(t, err)
	assert.NoError(t, sub.Close())
}

func TestNopPublisher(t *testing.T) {
	var p NopPublisher
	assert.NoError(t, p.Publish(context.Background(), "s", nil))
	n, err := p.PublishBatch(context.Background(), make([]BatchMessage, 3))
	assert.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStreamName(t *testing.T) {
	assert.Equal(t, "TEMPCAST", streamName(""))
	assert.Equal(t, "MY_EVENTS", streamName("my.events"))
}

func TestKafkaQueue_Defaults(t *testing.T) {
	q, err := newKafkaQueue(KafkaConfig{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	defer func() { _ = q.Close() }()

	assert.Equal(t, 3, q.config.MaxAttempts)
	assert.Equal(t, 1, q.config.RequiredAcks)
	assert.True(t, q.writer.AllowAutoTopicCreation)

	n, err := q.PublishBatch(context.Background(), nil)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestRedisQueue_StreamName(t *testing.T) {
	q := newRedisQueueWithClient(nil, RedisConfig{})
	assert.Equal(t, "tempcast:tempcast.batch", q.streamName("tempcast.batch"))
	assert.Equal(t, int64(10000), q.config.MaxLen)

	args := q.addArgs("s", []byte("d"))
	assert.True(t, args.Approx)
	assert.Equal(t, "tempcast:s", args.Stream)
}

func TestEvents_Subjects(t *testing.T) {
	q := newMemoryQueue()
	events := NewEvents(q, "")

	assert.Equal(t, "tempcast.summary.London_UK", events.SummarySubject("London_UK"))
	assert.Equal(t, "tempcast.batch", events.BatchSubject())
	assert.Equal(t, "tempcast.>", events.AllSubjects())

	require.NoError(t, events.PublishSummary(context.Background(), "Arctic", map[string]string{"region": "Arctic"}))
	msgs := q.Messages()
	require.Len(t, msgs, 1)
	assert.JSONEq(t, `{"region":"Arctic"}`, string(msgs[0].Data))

	assert.Error(t, events.PublishBatch(context.Background(), make(chan int)))
}
