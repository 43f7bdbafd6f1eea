package queue

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MemoryQueue keeps published messages in process and delivers them to
// subscribers synchronously. Useful for tests and single-process runs.
type MemoryQueue struct {
	messages      []BatchMessage
	subscriptions map[string]MessageHandler
	closed        bool
	mu            sync.RWMutex
}

// newMemoryQueue creates a new in-memory queue instance
func newMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		subscriptions: make(map[string]MessageHandler),
	}
}

// Publish records the message and hands it to a matching subscriber
func (q *MemoryQueue) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return fmt.Errorf("queue closed")
	}
	q.messages = append(q.messages, BatchMessage{Subject: subject, Data: dataCopy})
	var handlers []MessageHandler
	for pattern, h := range q.subscriptions {
		if subjectMatches(pattern, subject) {
			handlers = append(handlers, h)
		}
	}
	q.mu.Unlock()

	for _, h := range handlers {
		if err := h(subject, dataCopy); err != nil {
			return fmt.Errorf("handler for %s: %w", subject, err)
		}
	}
	return nil
}

// PublishBatch publishes multiple messages
func (q *MemoryQueue) PublishBatch(ctx context.Context, messages []BatchMessage) (int, error) {
	successCount := 0

	for _, msg := range messages {
		if err := q.Publish(ctx, msg.Subject, msg.Data); err != nil {
			continue
		}
		successCount++
	}

	return successCount, nil
}

// Subscribe registers handler for subject; "*" and ">" wildcards behave as in NATS
func (q *MemoryQueue) Subscribe(subject string, handler MessageHandler) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; exists {
		return fmt.Errorf("already subscribed to subject: %s", subject)
	}
	q.subscriptions[subject] = handler
	return nil
}

// Unsubscribe unsubscribes from a subject
func (q *MemoryQueue) Unsubscribe(subject string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.subscriptions[subject]; !exists {
		return fmt.Errorf("not subscribed to subject: %s", subject)
	}
	delete(q.subscriptions, subject)
	return nil
}

// Close drops all subscriptions; later publishes fail
func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	for subject := range q.subscriptions {
		delete(q.subscriptions, subject)
	}
	return nil
}

// Messages returns a copy of everything published so far
func (q *MemoryQueue) Messages() []BatchMessage {
	q.mu.RLock()
	defer q.mu.RUnlock()

	out := make([]BatchMessage, len(q.messages))
	copy(out, q.messages)
	return out
}

// subjectMatches applies NATS token wildcards: "*" matches one token, a
// trailing ">" matches one or more.
func subjectMatches(pattern, subject string) bool {
	p := strings.Split(pattern, ".")
	s := strings.Split(subject, ".")

	for i, tok := range p {
		if tok == ">" {
			return len(s) > i
		}
		if i >= len(s) {
			return false
		}
		if tok != "*" && tok != s[i] {
			return false
		}
	}
	return len(p) == len(s)
}
