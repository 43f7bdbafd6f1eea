package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tempcast/tempcast/internal/utils"
)

// Events publishes forecast results as JSON on the subjects
// <prefix>.summary.<region> and <prefix>.batch.
type Events struct {
	publisher Publisher
	prefix    string
}

// NewEvents wraps publisher with the subject layout rooted at prefix
func NewEvents(publisher Publisher, prefix string) *Events {
	return &Events{publisher: publisher, prefix: subjectPrefix(prefix)}
}

// SummarySubject is the subject of one region's summary
func (e *Events) SummarySubject(region string) string {
	return e.prefix + ".summary." + region
}

// BatchSubject is the subject of batch completion messages
func (e *Events) BatchSubject() string {
	return e.prefix + ".batch"
}

// AllSubjects matches every subject the events are published on
func (e *Events) AllSubjects() string {
	return e.prefix + ".>"
}

// PublishSummary publishes v as the summary of region
func (e *Events) PublishSummary(ctx context.Context, region string, v interface{}) error {
	return e.publishJSON(ctx, e.SummarySubject(region), v)
}

// PublishBatch publishes v as a batch completion message
func (e *Events) PublishBatch(ctx context.Context, v interface{}) error {
	return e.publishJSON(ctx, e.BatchSubject(), v)
}

func (e *Events) publishJSON(ctx context.Context, subject string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode event for %s: %w", subject, err)
	}

	ctx, cancel := context.WithTimeout(ctx, utils.PublishTimeout)
	defer cancel()

	return e.publisher.Publish(ctx, subject, data)
}

// Close closes the underlying publisher
func (e *Events) Close() error {
	return e.publisher.Close()
}
