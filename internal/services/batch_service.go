package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tempcast/tempcast/internal/climate"
	"github.com/tempcast/tempcast/internal/logging"
	"github.com/tempcast/tempcast/internal/metrics"
)

// BatchService processes many locations concurrently. A failing location is
// reported and skipped; the rest of the batch continues.
type BatchService struct {
	logger      *logging.Logger
	forecast    *ForecastService
	writer      ArtifactWriter
	events      EventPublisher
	metrics     *metrics.Metrics
	parallelism int
}

// BatchOption configures a BatchService
type BatchOption func(*BatchService)

// WithSummaryWriter writes the summary table after each batch
func WithSummaryWriter(w ArtifactWriter) BatchOption {
	return func(b *BatchService) {
		b.writer = w
	}
}

// WithBatchEvents publishes a completion message after each batch
func WithBatchEvents(p EventPublisher) BatchOption {
	return func(b *BatchService) {
		b.events = p
	}
}

// WithBatchMetrics counts finished batches on m
func WithBatchMetrics(m *metrics.Metrics) BatchOption {
	return func(b *BatchService) {
		b.metrics = m
	}
}

// NewBatchService creates a batch runner over fs
func NewBatchService(logger *logging.Logger, fs *ForecastService, parallelism int, opts ...BatchOption) *BatchService {
	if parallelism < 1 {
		parallelism = 1
	}
	b := &BatchService{
		logger:      logger,
		forecast:    fs,
		parallelism: parallelism,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// batchEvent is the completion message of one run
type batchEvent struct {
	RunID         string   `json:"run_id"`
	ForecastUntil int      `json:"forecast_until"`
	Succeeded     []string `json:"succeeded"`
	Failed        []string `json:"failed"`
	DurationMs    int64    `json:"duration_ms"`
}

// Run processes locations with the same options. Summaries keep the input
// order of the locations that succeeded.
func (b *BatchService) Run(ctx context.Context, locations []climate.Location, opts ForecastOptions) (*BatchResult, error) {
	start := time.Now()
	runID := uuid.New().String()
	ctx = logging.WithRunID(ctx, runID)
	log := b.logger.With("run_id", runID)

	log.Info("Batch started",
		"locations", len(locations),
		"forecast_until", opts.ForecastUntil,
		"parallelism", b.parallelism)

	results := make([]*LocationResult, len(locations))
	failures := make([]*BatchFailure, len(locations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.parallelism)
	for i, loc := range locations {
		g.Go(func() error {
			res, err := b.forecast.Process(gctx, loc, opts)
			if err != nil {
				var se *ServiceError
				code := CodeInternal
				if errors.As(err, &se) {
					code = se.Code
				}
				failures[i] = &BatchFailure{Region: loc.Slug(), Code: code, Error: err.Error()}
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := &BatchResult{
		RunID:         runID,
		ForecastUntil: opts.ForecastUntil,
		Summaries:     []LocationSummary{},
	}
	for i := range locations {
		if results[i] != nil {
			batch.Results = append(batch.Results, results[i])
			batch.Summaries = append(batch.Summaries, results[i].Summary)
		}
		if failures[i] != nil {
			batch.Failures = append(batch.Failures, *failures[i])
		}
	}

	if b.writer != nil && len(batch.Summaries) > 0 {
		if err := b.writer.WriteSummary(batch.Summaries); err != nil {
			return batch, classify(err, map[string]interface{}{"run_id": runID})
		}
	}

	event := batchEvent{
		RunID:         runID,
		ForecastUntil: opts.ForecastUntil,
		Succeeded:     make([]string, 0, len(batch.Summaries)),
		Failed:        make([]string, 0, len(batch.Failures)),
		DurationMs:    time.Since(start).Milliseconds(),
	}
	for _, s := range batch.Summaries {
		event.Succeeded = append(event.Succeeded, s.Region)
	}
	for _, f := range batch.Failures {
		event.Failed = append(event.Failed, f.Region)
	}
	if b.events != nil {
		if err := b.events.PublishBatch(ctx, event); err != nil {
			log.Warn("Failed to publish batch event", "error", err)
		}
	}
	b.metrics.ObserveBatch()

	log.Info("Batch completed",
		"succeeded", len(batch.Summaries),
		"failed", len(batch.Failures),
		"latency_ms", event.DurationMs)

	return batch, nil
}
