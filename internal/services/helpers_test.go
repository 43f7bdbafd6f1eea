package services

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/tempcast/tempcast/internal/analytics"
	"github.com/tempcast/tempcast/internal/analytics/forecast"
	"github.com/tempcast/tempcast/internal/climate"
	"github.com/tempcast/tempcast/internal/logging"
)

// warmingSeries is a deterministic warming series with a wobble
func warmingSeries(firstYear, n int) analytics.AnnualSeries {
	values := make([]float64, n)
	for i := range values {
		values[i] = 14 + 0.025*float64(i) + 0.3*math.Sin(float64(i)*1.7)
	}
	return analytics.NewAnnualSeries(firstYear, values)
}

func testOptions() ForecastOptions {
	return ForecastOptions{
		ForecastUntil:     2050,
		HistoricalEndYear: 2024,
		NLags:             5,
		Trees:             20,
		Simulations:       40,
		BlockSize:         3,
		Seed:              7,
		ResidualScope:     forecast.ResidualScopeTraining,
		Percentiles:       []float64{0.05, 0.5, 0.95},
		EvidenceThreshold: 0.1,
		AnomalyAlgorithm:  "zscore",
		AnomalyThreshold:  2.5,
		AnomalyDetrend:    true,
	}
}

type mapSource map[string]analytics.AnnualSeries

func (m mapSource) AnnualSeries(ctx context.Context, loc climate.Location) (analytics.AnnualSeries, error) {
	s, ok := m[loc.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s: status 404", climate.ErrFetch, loc.Name)
	}
	return s.Clone(), nil
}

type recordingWriter struct {
	mu        sync.Mutex
	locations []string
	summaries [][]LocationSummary
	err       error
}

func (w *recordingWriter) WriteLocation(r *LocationResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.locations = append(w.locations, r.Region)
	return w.err
}

func (w *recordingWriter) WriteSummary(rows []LocationSummary) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.summaries = append(w.summaries, rows)
	return w.err
}

type recordingEvents struct {
	mu        sync.Mutex
	summaries []string
	batches   []interface{}
}

func (e *recordingEvents) PublishSummary(ctx context.Context, region string, v interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.summaries = append(e.summaries, region)
	return nil
}

func (e *recordingEvents) PublishBatch(ctx context.Context, v interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batches = append(e.batches, v)
	return nil
}

func newTestService(source SeriesSource, opts ...ServiceOption) *ForecastService {
	return NewForecastService(logging.NewNop(), source, testOptions(), opts...)
}
