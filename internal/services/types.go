package services

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"math"

	"github.com/tempcast/tempcast/internal/analytics"
	"github.com/tempcast/tempcast/internal/analytics/anomaly"
	"github.com/tempcast/tempcast/internal/analytics/forecast"
	"github.com/tempcast/tempcast/internal/climate"
	"github.com/tempcast/tempcast/internal/config"
)

// SeriesSource provides the observed annual series of a location
type SeriesSource interface {
	AnnualSeries(ctx context.Context, loc climate.Location) (analytics.AnnualSeries, error)
}

// EventPublisher announces finished work
type EventPublisher interface {
	PublishSummary(ctx context.Context, region string, v interface{}) error
	PublishBatch(ctx context.Context, v interface{}) error
}

// ArtifactWriter persists pipeline outputs
type ArtifactWriter interface {
	WriteLocation(result *LocationResult) error
	WriteSummary(rows []LocationSummary) error
}

// ForecastOptions parameterize one pipeline run
type ForecastOptions struct {
	ForecastUntil int // final forecast year; ignored when Horizon > 0
	Horizon       int

	// HistoricalEndYear caps the training series when any observed year is at
	// or before it. Zero trains on the full series.
	HistoricalEndYear int

	// RequireHorizon turns an empty forecast window into an error
	RequireHorizon bool

	NLags         int
	Trees         int
	MaxDepth      int
	Simulations   int
	BlockSize     int
	Seed          uint64
	ResidualScope forecast.ResidualScope
	Percentiles   []float64

	EvidenceThreshold float64

	AnomalyAlgorithm string
	AnomalyThreshold float64
	AnomalyDetrend   bool
}

// OptionsFromConfig builds options from the forecast and anomaly sections
func OptionsFromConfig(fc config.ForecastConfig, ac config.AnomalyConfig) ForecastOptions {
	scope, err := forecast.ParseResidualScope(fc.ResidualScope)
	if err != nil {
		scope = forecast.ResidualScopeTraining
	}
	return ForecastOptions{
		ForecastUntil:     fc.ForecastUntil,
		HistoricalEndYear: fc.HistoricalEndYear,
		NLags:             fc.NLags,
		Trees:             fc.Trees,
		MaxDepth:          fc.MaxDepth,
		Simulations:       fc.Simulations,
		BlockSize:         fc.BlockSize,
		Seed:              fc.Seed,
		ResidualScope:     scope,
		Percentiles:       append([]float64(nil), fc.Percentiles...),
		EvidenceThreshold: fc.EvidenceThreshold,
		AnomalyAlgorithm:  ac.Algorithm,
		AnomalyThreshold:  ac.Threshold,
		AnomalyDetrend:    ac.Detrend,
	}
}

// SeedFor derives the seed of one region so that every location has its own
// reproducible random streams. An empty region keeps the base seed.
func SeedFor(base uint64, region string) uint64 {
	if region == "" {
		return base
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(region))
	return base ^ h.Sum64()
}

// LocationSummary is one row of the multi-location summary
type LocationSummary struct {
	Region          string  `json:"region"`
	StartYear       int     `json:"start_year"`
	EndYear         int     `json:"end_year"`
	SlopePerDecade  float64 `json:"slope_per_decade"`
	R2              float64 `json:"r2"`
	HoltMedianFinal float64 `json:"holt_median_final"`
	HoltP95Final    float64 `json:"holt_p95_final"`
	LagFinal        float64 `json:"lag_final"`
}

// MarshalJSON writes unavailable (NaN) values as null
func (s LocationSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Region          string   `json:"region"`
		StartYear       int      `json:"start_year"`
		EndYear         int      `json:"end_year"`
		SlopePerDecade  *float64 `json:"slope_per_decade"`
		R2              *float64 `json:"r2"`
		HoltMedianFinal *float64 `json:"holt_median_final"`
		HoltP95Final    *float64 `json:"holt_p95_final"`
		LagFinal        *float64 `json:"lag_final"`
	}{
		Region:          s.Region,
		StartYear:       s.StartYear,
		EndYear:         s.EndYear,
		SlopePerDecade:  finiteOrNil(s.SlopePerDecade),
		R2:              finiteOrNil(s.R2),
		HoltMedianFinal: finiteOrNil(s.HoltMedianFinal),
		HoltP95Final:    finiteOrNil(s.HoltP95Final),
		LagFinal:        finiteOrNil(s.LagFinal),
	})
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// LocationResult is everything the pipeline produced for one series
type LocationResult struct {
	Region string `json:"region"`
	Name   string `json:"name,omitempty"`

	Observed      analytics.AnnualSeries `json:"observed"`
	TrainLastYear int                    `json:"train_last_year"`
	Horizon       int                    `json:"horizon"`
	Seed          uint64                 `json:"seed"`

	Trend    forecast.TrendResult `json:"trend"`
	Evidence string               `json:"evidence"`

	// TrendLine extrapolates the training series' OLS line over the forecast years
	TrendLine forecast.ForecastSeries `json:"trend_line"`

	Holt          forecast.ForecastSeries `json:"holt"`
	HoltModel     *forecast.HoltModel     `json:"holt_model,omitempty"`
	Lag           forecast.ForecastSeries `json:"lag"`
	LagValidation forecast.Accuracy       `json:"lag_validation"`

	Ensemble      *forecast.EnsembleMatrix  `json:"-"`
	Percentiles   []float64                 `json:"percentiles,omitempty"`
	Bands         []forecast.PercentileBand `json:"bands,omitempty"`
	EnsembleError string                    `json:"ensemble_error,omitempty"`

	Anomalies []anomaly.Anomaly `json:"anomalies"`
	Summary   LocationSummary   `json:"summary"`
}

// BatchFailure names a location the batch could not process
type BatchFailure struct {
	Region string `json:"region"`
	Code   string `json:"code"`
	Error  string `json:"error"`
}

// BatchResult collects the outcome of a multi-location run
type BatchResult struct {
	RunID         string            `json:"run_id"`
	ForecastUntil int               `json:"forecast_until"`
	Summaries     []LocationSummary `json:"summaries"`
	Failures      []BatchFailure    `json:"failures,omitempty"`
	Results       []*LocationResult `json:"-"`
}
