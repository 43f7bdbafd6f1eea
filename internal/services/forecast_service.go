package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tempcast/tempcast/internal/analytics"
	"github.com/tempcast/tempcast/internal/analytics/anomaly"
	"github.com/tempcast/tempcast/internal/analytics/forecast"
	"github.com/tempcast/tempcast/internal/climate"
	"github.com/tempcast/tempcast/internal/logging"
	"github.com/tempcast/tempcast/internal/metrics"
)

// ForecastService runs the forecasting pipeline of one location or series
type ForecastService struct {
	logger   *logging.Logger
	source   SeriesSource
	events   EventPublisher
	writer   ArtifactWriter
	metrics  *metrics.Metrics
	defaults ForecastOptions
}

// ServiceOption configures a ForecastService
type ServiceOption func(*ForecastService)

// WithEvents publishes a summary event per processed location
func WithEvents(p EventPublisher) ServiceOption {
	return func(s *ForecastService) {
		s.events = p
	}
}

// WithArtifacts persists every processed location
func WithArtifacts(w ArtifactWriter) ServiceOption {
	return func(s *ForecastService) {
		s.writer = w
	}
}

// WithMetrics records pipeline metrics on m
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *ForecastService) {
		s.metrics = m
	}
}

// NewForecastService creates a new ForecastService
func NewForecastService(logger *logging.Logger, source SeriesSource, defaults ForecastOptions, opts ...ServiceOption) *ForecastService {
	s := &ForecastService{
		logger:   logger,
		source:   source,
		defaults: defaults,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Defaults returns the options the service was configured with
func (s *ForecastService) Defaults() ForecastOptions {
	d := s.defaults
	d.Percentiles = append([]float64(nil), s.defaults.Percentiles...)
	return d
}

// Process fetches the series of loc and runs the pipeline on it. Outputs are
// persisted and announced when the service has a writer or publisher.
func (s *ForecastService) Process(ctx context.Context, loc climate.Location, opts ForecastOptions) (*LocationResult, error) {
	start := time.Now()
	region := loc.Slug()
	log := s.logger.With("region", region)

	result, err := s.process(ctx, loc, region, opts, log)
	s.metrics.ObserveLocation(err == nil, time.Since(start))
	if err != nil {
		log.Warn("Location failed", "error", err)
		return nil, err
	}

	log.Info("Location processed",
		"years", len(result.Observed),
		"horizon", result.Horizon,
		"slope_per_decade", result.Trend.SlopePerDecade,
		"latency_ms", time.Since(start).Milliseconds())

	return result, nil
}

func (s *ForecastService) process(ctx context.Context, loc climate.Location, region string, opts ForecastOptions, log *logging.Logger) (*LocationResult, error) {
	if s.source == nil {
		return nil, NewServiceError(CodeInternal, "no series source configured")
	}

	series, err := s.source.AnnualSeries(ctx, loc)
	if err != nil {
		return nil, classify(err, map[string]interface{}{"region": region})
	}

	opts.Seed = SeedFor(opts.Seed, region)
	result, err := s.run(ctx, series, opts, log)
	if err != nil {
		return nil, classify(err, map[string]interface{}{"region": region})
	}
	result.Region = region
	result.Name = loc.Name
	result.Summary.Region = region

	if s.writer != nil {
		if err := s.writer.WriteLocation(result); err != nil {
			return nil, classify(fmt.Errorf("write artifacts: %w", err), map[string]interface{}{"region": region})
		}
	}

	if s.events != nil {
		if err := s.events.PublishSummary(ctx, region, result.Summary); err != nil {
			log.Warn("Failed to publish summary", "error", err)
		}
	}

	return result, nil
}

// Forecast runs the pipeline on an inline series. Nothing is persisted or published.
func (s *ForecastService) Forecast(ctx context.Context, series analytics.AnnualSeries, opts ForecastOptions) (*LocationResult, error) {
	start := time.Now()

	result, err := s.run(ctx, series, opts, s.logger)
	if err != nil {
		return nil, classify(err, nil)
	}

	s.logger.Debug("Inline forecast completed",
		"years", len(series),
		"horizon", result.Horizon,
		"latency_ms", time.Since(start).Milliseconds())

	return result, nil
}

// run is the pipeline shared by Process and Forecast
func (s *ForecastService) run(ctx context.Context, observed analytics.AnnualSeries, opts ForecastOptions, log *logging.Logger) (*LocationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateOptions(opts); err != nil {
		return nil, err
	}
	if err := observed.Validate(); err != nil {
		return nil, err
	}
	if len(observed) == 0 {
		return nil, fmt.Errorf("%w: series is empty", forecast.ErrInsufficientData)
	}

	trend, err := forecast.EstimateTrend(observed)
	if err != nil {
		return nil, err
	}

	train := observed
	if opts.HistoricalEndYear > 0 && observed.FirstYear() <= opts.HistoricalEndYear {
		train = observed.Until(opts.HistoricalEndYear)
	}

	horizon := opts.Horizon
	if horizon <= 0 {
		horizon = opts.ForecastUntil - train.LastYear()
	}
	if horizon <= 0 {
		if opts.RequireHorizon {
			return nil, NewServiceErrorWithDetails(CodeNothingToForecast,
				fmt.Sprintf("forecast-until must be greater than the last data year %d", train.LastYear()),
				map[string]interface{}{"last_year": train.LastYear(), "forecast_until": opts.ForecastUntil})
		}
		horizon = 0
	}

	result := &LocationResult{
		Observed:      observed,
		TrainLastYear: train.LastYear(),
		Horizon:       horizon,
		Seed:          opts.Seed,
		Trend:         trend,
		Evidence:      Evidence(trend.SlopePerDecade, opts.EvidenceThreshold),
	}

	forecasterConfig := forecast.ForecastConfig{
		NLags:    opts.NLags,
		Trees:    opts.Trees,
		MaxDepth: opts.MaxDepth,
		Seed:     opts.Seed,
	}

	trendForecaster, err := forecast.New(forecast.MethodTrend, forecasterConfig)
	if err != nil {
		return nil, err
	}
	trendLine, err := trendForecaster.FitAndForecast(train, horizon)
	if err != nil {
		return nil, fmt.Errorf("trend: %w", err)
	}
	result.TrendLine = trendLine.Predictions

	// The two point forecasters are independent of each other
	var (
		holtFit *forecast.HoltFit
		lagFit  *forecast.LagFit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		var err error
		holtFit, err = forecast.NewHoltForecaster().Fit(train, horizon)
		if err != nil {
			return fmt.Errorf("exponential trend: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		lagForecaster, err := forecast.NewLagFeatureForecaster(forecasterConfig)
		if err != nil {
			return err
		}
		lagFit, err = lagForecaster.FitContext(gctx, train, horizon)
		if err != nil {
			return fmt.Errorf("lag feature: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.Holt = holtFit.Forecast
	result.HoltModel = holtFit.Model
	result.Lag = lagFit.Forecast
	result.LagValidation = lagFit.Validation

	if holtFit.Model != nil {
		s.buildEnsemble(result, observed, holtFit.Model, opts, log)
	}

	if opts.AnomalyAlgorithm != "" {
		cfg := anomaly.DefaultConfig()
		if opts.AnomalyThreshold > 0 {
			cfg.Threshold = opts.AnomalyThreshold
		}
		cfg.Detrend = opts.AnomalyDetrend
		anomalies, err := anomaly.DetectAnomalies(opts.AnomalyAlgorithm, observed, cfg)
		if err != nil {
			log.Warn("Anomaly detection failed", "error", err)
		}
		result.Anomalies = anomalies
	}
	if result.Anomalies == nil {
		result.Anomalies = []anomaly.Anomaly{}
	}

	result.Summary = summarize(result)
	return result, nil
}

// buildEnsemble attaches the bootstrap ensemble and its bands. Failure is recorded, not returned.
func (s *ForecastService) buildEnsemble(result *LocationResult, observed analytics.AnnualSeries, model *forecast.HoltModel, opts ForecastOptions, log *logging.Logger) {
	m, err := forecast.BootstrapEnsemble(observed, model, forecast.EnsembleConfig{
		Horizon:     result.Horizon,
		Simulations: opts.Simulations,
		BlockSize:   opts.BlockSize,
		Seed:        opts.Seed,
		Scope:       opts.ResidualScope,
	})
	s.metrics.ObserveEnsemble(opts.Simulations, err)
	if err != nil {
		log.Warn("Could not build ensemble", "error", err)
		result.EnsembleError = err.Error()
		return
	}

	probs := opts.Percentiles
	if len(probs) == 0 {
		probs = forecast.DefaultPercentiles
	}
	bands, err := forecast.Percentiles(m, probs)
	if err != nil {
		log.Warn("Could not summarize ensemble", "error", err)
		result.EnsembleError = err.Error()
		return
	}

	result.Ensemble = m
	result.Percentiles = probs
	result.Bands = bands
}

func validateOptions(opts ForecastOptions) error {
	if opts.Simulations < 1 {
		return fmt.Errorf("%w: simulations must be positive, got %d", forecast.ErrInvalidConfiguration, opts.Simulations)
	}
	if opts.BlockSize < 1 {
		return fmt.Errorf("%w: block size must be positive, got %d", forecast.ErrInvalidConfiguration, opts.BlockSize)
	}
	if opts.NLags < 1 {
		return fmt.Errorf("%w: nlags must be positive, got %d", forecast.ErrInvalidConfiguration, opts.NLags)
	}
	if opts.Horizon < 0 {
		return fmt.Errorf("%w: horizon must not be negative, got %d", forecast.ErrInvalidConfiguration, opts.Horizon)
	}
	if _, err := forecast.ParseResidualScope(string(opts.ResidualScope)); err != nil {
		return err
	}
	return nil
}

// summarize builds the summary row. Ensemble quantiles of the final year are
// preferred, then the final point forecast, then NaN.
func summarize(r *LocationResult) LocationSummary {
	summary := LocationSummary{
		Region:          r.Region,
		StartYear:       r.Observed.FirstYear(),
		EndYear:         r.Observed.LastYear(),
		SlopePerDecade:  r.Trend.SlopePerDecade,
		R2:              r.Trend.R2,
		HoltMedianFinal: math.NaN(),
		HoltP95Final:    math.NaN(),
		LagFinal:        math.NaN(),
	}

	if last, ok := r.Holt.Last(); ok {
		summary.HoltMedianFinal = last.Value
		summary.HoltP95Final = last.Value
	}
	if r.Ensemble != nil && r.Ensemble.Rows() > 0 {
		finalYear := r.Ensemble.Years[r.Ensemble.Rows()-1]
		if v, err := forecast.RowQuantile(r.Ensemble, finalYear, 0.5); err == nil {
			summary.HoltMedianFinal = v
		}
		if v, err := forecast.RowQuantile(r.Ensemble, finalYear, 0.95); err == nil {
			summary.HoltP95Final = v
		}
	}
	if last, ok := r.Lag.Last(); ok {
		summary.LagFinal = last.Value
	}

	return summary
}

// Evidence phrases the historical trend against threshold (°C/decade)
func Evidence(slopePerDecade, threshold float64) string {
	if slopePerDecade > threshold {
		return fmt.Sprintf("The historical annual mean maximum temperature shows a warming trend (>%g °C/decade).", threshold)
	}
	return fmt.Sprintf("Trend exists but is modest (<%g °C/decade) over the historical period provided.", threshold)
}
