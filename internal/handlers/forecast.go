package handlers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/tempcast/tempcast/internal/analytics"
	"github.com/tempcast/tempcast/internal/analytics/forecast"
	"github.com/tempcast/tempcast/internal/logging"
	"github.com/tempcast/tempcast/internal/models"
	"github.com/tempcast/tempcast/internal/services"
	"github.com/tempcast/tempcast/internal/utils"
)

// LocationForecast handles forecast requests for a configured location
// GET /v1/locations/:region/forecast?forecast_until=2050
func (h *Handler) LocationForecast(c *fiber.Ctx) error {
	region := c.Params("region")

	loc, ok := h.findLocation(region)
	if !ok {
		return services.NewServiceErrorWithDetails(services.CodeLocationNotFound,
			fmt.Sprintf("unknown location: %s", region),
			map[string]interface{}{"region": region})
	}

	opts := h.forecastService.Defaults()
	opts.RequireHorizon = true

	if until := c.QueryInt("forecast_until", 0); until != 0 {
		if until < 1 || until > time.Now().Year()+utils.MaxHorizon {
			return badRequest(c, fmt.Sprintf("forecast_until must be between 1 and %d", time.Now().Year()+utils.MaxHorizon))
		}
		opts.ForecastUntil = until
	}
	if sims := c.QueryInt("simulations", 0); sims != 0 {
		if sims < 1 || sims > utils.MaxSimulations {
			return badRequest(c, fmt.Sprintf("simulations must be between 1 and %d", utils.MaxSimulations))
		}
		opts.Simulations = sims
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), utils.DefaultRequestTimeout)
	defer cancel()

	result, err := h.forecastService.Process(ctx, loc, opts)
	if err != nil {
		return err
	}

	resp := toForecastResponse(result)
	resp.RequestID = logging.RequestID(c.UserContext())
	return c.JSON(resp)
}

// ForecastPost handles inline series forecasts
// POST /v1/forecast
func (h *Handler) ForecastPost(c *fiber.Ctx) error {
	var body models.ForecastRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_JSON",
				Message: "Failed to parse JSON body",
				Details: map[string]interface{}{"error": err.Error()},
			},
		})
	}

	series, opts, msg := h.buildInlineRequest(&body)
	if msg != "" {
		return badRequest(c, msg)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), utils.DefaultRequestTimeout)
	defer cancel()

	result, err := h.forecastService.Forecast(ctx, series, opts)
	if err != nil {
		return err
	}

	resp := toForecastResponse(result)
	resp.RequestID = logging.RequestID(c.UserContext())
	resp.Observed = result.Observed
	return c.JSON(resp)
}

// buildInlineRequest validates body against the request limits and merges it
// with the service defaults. A non-empty message rejects the request.
func (h *Handler) buildInlineRequest(body *models.ForecastRequest) (analytics.AnnualSeries, services.ForecastOptions, string) {
	opts := h.forecastService.Defaults()

	if len(body.Series) == 0 {
		return nil, opts, "series is required"
	}
	if len(body.Series) > utils.MaxSeriesLength {
		return nil, opts, fmt.Sprintf("series exceeds %d points", utils.MaxSeriesLength)
	}

	series := make(analytics.AnnualSeries, len(body.Series))
	for i, p := range body.Series {
		series[i] = analytics.YearValue{Year: p.Year, Value: p.Value}
	}
	sort.SliceStable(series, func(i, j int) bool { return series[i].Year < series[j].Year })

	// An inline series is trained on in full
	opts.HistoricalEndYear = 0
	opts.RequireHorizon = true

	switch {
	case body.Horizon < 0:
		return nil, opts, "horizon must not be negative"
	case body.Horizon > 0:
		opts.Horizon = body.Horizon
	case body.ForecastUntil > 0:
		opts.ForecastUntil = body.ForecastUntil
	}
	horizon := opts.Horizon
	if horizon == 0 {
		horizon = opts.ForecastUntil - series.LastYear()
	}
	if horizon > utils.MaxHorizon {
		return nil, opts, fmt.Sprintf("horizon exceeds %d years", utils.MaxHorizon)
	}

	if body.NLags != 0 {
		if body.NLags > utils.MaxNLags {
			return nil, opts, fmt.Sprintf("nlags exceeds %d", utils.MaxNLags)
		}
		opts.NLags = body.NLags
	}
	if body.Simulations != 0 {
		if body.Simulations > utils.MaxSimulations {
			return nil, opts, fmt.Sprintf("simulations exceeds %d", utils.MaxSimulations)
		}
		opts.Simulations = body.Simulations
	}
	if body.BlockSize != 0 {
		opts.BlockSize = body.BlockSize
	}
	if body.Seed != nil {
		opts.Seed = *body.Seed
	}
	if body.ResidualScope != "" {
		scope, err := forecast.ParseResidualScope(body.ResidualScope)
		if err != nil {
			return nil, opts, err.Error()
		}
		opts.ResidualScope = scope
	}
	if len(body.Percentiles) > 0 {
		for _, p := range body.Percentiles {
			if p < 0 || p > 1 {
				return nil, opts, fmt.Sprintf("percentile %v outside [0,1]", p)
			}
		}
		opts.Percentiles = body.Percentiles
	}

	return series, opts, ""
}

// toForecastResponse converts a service result to the API view
func toForecastResponse(r *services.LocationResult) models.ForecastResponse {
	resp := models.ForecastResponse{
		Region:        r.Region,
		FirstYear:     r.Observed.FirstYear(),
		LastYear:      r.Observed.LastYear(),
		TrainLastYear: r.TrainLastYear,
		Horizon:       r.Horizon,
		Seed:          r.Seed,
		Trend:         r.Trend,
		Evidence:      r.Evidence,
		TrendLine:     r.TrendLine,
		Holt:          r.Holt,
		HoltModel:     r.HoltModel,
		Lag:           r.Lag,
		LagValidation: r.LagValidation,
		EnsembleError: r.EnsembleError,
		Anomalies:     r.Anomalies,
		Summary:       r.Summary,
	}
	if resp.Holt == nil {
		resp.Holt = forecast.ForecastSeries{}
	}
	if resp.Lag == nil {
		resp.Lag = forecast.ForecastSeries{}
	}
	if resp.TrendLine == nil {
		resp.TrendLine = forecast.ForecastSeries{}
	}

	if r.Ensemble != nil {
		resp.Simulations = r.Ensemble.Cols()
	}
	for _, b := range r.Bands {
		values := make(map[string]float64, len(b.Values))
		for i, v := range b.Values {
			if i < len(r.Percentiles) {
				values[forecast.PercentileLabel(r.Percentiles[i])] = v
			}
		}
		resp.Bands = append(resp.Bands, models.BandResponse{Year: b.Year, Values: values})
	}

	return resp
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "INVALID_REQUEST",
			Message: message,
		},
	})
}
