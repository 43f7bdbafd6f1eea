package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tempcast/tempcast/internal/analytics"
	"github.com/tempcast/tempcast/internal/analytics/forecast"
	"github.com/tempcast/tempcast/internal/climate"
	"github.com/tempcast/tempcast/internal/logging"
	"github.com/tempcast/tempcast/internal/metrics"
	"github.com/tempcast/tempcast/internal/middleware"
	"github.com/tempcast/tempcast/internal/models"
	"github.com/tempcast/tempcast/internal/services"
	"github.com/tempcast/tempcast/internal/utils"
)

type fakeSource map[string]analytics.AnnualSeries

func (f fakeSource) AnnualSeries(ctx context.Context, loc climate.Location) (analytics.AnnualSeries, error) {
	s, ok := f[loc.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %s: status 503", climate.ErrFetch, loc.Name)
	}
	return s.Clone(), nil
}

func testSeries(firstYear, n int) analytics.AnnualSeries {
	values := make([]float64, n)
	for i := range values {
		values[i] = 12 + 0.03*float64(i) + 0.4*math.Sin(float64(i)*1.3)
	}
	return analytics.NewAnnualSeries(firstYear, values)
}

func newTestApp(t *testing.T) (*fiber.App, *metrics.Metrics) {
	t.Helper()

	defaults := services.ForecastOptions{
		ForecastUntil:     2030,
		HistoricalEndYear: 2024,
		NLags:             3,
		Trees:             10,
		Simulations:       20,
		BlockSize:         2,
		Seed:              1,
		ResidualScope:     forecast.ResidualScopeTraining,
		Percentiles:       []float64{0.05, 0.5, 0.95},
		EvidenceThreshold: 0.1,
	}
	source := fakeSource{"London_UK": testSeries(1980, 45)}
	svc := services.NewForecastService(logging.NewNop(), source, defaults)

	locations := []climate.Location{
		{Name: "London_UK", Latitude: 51.5, Longitude: -0.13},
		{Name: "South Africa", Latitude: -30, Longitude: 22},
	}
	m := metrics.New()
	h := New(logging.NewNop(), svc, locations, m, "test")

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logging.NewNop())})
	app.Get("/metrics", h.Metrics())
	app.Get("/v1/locations", h.ListLocations)
	app.Get("/v1/locations/:region/forecast", h.LocationForecast)
	app.Post("/v1/forecast", h.ForecastPost)
	return app, m
}

func doRequest(t *testing.T, app *fiber.App, method, path string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp, data
}

func decodeError(t *testing.T, data []byte) models.ErrorDetail {
	t.Helper()
	var errResp models.ErrorResponse
	require.NoError(t, json.Unmarshal(data, &errResp), string(data))
	return errResp.Error
}

func TestHandler_ListLocations(t *testing.T) {
	app, _ := newTestApp(t)

	resp, data := doRequest(t, app, "GET", "/v1/locations", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list models.LocationListResponse
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, "London_UK", list.Locations[0].Region)
	assert.Equal(t, "South_Africa", list.Locations[1].Region)
	assert.Equal(t, "South Africa", list.Locations[1].Name)
}

func TestHandler_LocationForecast(t *testing.T) {
	app, _ := newTestApp(t)

	for _, region := range []string{"London_UK", "london_uk"} {
		t.Run(region, func(t *testing.T) {
			resp, data := doRequest(t, app, "GET", "/v1/locations/"+region+"/forecast?forecast_until=2030", nil)
			require.Equal(t, fiber.StatusOK, resp.StatusCode, string(data))

			var fr models.ForecastResponse
			require.NoError(t, json.Unmarshal(data, &fr))
			assert.Equal(t, "London_UK", fr.Region)
			assert.Equal(t, 1980, fr.FirstYear)
			assert.Equal(t, 2024, fr.LastYear)
			assert.Equal(t, 2024, fr.TrainLastYear)
			assert.Equal(t, 6, fr.Horizon)
			require.Len(t, fr.Holt, 6)
			require.Len(t, fr.Lag, 6)
			assert.Equal(t, 2025, fr.Holt[0].Year)
			assert.Equal(t, 2030, fr.Lag[5].Year)
			assert.Equal(t, 20, fr.Simulations)
			require.Len(t, fr.Bands, 6)
			assert.Contains(t, fr.Bands[0].Values, "p5")
			assert.Contains(t, fr.Bands[0].Values, "p95")
			assert.LessOrEqual(t, fr.Bands[5].Values["p5"], fr.Bands[5].Values["p95"])
			assert.Nil(t, fr.Observed)
		})
	}
}

func TestHandler_LocationForecast_Errors(t *testing.T) {
	app, _ := newTestApp(t)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "unknown location",
			path:           "/v1/locations/Atlantis/forecast",
			expectedStatus: fiber.StatusNotFound,
			expectedCode:   services.CodeLocationNotFound,
		},
		{
			name:           "forecast year before data end",
			path:           "/v1/locations/London_UK/forecast?forecast_until=2020",
			expectedStatus: fiber.StatusUnprocessableEntity,
			expectedCode:   services.CodeNothingToForecast,
		},
		{
			name:           "forecast year too far",
			path:           fmt.Sprintf("/v1/locations/London_UK/forecast?forecast_until=%d", 100000),
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:           "too many simulations",
			path:           fmt.Sprintf("/v1/locations/London_UK/forecast?simulations=%d", utils.MaxSimulations+1),
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:           "upstream failure",
			path:           "/v1/locations/South_Africa/forecast",
			expectedStatus: fiber.StatusBadGateway,
			expectedCode:   services.CodeFetchFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := doRequest(t, app, "GET", tt.path, nil)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode, string(data))
			assert.Equal(t, tt.expectedCode, decodeError(t, data).Code)
		})
	}
}

func seriesPoints(s analytics.AnnualSeries) []models.SeriesPoint {
	points := make([]models.SeriesPoint, len(s))
	for i, p := range s {
		points[i] = models.SeriesPoint{Year: p.Year, Value: p.Value}
	}
	return points
}

func TestHandler_ForecastPost(t *testing.T) {
	app, _ := newTestApp(t)
	seed := uint64(42)

	body := models.ForecastRequest{
		Series:      seriesPoints(testSeries(1990, 30)),
		Horizon:     5,
		NLags:       4,
		Simulations: 30,
		BlockSize:   3,
		Seed:        &seed,
		Percentiles: []float64{0.1, 0.9},
	}

	resp, data := doRequest(t, app, "POST", "/v1/forecast", body)
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(data))

	var fr models.ForecastResponse
	require.NoError(t, json.Unmarshal(data, &fr))
	assert.Equal(t, 2019, fr.TrainLastYear)
	assert.Equal(t, 5, fr.Horizon)
	assert.Equal(t, uint64(42), fr.Seed)
	assert.Len(t, fr.Holt, 5)
	assert.Len(t, fr.TrendLine, 5)
	assert.Len(t, fr.Observed, 30)
	assert.Equal(t, 30, fr.Simulations)
	require.Len(t, fr.Bands, 5)
	assert.Contains(t, fr.Bands[0].Values, "p10")
	assert.Contains(t, fr.Bands[0].Values, "p90")

	// Same request, same numbers
	_, again := doRequest(t, app, "POST", "/v1/forecast", body)
	var fr2 models.ForecastResponse
	require.NoError(t, json.Unmarshal(again, &fr2))
	assert.Equal(t, fr.Bands, fr2.Bands)
	assert.Equal(t, fr.Lag, fr2.Lag)
}

func TestHandler_ForecastPost_UnsortedSeries(t *testing.T) {
	app, _ := newTestApp(t)

	points := seriesPoints(testSeries(2000, 20))
	points[0], points[19] = points[19], points[0]

	resp, data := doRequest(t, app, "POST", "/v1/forecast", models.ForecastRequest{Series: points, ForecastUntil: 2022})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(data))

	var fr models.ForecastResponse
	require.NoError(t, json.Unmarshal(data, &fr))
	assert.Equal(t, 2000, fr.FirstYear)
	assert.Equal(t, 3, fr.Horizon)
}

func TestHandler_ForecastPost_Errors(t *testing.T) {
	app, _ := newTestApp(t)

	long := make([]models.SeriesPoint, utils.MaxSeriesLength+1)
	for i := range long {
		long[i] = models.SeriesPoint{Year: i, Value: 1}
	}
	duplicate := seriesPoints(testSeries(2000, 10))
	duplicate[5].Year = duplicate[4].Year

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "malformed json",
			body:           "{not json",
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   "INVALID_JSON",
		},
		{
			name:           "empty series",
			body:           models.ForecastRequest{Horizon: 3},
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:           "series too long",
			body:           models.ForecastRequest{Series: long, Horizon: 1},
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:           "horizon too long",
			body:           models.ForecastRequest{Series: seriesPoints(testSeries(2000, 20)), Horizon: utils.MaxHorizon + 1},
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:           "negative horizon",
			body:           models.ForecastRequest{Series: seriesPoints(testSeries(2000, 20)), Horizon: -2},
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:           "lag window too wide",
			body:           models.ForecastRequest{Series: seriesPoints(testSeries(1000, 1600)), Horizon: 5, NLags: utils.MaxNLags + 1},
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:           "unknown residual scope",
			body:           models.ForecastRequest{Series: seriesPoints(testSeries(2000, 20)), Horizon: 2, ResidualScope: "all"},
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:           "percentile out of range",
			body:           models.ForecastRequest{Series: seriesPoints(testSeries(2000, 20)), Horizon: 2, Percentiles: []float64{50}},
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:           "duplicate year",
			body:           models.ForecastRequest{Series: duplicate, Horizon: 2},
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   services.CodeInvalidSeries,
		},
		{
			name:           "nothing to forecast",
			body:           models.ForecastRequest{Series: seriesPoints(testSeries(2000, 20)), ForecastUntil: 2010},
			expectedStatus: fiber.StatusUnprocessableEntity,
			expectedCode:   services.CodeNothingToForecast,
		},
		{
			name:           "too short for the lag window",
			body:           models.ForecastRequest{Series: seriesPoints(testSeries(2000, 3)), Horizon: 2, NLags: 3},
			expectedStatus: fiber.StatusUnprocessableEntity,
			expectedCode:   services.CodeInsufficientData,
		},
		{
			name:           "non-positive block size",
			body:           models.ForecastRequest{Series: seriesPoints(testSeries(2000, 20)), Horizon: 2, BlockSize: -1},
			expectedStatus: fiber.StatusBadRequest,
			expectedCode:   services.CodeInvalidConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := doRequest(t, app, "POST", "/v1/forecast", tt.body)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode, string(data))
			assert.Equal(t, tt.expectedCode, decodeError(t, data).Code)
		})
	}
}

func TestHandler_Metrics(t *testing.T) {
	app, m := newTestApp(t)
	m.ObserveHTTP("GET", "/v1/locations", "200")

	resp, data := doRequest(t, app, "GET", "/metrics", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), "tempcast_http_requests_total")
}

func TestHandler_MetricsDisabled(t *testing.T) {
	h := New(logging.NewNop(), nil, nil, nil, "")
	app := fiber.New()
	app.Get("/metrics", h.Metrics())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
