package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tempcast/tempcast/internal/analytics"
	"github.com/tempcast/tempcast/internal/climate"
	"github.com/tempcast/tempcast/internal/config"
	"github.com/tempcast/tempcast/internal/logging"
	"github.com/tempcast/tempcast/internal/metrics"
	"github.com/tempcast/tempcast/internal/models"
	"github.com/tempcast/tempcast/internal/services"
)

type emptySource struct{}

func (emptySource) AnnualSeries(ctx context.Context, loc climate.Location) (analytics.AnnualSeries, error) {
	return nil, climate.ErrFetch
}

func newApp(t *testing.T, auth config.AuthConfig) (*fiber.App, *metrics.Metrics) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Auth = auth

	svc := services.NewForecastService(logging.NewNop(), emptySource{},
		services.OptionsFromConfig(cfg.Forecast, cfg.Anomaly))
	m := metrics.New()
	locations := climate.LocationsFromConfig(cfg.Locations)
	return New(logging.NewNop(), svc, locations, m, *cfg, "1.2.3"), m
}

func TestRouter_PublicRoutes(t *testing.T) {
	key := strings.Repeat("k", 40)
	app, _ := newApp(t, config.AuthConfig{Enabled: true, APIKeys: []string{key}})

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	var health models.HealthResponse
	body, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "1.2.3", health.Version)

	resp, err = app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestRouter_AuthOnV1(t *testing.T) {
	key := strings.Repeat("k", 40)
	app, m := newApp(t, config.AuthConfig{Enabled: true, APIKeys: []string{key}})

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/locations", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest("GET", "/v1/locations", nil)
	req.Header.Set("X-API-Key", key)
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var list models.LocationListResponse
	body, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Equal(t, 8, list.Count)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/v1/locations", "200")))
}

func TestRouter_ServiceErrorEnvelope(t *testing.T) {
	app, _ := newApp(t, config.AuthConfig{})

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/locations/India/forecast", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	var errResp models.ErrorResponse
	body, _ := io.ReadAll(resp.Body)
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, services.CodeFetchFailed, errResp.Error.Code)
	assert.Equal(t, "India", errResp.Error.Details["region"])
}

func TestRouter_NotFound(t *testing.T) {
	app, _ := newApp(t, config.AuthConfig{})

	resp, err := app.Test(httptest.NewRequest("GET", "/v2/nothing", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
