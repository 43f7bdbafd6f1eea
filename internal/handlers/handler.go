package handlers

import (
	"strings"

	"github.com/tempcast/tempcast/internal/climate"
	"github.com/tempcast/tempcast/internal/logging"
	"github.com/tempcast/tempcast/internal/metrics"
	"github.com/tempcast/tempcast/internal/services"
)

// Handler contains all HTTP handlers
type Handler struct {
	logger    *logging.Logger
	locations []climate.Location
	metrics   *metrics.Metrics
	version   string

	// Services
	forecastService *services.ForecastService
}

// New creates a new handler instance
func New(logger *logging.Logger, forecastService *services.ForecastService,
	locations []climate.Location, m *metrics.Metrics, version string,
) *Handler {
	if version == "" {
		version = "dev"
	}
	return &Handler{
		logger:          logger,
		locations:       locations,
		metrics:         m,
		version:         version,
		forecastService: forecastService,
	}
}

// findLocation resolves a region slug or a configured name, ignoring case
func (h *Handler) findLocation(region string) (climate.Location, bool) {
	for _, loc := range h.locations {
		if strings.EqualFold(loc.Slug(), region) || strings.EqualFold(loc.Name, region) {
			return loc, true
		}
	}
	return climate.Location{}, false
}
