package models

import (
	"github.com/tempcast/tempcast/internal/analytics"
	"github.com/tempcast/tempcast/internal/analytics/anomaly"
	"github.com/tempcast/tempcast/internal/analytics/forecast"
)

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Locations int    `json:"locations"`
	Metrics   bool   `json:"metrics"`
}

// LocationResponse represents one configured location
type LocationResponse struct {
	Name      string  `json:"name"`
	Region    string  `json:"region"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationListResponse represents list locations response
type LocationListResponse struct {
	Locations []LocationResponse `json:"locations"`
	Count     int                `json:"count"`
}

// BandResponse is the ensemble percentiles of one forecast year, keyed p5, p50, ...
type BandResponse struct {
	Year   int                `json:"year"`
	Values map[string]float64 `json:"values"`
}

// ForecastResponse represents the forecast of one location or inline series
type ForecastResponse struct {
	Region        string                  `json:"region,omitempty"`
	RequestID     string                  `json:"request_id,omitempty"`
	FirstYear     int                     `json:"first_year"`
	LastYear      int                     `json:"last_year"`
	TrainLastYear int                     `json:"train_last_year"`
	Horizon       int                     `json:"horizon"`
	Seed          uint64                  `json:"seed"`
	Trend         forecast.TrendResult    `json:"trend"`
	Evidence      string                  `json:"evidence"`
	TrendLine     forecast.ForecastSeries `json:"trend_line"`
	Holt          forecast.ForecastSeries `json:"holt"`
	HoltModel     *forecast.HoltModel     `json:"holt_model,omitempty"`
	Lag           forecast.ForecastSeries `json:"lag"`
	LagValidation forecast.Accuracy       `json:"lag_validation"`
	Simulations   int                     `json:"simulations,omitempty"`
	Bands         []BandResponse          `json:"bands,omitempty"`
	EnsembleError string                  `json:"ensemble_error,omitempty"`
	Anomalies     []anomaly.Anomaly       `json:"anomalies"`
	Summary       interface{}             `json:"summary"`
	Observed      analytics.AnnualSeries  `json:"observed,omitempty"`
}

// ErrorResponse represents error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Path    string                 `json:"path,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}
