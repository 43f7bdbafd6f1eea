// Package services runs the forecasting pipeline for locations and inline series.
// Services sit between the transports (CLI, HTTP) and the analytics packages.
package services

import (
	"context"
	"errors"

	"github.com/tempcast/tempcast/internal/analytics"
	"github.com/tempcast/tempcast/internal/analytics/forecast"
	"github.com/tempcast/tempcast/internal/climate"
)

// Service error codes
const (
	CodeInsufficientData     = "INSUFFICIENT_DATA"
	CodeNoResiduals          = "NO_RESIDUALS"
	CodeInvalidConfiguration = "INVALID_CONFIGURATION"
	CodeInvalidSeries        = "INVALID_SERIES"
	CodeFetchFailed          = "FETCH_FAILED"
	CodeNothingToForecast    = "NOTHING_TO_FORECAST"
	CodeLocationNotFound     = "LOCATION_NOT_FOUND"
	CodeTimeout              = "TIMEOUT"
	CodeInternal             = "INTERNAL_ERROR"
)

// ServiceError represents a service layer error
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`

	err error
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Unwrap returns the error the ServiceError was built from, if any
func (e *ServiceError) Unwrap() error {
	return e.err
}

// NewServiceError creates a new ServiceError
func NewServiceError(code, message string) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
	}
}

// NewServiceErrorWithDetails creates a new ServiceError with details
func NewServiceErrorWithDetails(code, message string, details map[string]interface{}) *ServiceError {
	return &ServiceError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// classify maps an analytics or data error to a ServiceError. A ServiceError passes through.
func classify(err error, details map[string]interface{}) *ServiceError {
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}

	code := CodeInternal
	switch {
	case errors.Is(err, forecast.ErrInsufficientData):
		code = CodeInsufficientData
	case errors.Is(err, forecast.ErrNoResiduals):
		code = CodeNoResiduals
	case errors.Is(err, forecast.ErrInvalidConfiguration):
		code = CodeInvalidConfiguration
	case errors.Is(err, analytics.ErrInvalidSeries):
		code = CodeInvalidSeries
	case errors.Is(err, climate.ErrFetch):
		code = CodeFetchFailed
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		code = CodeTimeout
	}

	return &ServiceError{Code: code, Message: err.Error(), Details: details, err: err}
}
