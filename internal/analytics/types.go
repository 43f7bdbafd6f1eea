// Package analytics provides common types and utilities for annual time-series analytics
// including forecasting and anomaly detection.
package analytics

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSeries is returned by Validate when a series breaks the ordering contract.
var ErrInvalidSeries = errors.New("invalid annual series")

// YearValue is a single annual observation.
// This is the common type used across all analytics packages (forecast, anomaly, etc.)
type YearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// AnnualSeries is an ordered sequence of annual observations with strictly
// increasing years. Forecasters never modify a series passed to them.
type AnnualSeries []YearValue

// NewAnnualSeries builds a contiguous series starting at firstYear.
func NewAnnualSeries(firstYear int, values []float64) AnnualSeries {
	s := make(AnnualSeries, len(values))
	for i, v := range values {
		s[i] = YearValue{Year: firstYear + i, Value: v}
	}
	return s
}

// Values extracts just the values from the series
func (s AnnualSeries) Values() []float64 {
	values := make([]float64, len(s))
	for i, p := range s {
		values[i] = p.Value
	}
	return values
}

// Years extracts just the years from the series
func (s AnnualSeries) Years() []int {
	years := make([]int, len(s))
	for i, p := range s {
		years[i] = p.Year
	}
	return years
}

// YearsFloat returns the years as float64, the regressor form used by OLS.
func (s AnnualSeries) YearsFloat() []float64 {
	years := make([]float64, len(s))
	for i, p := range s {
		years[i] = float64(p.Year)
	}
	return years
}

// Len returns the number of data points
func (s AnnualSeries) Len() int {
	return len(s)
}

// FirstYear returns the first year, or 0 for an empty series.
func (s AnnualSeries) FirstYear() int {
	if len(s) == 0 {
		return 0
	}
	return s[0].Year
}

// LastYear returns the last year, or 0 for an empty series.
func (s AnnualSeries) LastYear() int {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Year
}

// Until returns the prefix of the series with years <= year.
// The returned slice shares memory with s.
func (s AnnualSeries) Until(year int) AnnualSeries {
	n := 0
	for n < len(s) && s[n].Year <= year {
		n++
	}
	return s[:n]
}

// Clone returns a copy that does not share memory with s.
func (s AnnualSeries) Clone() AnnualSeries {
	out := make(AnnualSeries, len(s))
	copy(out, s)
	return out
}

// Validate checks that years are strictly increasing and values are finite.
// Interior gaps are allowed; forecasters assume there are none.
func (s AnnualSeries) Validate() error {
	for i, p := range s {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return fmt.Errorf("%w: non-finite value for year %d", ErrInvalidSeries, p.Year)
		}
		if i > 0 && p.Year <= s[i-1].Year {
			return fmt.Errorf("%w: year %d does not follow %d", ErrInvalidSeries, p.Year, s[i-1].Year)
		}
	}
	return nil
}

// Mean calculates the mean of all values
func (s AnnualSeries) Mean() float64 {
	if len(s) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range s {
		sum += p.Value
	}
	return sum / float64(len(s))
}

// StdDev calculates the sample standard deviation of all values
func (s AnnualSeries) StdDev() float64 {
	if len(s) < 2 {
		return 0
	}
	mean := s.Mean()
	sumSq := 0.0
	for _, p := range s {
		diff := p.Value - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(s)-1))
}
