package anomaly

import (
	"fmt"

	"github.com/tempcast/tempcast/internal/analytics"
	"github.com/tempcast/tempcast/internal/analytics/forecast"
)

// AnomalyType represents the type of anomaly detected
type AnomalyType string

const (
	AnomalyTypeWarm AnomalyType = "warm" // Year well above the expected range
	AnomalyTypeCold AnomalyType = "cold" // Year well below the expected range
)

// Anomaly is an unusual year in an annual series
type Anomaly struct {
	Year      int         `json:"year"`
	Value     float64     `json:"value"`
	Expected  *Range      `json:"expected,omitempty"`
	Score     float64     `json:"score"`     // How anomalous (higher = more abnormal)
	Type      AnomalyType `json:"type"`      // Type of anomaly
	Algorithm string      `json:"algorithm"` // Which algorithm detected it
}

// Range represents expected value range
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DetectorConfig holds configuration for anomaly detection
type DetectorConfig struct {
	// Threshold for detection sensitivity (std deviations for Z-Score, IQR multiplier for IQR)
	Threshold float64

	// WindowSize for the moving average detector
	WindowSize int

	// MinDataPoints minimum number of years required for detection
	MinDataPoints int

	// Detrend runs detection on deviations from the linear trend, so a warming
	// series does not flag its most recent years.
	Detrend bool
}

// DefaultConfig returns default detector configuration
func DefaultConfig() DetectorConfig {
	return DetectorConfig{
		Threshold:     3.0,
		WindowSize:    10,
		MinDataPoints: 10,
		Detrend:       true,
	}
}

// Detector is implemented by every anomaly detection algorithm
type Detector interface {
	// Name returns the algorithm name
	Name() string

	// Detect returns the indices of anomalous values and their scores
	Detect(values []float64, config DetectorConfig) []Result
}

// Result contains detection result for a single value
type Result struct {
	Index    int         // Index in original data
	Score    float64     // Anomaly score
	Type     AnomalyType // Type of anomaly
	Expected *Range      // Expected range
}

// Algorithms returns the supported detector names
func Algorithms() []string {
	return []string{"zscore", "iqr", "moving_avg"}
}

// NewDetector returns the detector for name
func NewDetector(name string) (Detector, error) {
	switch name {
	case "zscore":
		return &ZScoreDetector{}, nil
	case "iqr":
		return &IQRDetector{}, nil
	case "moving_avg":
		return &MovingAverageDetector{}, nil
	default:
		return nil, fmt.Errorf("unknown anomaly detector: %s", name)
	}
}

// DetectAnomalies finds anomalous years in series with the named algorithm.
// Expected ranges are reported on the original scale.
func DetectAnomalies(algorithm string, series analytics.AnnualSeries, config DetectorConfig) ([]Anomaly, error) {
	detector, err := NewDetector(algorithm)
	if err != nil {
		return nil, err
	}

	values := series.Values()
	baseline := make([]float64, len(values))
	if config.Detrend && len(series) >= 2 {
		trend, err := forecast.EstimateTrend(series)
		if err != nil {
			return nil, err
		}
		for i, p := range series {
			baseline[i] = trend.At(p.Year)
			values[i] -= baseline[i]
		}
	}

	results := detector.Detect(values, config)
	anomalies := make([]Anomaly, 0, len(results))
	for _, r := range results {
		a := Anomaly{
			Year:      series[r.Index].Year,
			Value:     series[r.Index].Value,
			Score:     r.Score,
			Type:      r.Type,
			Algorithm: detector.Name(),
		}
		if r.Expected != nil {
			a.Expected = &Range{
				Min: r.Expected.Min + baseline[r.Index],
				Max: r.Expected.Max + baseline[r.Index],
			}
		}
		anomalies = append(anomalies, a)
	}
	return anomalies, nil
}

func direction(deviation float64) AnomalyType {
	if deviation > 0 {
		return AnomalyTypeWarm
	}
	return AnomalyTypeCold
}
