package anomaly

import (
	"sort"

	"github.com/tempcast/tempcast/internal/analytics/forecast"
)

// IQRDetector flags values outside [Q1 - k*IQR, Q3 + k*IQR]. It is less sensitive
// to the outliers themselves than Z-Score.
type IQRDetector struct{}

// Name returns the algorithm name
func (iqr *IQRDetector) Name() string {
	return "iqr"
}

// Detect finds anomalies using IQR method
func (iqr *IQRDetector) Detect(values []float64, config DetectorConfig) []Result {
	if len(values) < config.MinDataPoints || len(values) == 0 {
		return nil
	}

	q1, q3, iqrValue := CalculateIQR(values)

	// Thresholds of 3 and above are Z-Score style; use the standard multiplier
	multiplier := config.Threshold
	if multiplier <= 0 || multiplier >= 3 {
		multiplier = 1.5
	}

	lowerBound := q1 - multiplier*iqrValue
	upperBound := q3 + multiplier*iqrValue
	expectedRange := &Range{Min: lowerBound, Max: upperBound}

	var results []Result
	for i, v := range values {
		if v >= lowerBound && v <= upperBound {
			continue
		}

		score := 1.0
		if iqrValue > 0 {
			if v < lowerBound {
				score = (lowerBound - v) / iqrValue
			} else {
				score = (v - upperBound) / iqrValue
			}
		}

		anomalyType := AnomalyTypeCold
		if v > upperBound {
			anomalyType = AnomalyTypeWarm
		}

		results = append(results, Result{
			Index:    i,
			Score:    score,
			Type:     anomalyType,
			Expected: expectedRange,
		})
	}

	return results
}

// CalculateIQR returns Q1, Q3, and IQR for a slice of values
func CalculateIQR(values []float64) (q1, q3, iqr float64) {
	if len(values) == 0 {
		return 0, 0, 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 = forecast.Quantile(0.25, sorted)
	q3 = forecast.Quantile(0.75, sorted)
	return q1, q3, q3 - q1
}
