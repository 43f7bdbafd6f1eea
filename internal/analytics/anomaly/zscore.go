package anomaly

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ZScoreDetector flags values more than Threshold standard deviations from the mean
type ZScoreDetector struct{}

// Name returns the algorithm name
func (z *ZScoreDetector) Name() string {
	return "zscore"
}

// Detect finds anomalies using Z-Score method
func (z *ZScoreDetector) Detect(values []float64, config DetectorConfig) []Result {
	if len(values) < config.MinDataPoints || len(values) == 0 {
		return nil
	}

	mean, stdDev := stat.PopMeanStdDev(values, nil)

	// A flat series (or a perfectly detrended one) has nothing to compare against
	if stdDev < 1e-12 {
		return nil
	}

	expectedRange := &Range{
		Min: mean - config.Threshold*stdDev,
		Max: mean + config.Threshold*stdDev,
	}

	var results []Result
	for i, v := range values {
		zScore := CalculateZScore(v, mean, stdDev)
		if math.Abs(zScore) > config.Threshold {
			results = append(results, Result{
				Index:    i,
				Score:    math.Abs(zScore),
				Type:     direction(zScore),
				Expected: expectedRange,
			})
		}
	}

	return results
}

// CalculateZScore calculates Z-Score for a single value given mean and stdDev
func CalculateZScore(value, mean, stdDev float64) float64 {
	if stdDev == 0 {
		return 0
	}
	return (value - mean) / stdDev
}
