package anomaly

import (
	"math"
)

// MovingAverageDetector compares each year to the mean of its neighbours within a
// centered window. It picks up abrupt shifts that a whole-series statistic misses.
type MovingAverageDetector struct{}

// Name returns the algorithm name
func (ma *MovingAverageDetector) Name() string {
	return "moving_avg"
}

// Detect finds anomalies using moving average method
func (ma *MovingAverageDetector) Detect(values []float64, config DetectorConfig) []Result {
	if len(values) < config.MinDataPoints || len(values) == 0 {
		return nil
	}

	windowSize := config.WindowSize
	if windowSize <= 0 {
		windowSize = 10
	}
	if windowSize > len(values) {
		windowSize = len(values) / 2
	}
	if windowSize < 3 {
		windowSize = 3
	}

	var results []Result
	for i, v := range values {
		start := i - windowSize/2
		end := i + windowSize/2
		if start < 0 {
			start = 0
		}
		if end >= len(values) {
			end = len(values) - 1
		}

		// Neighbours only, the year itself is excluded
		var sum float64
		count := 0
		for j := start; j <= end; j++ {
			if j != i {
				sum += values[j]
				count++
			}
		}
		if count == 0 {
			continue
		}
		localMean := sum / float64(count)

		var varianceSum float64
		for j := start; j <= end; j++ {
			if j != i {
				diff := values[j] - localMean
				varianceSum += diff * diff
			}
		}
		localStdDev := math.Sqrt(varianceSum / float64(count))

		var deviation float64
		if localStdDev > 0 {
			deviation = math.Abs(v-localMean) / localStdDev
		} else if v != localMean {
			// No variation in the window, any difference is significant
			deviation = config.Threshold + 1
		}

		if deviation > config.Threshold {
			results = append(results, Result{
				Index: i,
				Score: deviation,
				Type:  direction(v - localMean),
				Expected: &Range{
					Min: localMean - config.Threshold*localStdDev,
					Max: localMean + config.Threshold*localStdDev,
				},
			})
		}
	}

	return results
}

// CalculateMovingAverage returns the centered moving average of values
func CalculateMovingAverage(values []float64, windowSize int) []float64 {
	if len(values) == 0 {
		return nil
	}

	result := make([]float64, len(values))
	for i := range values {
		start := i - windowSize/2
		end := i + windowSize/2
		if start < 0 {
			start = 0
		}
		if end >= len(values) {
			end = len(values) - 1
		}

		var sum float64
		for j := start; j <= end; j++ {
			sum += values[j]
		}
		result[i] = sum / float64(end-start+1)
	}

	return result
}
