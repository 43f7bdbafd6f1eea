package forecast

import (
	"fmt"
	"math"

	"github.com/tempcast/tempcast/internal/analytics"
)

// ForecastPoint represents a single forecast prediction
type ForecastPoint struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// ForecastSeries is a contiguous run of forecast years following the input series.
type ForecastSeries []ForecastPoint

// Values extracts the predicted values
func (fs ForecastSeries) Values() []float64 {
	values := make([]float64, len(fs))
	for i, p := range fs {
		values[i] = p.Value
	}
	return values
}

// Years extracts the forecast years
func (fs ForecastSeries) Years() []int {
	years := make([]int, len(fs))
	for i, p := range fs {
		years[i] = p.Year
	}
	return years
}

// Last returns the final forecast point. ok is false for an empty series.
func (fs ForecastSeries) Last() (ForecastPoint, bool) {
	if len(fs) == 0 {
		return ForecastPoint{}, false
	}
	return fs[len(fs)-1], true
}

// newForecastSeries pairs values with years lastYear+1, lastYear+2, ...
func newForecastSeries(lastYear int, values []float64) ForecastSeries {
	fs := make(ForecastSeries, len(values))
	for i, v := range values {
		fs[i] = ForecastPoint{Year: lastYear + 1 + i, Value: v}
	}
	return fs
}

// ModelInfo contains metadata about the forecast model
type ModelInfo struct {
	Algorithm  string                 `json:"algorithm"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	MAPE       float64                `json:"mape,omitempty"` // Mean Absolute Percentage Error
	MAE        float64                `json:"mae,omitempty"`  // Mean Absolute Error
	RMSE       float64                `json:"rmse,omitempty"` // Root Mean Squared Error
	DataPoints int                    `json:"data_points"`    // Number of data points used
}

// ForecastResult contains the forecast predictions and model information
type ForecastResult struct {
	Predictions ForecastSeries `json:"predictions"`
	Fitted      []float64      `json:"fitted,omitempty"`    // Fitted values for historical data
	Residuals   []float64      `json:"residuals,omitempty"` // Residuals (actual - fitted)
	ModelInfo   ModelInfo      `json:"model_info"`
}

// ForecastConfig holds configuration shared by the forecasters
type ForecastConfig struct {
	NLags    int    // Lag window size for the lag-feature forecaster
	Trees    int    // Number of bagged trees in the random forest
	MaxDepth int    // Maximum tree depth (0 = unlimited)
	Seed     uint64 // Seed for every random stream of one location
}

// DefaultForecastConfig returns default forecast configuration
func DefaultForecastConfig() ForecastConfig {
	return ForecastConfig{
		NLags: 5,
		Trees: 200,
		Seed:  0,
	}
}

// Method names one member of the closed set of forecasters.
type Method string

const (
	MethodTrend            Method = "trend"
	MethodLagFeature       Method = "lag_feature"
	MethodExponentialTrend Method = "exponential_trend"
)

// Methods returns every supported method in a stable order.
func Methods() []Method {
	return []Method{MethodTrend, MethodLagFeature, MethodExponentialTrend}
}

// Forecaster is the capability shared by all forecasting variants
type Forecaster interface {
	// Name returns the algorithm name
	Name() string
	// FitAndForecast fits the model to series and predicts horizon future years.
	// A zero horizon returns an empty forecast without fitting.
	FitAndForecast(series analytics.AnnualSeries, horizon int) (*ForecastResult, error)
}

// New returns the forecaster for method.
func New(method Method, config ForecastConfig) (Forecaster, error) {
	switch method {
	case MethodTrend:
		return NewTrendForecaster(), nil
	case MethodLagFeature:
		return NewLagFeatureForecaster(config)
	case MethodExponentialTrend:
		return NewHoltForecaster(), nil
	default:
		return nil, fmt.Errorf("unknown forecaster: %s", method)
	}
}

// CalculateMAPE calculates Mean Absolute Percentage Error
func CalculateMAPE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	count := 0
	for i := range actual {
		if actual[i] != 0 {
			sum += math.Abs((actual[i] - predicted[i]) / actual[i])
			count++
		}
	}

	if count == 0 {
		return 0
	}
	return (sum / float64(count)) * 100
}

// CalculateMAE calculates Mean Absolute Error
func CalculateMAE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual))
}

// CalculateRMSE calculates Root Mean Squared Error
func CalculateRMSE(actual, predicted []float64) float64 {
	if len(actual) != len(predicted) || len(actual) == 0 {
		return 0
	}

	sum := 0.0
	for i := range actual {
		diff := actual[i] - predicted[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(actual)))
}

func checkHorizon(horizon int) error {
	if horizon < 0 {
		return invalidConfig("horizon must not be negative, got %d", horizon)
	}
	return nil
}
