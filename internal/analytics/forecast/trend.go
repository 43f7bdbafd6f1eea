package forecast

import (
	"gonum.org/v1/gonum/stat"

	"github.com/tempcast/tempcast/internal/analytics"
)

// TrendResult is the linear trend of value against calendar year.
type TrendResult struct {
	SlopePerYear   float64 `json:"slope_per_year"`
	SlopePerDecade float64 `json:"slope_per_decade"`
	Intercept      float64 `json:"intercept"`
	R2             float64 `json:"r2"` // in-sample coefficient of determination
}

// At evaluates the fitted line at year.
func (t TrendResult) At(year int) float64 {
	return t.Intercept + t.SlopePerYear*float64(year)
}

// EstimateTrend fits ordinary least squares of value on year.
func EstimateTrend(series analytics.AnnualSeries) (TrendResult, error) {
	if len(series) < 2 {
		return TrendResult{}, insufficientData("trend", 2, len(series))
	}

	x := series.YearsFloat()
	y := series.Values()

	intercept, slope := stat.LinearRegression(x, y, nil, false)

	// RSquared divides by the total variance; a flat series is fitted exactly.
	r2 := 1.0
	if stat.Variance(y, nil) > 0 {
		r2 = stat.RSquared(x, y, nil, intercept, slope)
	}

	return TrendResult{
		SlopePerYear:   slope,
		SlopePerDecade: slope * 10,
		Intercept:      intercept,
		R2:             r2,
	}, nil
}

// TrendForecaster extrapolates the OLS trend line
type TrendForecaster struct{}

// NewTrendForecaster creates a new trend forecaster
func NewTrendForecaster() *TrendForecaster {
	return &TrendForecaster{}
}

// Name returns the algorithm name
func (f *TrendForecaster) Name() string {
	return string(MethodTrend)
}

// FitAndForecast extends the fitted line over horizon future years
func (f *TrendForecaster) FitAndForecast(series analytics.AnnualSeries, horizon int) (*ForecastResult, error) {
	if err := checkHorizon(horizon); err != nil {
		return nil, err
	}
	if horizon == 0 {
		return &ForecastResult{
			Predictions: ForecastSeries{},
			ModelInfo:   ModelInfo{Algorithm: f.Name(), DataPoints: len(series)},
		}, nil
	}

	trend, err := EstimateTrend(series)
	if err != nil {
		return nil, err
	}

	actual := series.Values()
	fitted := make([]float64, len(series))
	residuals := make([]float64, len(series))
	for i, p := range series {
		fitted[i] = trend.At(p.Year)
		residuals[i] = p.Value - fitted[i]
	}

	last := series.LastYear()
	values := make([]float64, horizon)
	for i := range values {
		values[i] = trend.At(last + 1 + i)
	}

	return &ForecastResult{
		Predictions: newForecastSeries(last, values),
		Fitted:      fitted,
		Residuals:   residuals,
		ModelInfo: ModelInfo{
			Algorithm: f.Name(),
			Parameters: map[string]interface{}{
				"slope_per_year":   trend.SlopePerYear,
				"slope_per_decade": trend.SlopePerDecade,
				"intercept":        trend.Intercept,
				"r2":               trend.R2,
			},
			MAPE:       CalculateMAPE(actual, fitted),
			MAE:        CalculateMAE(actual, fitted),
			RMSE:       CalculateRMSE(actual, fitted),
			DataPoints: len(series),
		},
	}, nil
}
