package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/tempcast/tempcast/internal/analytics"
)

// MinHoltPoints is the shortest series the smoothing optimizer accepts.
const MinHoltPoints = 4

// HoltForecaster implements additive-trend exponential smoothing (Holt's linear method)
// with smoothing parameters and initial state chosen by minimizing one-step-ahead SSE.
//
//	Level:    L_t = α·Y_t + (1-α)(L_{t-1} + T_{t-1})
//	Trend:    T_t = β(L_t - L_{t-1}) + (1-β)T_{t-1}
//	Forecast: F_{t+h} = L_t + h·T_t
type HoltForecaster struct {
	// MaxEvaluations bounds the Nelder-Mead objective evaluations (0 = default).
	MaxEvaluations int
}

// NewHoltForecaster creates a new Holt forecaster
func NewHoltForecaster() *HoltForecaster {
	return &HoltForecaster{}
}

// Name returns the algorithm name
func (f *HoltForecaster) Name() string {
	return string(MethodExponentialTrend)
}

// HoltModel is a fitted additive-trend smoothing model.
type HoltModel struct {
	Alpha        float64 `json:"alpha"`
	Beta         float64 `json:"beta"`
	InitialLevel float64 `json:"initial_level"`
	InitialTrend float64 `json:"initial_trend"`
	Level        float64 `json:"level"` // final smoothed level
	Trend        float64 `json:"trend"` // final smoothed trend
	SSE          float64 `json:"sse"`

	lastYear int
	fitted   []float64
}

// HoltFit is the outcome of fitting and forecasting one series.
type HoltFit struct {
	Forecast ForecastSeries
	Model    *HoltModel // nil when the horizon was zero
}

// Fit estimates the model on series and forecasts horizon years.
func (f *HoltForecaster) Fit(series analytics.AnnualSeries, horizon int) (*HoltFit, error) {
	if err := checkHorizon(horizon); err != nil {
		return nil, err
	}
	if horizon == 0 {
		return &HoltFit{Forecast: ForecastSeries{}}, nil
	}

	model, err := f.FitModel(series)
	if err != nil {
		return nil, err
	}

	return &HoltFit{
		Forecast: newForecastSeries(model.lastYear, model.Forecast(horizon)),
		Model:    model,
	}, nil
}

// FitModel estimates smoothing parameters and initial state for series.
func (f *HoltForecaster) FitModel(series analytics.AnnualSeries) (*HoltModel, error) {
	if len(series) < MinHoltPoints {
		return nil, insufficientData(f.Name(), MinHoltPoints, len(series))
	}

	y := series.Values()

	// Start from a state whose first one-step prediction equals y[0].
	b0 := y[1] - y[0]
	l0 := y[0] - b0
	x0 := []float64{logit(0.5), logit(0.1), l0, b0}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			_, _, sse := holtFilter(y, sigmoid(x[0]), sigmoid(x[1]), x[2], x[3], nil)
			if math.IsNaN(sse) || math.IsInf(sse, 0) {
				return math.MaxFloat64
			}
			return sse
		},
	}

	evaluations := f.MaxEvaluations
	if evaluations <= 0 {
		evaluations = 4000
	}
	settings := &optimize.Settings{
		FuncEvaluations: evaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-10,
			Iterations: 200,
		},
	}

	best := x0
	startSSE := problem.Func(x0)
	result, err := optimize.Minimize(problem, append([]float64(nil), x0...), settings, &optimize.NelderMead{})
	if result == nil {
		return nil, fmt.Errorf("holt: optimize smoothing parameters: %w", err)
	}
	// Evaluation limits still leave a usable point; keep it if it improved on the start.
	if result.F < startSSE {
		best = result.X
	}

	m := &HoltModel{
		Alpha:        sigmoid(best[0]),
		Beta:         sigmoid(best[1]),
		InitialLevel: best[2],
		InitialTrend: best[3],
		lastYear:     series.LastYear(),
		fitted:       make([]float64, len(y)),
	}
	m.Level, m.Trend, m.SSE = holtFilter(y, m.Alpha, m.Beta, m.InitialLevel, m.InitialTrend, m.fitted)
	return m, nil
}

// FitAndForecast implements Forecaster
func (f *HoltForecaster) FitAndForecast(series analytics.AnnualSeries, horizon int) (*ForecastResult, error) {
	fit, err := f.Fit(series, horizon)
	if err != nil {
		return nil, err
	}
	if fit.Model == nil {
		return &ForecastResult{
			Predictions: fit.Forecast,
			ModelInfo:   ModelInfo{Algorithm: f.Name(), DataPoints: len(series)},
		}, nil
	}

	actual := series.Values()
	fitted, err := fit.Model.FittedValues()
	if err != nil {
		return nil, err
	}

	return &ForecastResult{
		Predictions: fit.Forecast,
		Fitted:      fitted,
		Residuals:   Residuals(actual, fitted),
		ModelInfo: ModelInfo{
			Algorithm: f.Name(),
			Parameters: map[string]interface{}{
				"alpha":         fit.Model.Alpha,
				"beta":          fit.Model.Beta,
				"initial_level": fit.Model.InitialLevel,
				"initial_trend": fit.Model.InitialTrend,
			},
			MAPE:       CalculateMAPE(actual, fitted),
			MAE:        CalculateMAE(actual, fitted),
			RMSE:       CalculateRMSE(actual, fitted),
			DataPoints: len(series),
		},
	}, nil
}

// FittedValues returns the in-sample one-step-ahead predictions.
func (m *HoltModel) FittedValues() ([]float64, error) {
	if m == nil || len(m.fitted) == 0 {
		return nil, ErrNoResiduals
	}
	out := make([]float64, len(m.fitted))
	copy(out, m.fitted)
	return out, nil
}

// Forecast returns the h-step-ahead point forecasts for h = 1..horizon.
func (m *HoltModel) Forecast(horizon int) []float64 {
	if horizon <= 0 {
		return []float64{}
	}
	out := make([]float64, horizon)
	for h := range out {
		out[h] = m.Level + float64(h+1)*m.Trend
	}
	return out
}

// LastYear is the final year of the series the model was fitted on.
func (m *HoltModel) LastYear() int {
	return m.lastYear
}

// OneStepAhead runs the fitted smoothing recursion over values, which must start at
// the same year as the training series, and returns the one-step-ahead predictions.
// Parameters are not re-estimated.
func (m *HoltModel) OneStepAhead(values []float64) []float64 {
	out := make([]float64, len(values))
	holtFilter(values, m.Alpha, m.Beta, m.InitialLevel, m.InitialTrend, out)
	return out
}

// holtFilter runs the smoothing recursion. When fitted is non-nil it receives the
// one-step-ahead prediction for each observation.
func holtFilter(y []float64, alpha, beta, l0, b0 float64, fitted []float64) (level, trend, sse float64) {
	level, trend = l0, b0
	for t, v := range y {
		pred := level + trend
		if fitted != nil {
			fitted[t] = pred
		}
		e := v - pred
		sse += e * e

		prevLevel := level
		level = alpha*v + (1-alpha)*(level+trend)
		trend = beta*(level-prevLevel) + (1-beta)*trend
	}
	return level, trend, sse
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}
