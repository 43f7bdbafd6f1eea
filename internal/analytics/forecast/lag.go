package forecast

import (
	"context"
	"fmt"

	"github.com/tempcast/tempcast/internal/analytics"
)

// StepObserver is called once per recursive forecast step with the window the
// prediction was made from. window is only valid during the call.
type StepObserver func(step int, window []float64, prediction float64)

// LagFeatureForecaster trains a regressor on fixed-size lag windows and forecasts
// recursively, feeding each prediction back as the newest lag.
type LagFeatureForecaster struct {
	NLags int
	// NewRegressor builds the model to train. Defaults to a seeded RandomForest.
	NewRegressor func() Regressor
	// Observer, when set, sees the window at every recursive step.
	Observer StepObserver
}

// Accuracy holds validation errors on the chronological holdout.
type Accuracy struct {
	HoldoutSize int     `json:"holdout_size"`
	MAE         float64 `json:"mae"`
	RMSE        float64 `json:"rmse"`
	MAPE        float64 `json:"mape"`
}

// LagFit is the outcome of training and forecasting one series.
type LagFit struct {
	Forecast   ForecastSeries
	Model      Regressor // nil when the horizon was zero
	Validation Accuracy
}

// NewLagFeatureForecaster creates a lag-feature forecaster backed by a random forest
func NewLagFeatureForecaster(config ForecastConfig) (*LagFeatureForecaster, error) {
	if config.NLags < 1 {
		return nil, invalidConfig("nlags must be positive, got %d", config.NLags)
	}
	trees, depth, seed := config.Trees, config.MaxDepth, config.Seed
	return &LagFeatureForecaster{
		NLags: config.NLags,
		NewRegressor: func() Regressor {
			rf := NewRandomForest(trees, seed)
			rf.MaxDepth = depth
			return rf
		},
	}, nil
}

// Name returns the algorithm name
func (f *LagFeatureForecaster) Name() string {
	return string(MethodLagFeature)
}

// MakeLagFeatures builds supervised pairs: X[i] = values[i:i+nlags], y[i] = values[i+nlags].
func MakeLagFeatures(values []float64, nlags int) (X [][]float64, y []float64) {
	if nlags < 1 || len(values) <= nlags {
		return nil, nil
	}
	pairs := len(values) - nlags
	X = make([][]float64, pairs)
	y = make([]float64, pairs)
	for i := nlags; i < len(values); i++ {
		row := make([]float64, nlags)
		copy(row, values[i-nlags:i])
		X[i-nlags] = row
		y[i-nlags] = values[i]
	}
	return X, y
}

// holdoutSize is max(1, min(5, pairs/5)).
func holdoutSize(pairs int) int {
	size := pairs / 5
	if size > 5 {
		size = 5
	}
	if size < 1 {
		size = 1
	}
	return size
}

// Fit trains on series and forecasts horizon years recursively.
func (f *LagFeatureForecaster) Fit(series analytics.AnnualSeries, horizon int) (*LagFit, error) {
	return f.FitContext(context.Background(), series, horizon)
}

// FitContext is Fit bounded by ctx. Regressors implementing ContextFitter are
// stopped mid-training; others are checked before and after training.
func (f *LagFeatureForecaster) FitContext(ctx context.Context, series analytics.AnnualSeries, horizon int) (*LagFit, error) {
	if f.NLags < 1 {
		return nil, invalidConfig("nlags must be positive, got %d", f.NLags)
	}
	if err := checkHorizon(horizon); err != nil {
		return nil, err
	}
	if horizon == 0 {
		return &LagFit{Forecast: ForecastSeries{}}, nil
	}
	if len(series) <= f.NLags {
		return nil, insufficientData(f.Name(), f.NLags+1, len(series))
	}

	values := series.Values()
	X, y := MakeLagFeatures(values, f.NLags)

	// Chronological split; with a single pair there is nothing left to validate on.
	test := holdoutSize(len(y))
	if len(y)-test < 1 {
		test = 0
	}
	trainX, trainY := X[:len(X)-test], y[:len(y)-test]

	newRegressor := f.NewRegressor
	if newRegressor == nil {
		newRegressor = func() Regressor { return NewRandomForest(200, 0) }
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name(), err)
	}
	model := newRegressor()
	var err error
	if cf, ok := model.(ContextFitter); ok {
		err = cf.FitContext(ctx, trainX, trainY)
	} else {
		err = model.Fit(trainX, trainY)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: train regressor: %w", f.Name(), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name(), err)
	}

	var validation Accuracy
	if test > 0 {
		actual := y[len(y)-test:]
		predicted := make([]float64, test)
		for i, row := range X[len(X)-test:] {
			predicted[i] = model.Predict(row)
		}
		validation = Accuracy{
			HoldoutSize: test,
			MAE:         CalculateMAE(actual, predicted),
			RMSE:        CalculateRMSE(actual, predicted),
			MAPE:        CalculateMAPE(actual, predicted),
		}
	}

	window := NewLagWindow(values[len(values)-f.NLags:])
	features := make([]float64, f.NLags)
	preds := make([]float64, horizon)
	for step := 0; step < horizon; step++ {
		features = window.Values(features)
		p := model.Predict(features)
		if f.Observer != nil {
			f.Observer(step, features, p)
		}
		preds[step] = p
		window.Push(p)
	}

	return &LagFit{
		Forecast:   newForecastSeries(series.LastYear(), preds),
		Model:      model,
		Validation: validation,
	}, nil
}

// FitAndForecast implements Forecaster
func (f *LagFeatureForecaster) FitAndForecast(series analytics.AnnualSeries, horizon int) (*ForecastResult, error) {
	fit, err := f.Fit(series, horizon)
	if err != nil {
		return nil, err
	}
	return &ForecastResult{
		Predictions: fit.Forecast,
		ModelInfo: ModelInfo{
			Algorithm:  f.Name(),
			Parameters: map[string]interface{}{"nlags": f.NLags},
			MAPE:       fit.Validation.MAPE,
			MAE:        fit.Validation.MAE,
			RMSE:       fit.Validation.RMSE,
			DataPoints: len(series),
		},
	}, nil
}
