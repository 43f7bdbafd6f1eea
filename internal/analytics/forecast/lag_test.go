package forecast

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestLagFeatureForecaster_Name(t *testing.T) {
	f, err := NewLagFeatureForecaster(DefaultForecastConfig())
	if err != nil {
		t.Fatalf("NewLagFeatureForecaster failed: %v", err)
	}
	if f.Name() != "lag_feature" {
		t.Errorf("Expected name 'lag_feature', got '%s'", f.Name())
	}
}

func TestLagFeatureForecaster_InsufficientData(t *testing.T) {
	f, _ := NewLagFeatureForecaster(DefaultForecastConfig())

	// length 3 with nlags 5
	_, err := f.Fit(linearSeries(2000, 3, 10, 1), 5)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData, got %v", err)
	}

	// length == nlags leaves no training pair
	_, err = f.Fit(linearSeries(2000, 5, 10, 1), 5)
	if !errors.Is(err, ErrInsufficientData) {
		t.Errorf("Expected ErrInsufficientData for len == nlags, got %v", err)
	}
}

func TestLagFeatureForecaster_ZeroHorizonSkipsTraining(t *testing.T) {
	reg := &countingRegressor{}
	f := &LagFeatureForecaster{
		NLags:        5,
		NewRegressor: func() Regressor { return reg },
	}

	fit, err := f.Fit(noisySeries(2000, 30, 4), 0)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if len(fit.Forecast) != 0 {
		t.Errorf("Expected empty forecast, got %d points", len(fit.Forecast))
	}
	if fit.Model != nil {
		t.Error("Expected no model for a zero horizon")
	}
	if reg.fits != 0 || reg.predicts != 0 {
		t.Errorf("Expected no training, got %d fits and %d predictions", reg.fits, reg.predicts)
	}
}

func TestLagFeatureForecaster_WindowLengthAtEveryStep(t *testing.T) {
	steps := 0
	f, _ := NewLagFeatureForecaster(ForecastConfig{NLags: 4, Trees: 10})
	f.Observer = func(step int, window []float64, prediction float64) {
		if step != steps {
			t.Errorf("Expected step %d, got %d", steps, step)
		}
		if len(window) != 4 {
			t.Errorf("Step %d: window length %d, want 4", step, len(window))
		}
		steps++
	}

	fit, err := f.Fit(noisySeries(1980, 40, 5), 12)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if steps != 12 {
		t.Errorf("Expected 12 observed steps, got %d", steps)
	}
	assertContiguousYears(t, fit.Forecast, 2019, 12)
}

func TestLagFeatureForecaster_FeedsPredictionsBack(t *testing.T) {
	reg := &countingRegressor{Offset: 1}
	f := &LagFeatureForecaster{
		NLags:        2,
		NewRegressor: func() Regressor { return reg },
	}

	var windows [][]float64
	f.Observer = func(step int, window []float64, prediction float64) {
		windows = append(windows, append([]float64(nil), window...))
	}

	// last two values 10, 10
	fit, err := f.Fit(constantSeries(2000, 6, 10), 3)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	// mean+1 each step: 11, then mean(10,11)+1 = 11.5, then mean(11,11.5)+1 = 12.25
	want := []float64{11, 11.5, 12.25}
	if !reflect.DeepEqual(fit.Forecast.Values(), want) {
		t.Errorf("Expected %v, got %v", want, fit.Forecast.Values())
	}
	wantWindows := [][]float64{{10, 10}, {10, 11}, {11, 11.5}}
	if !reflect.DeepEqual(windows, wantWindows) {
		t.Errorf("Expected windows %v, got %v", wantWindows, windows)
	}
	if reg.fits != 1 {
		t.Errorf("Expected one training call, got %d", reg.fits)
	}
}

func TestLagFeatureForecaster_ConstantSeries(t *testing.T) {
	f, _ := NewLagFeatureForecaster(ForecastConfig{NLags: 5, Trees: 25})

	fit, err := f.Fit(constantSeries(1950, 30, 18.2), 10)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	for _, p := range fit.Forecast {
		if math.Abs(p.Value-18.2) > 1e-12 {
			t.Errorf("Year %d: expected 18.2, got %v", p.Year, p.Value)
		}
	}
}

func TestLagFeatureForecaster_Reproducible(t *testing.T) {
	series := noisySeries(1950, 60, 6)
	config := ForecastConfig{NLags: 5, Trees: 30, Seed: 42}

	f1, _ := NewLagFeatureForecaster(config)
	f2, _ := NewLagFeatureForecaster(config)

	a, err := f1.Fit(series, 8)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	b, err := f2.Fit(series, 8)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if !reflect.DeepEqual(a.Forecast, b.Forecast) {
		t.Error("Same seed and input must give the same forecast")
	}
}

func TestLagFeatureForecaster_Validation(t *testing.T) {
	f, _ := NewLagFeatureForecaster(ForecastConfig{NLags: 5, Trees: 20})

	fit, err := f.Fit(noisySeries(1950, 75, 7), 1)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	// 70 pairs -> min(5, 14) = 5
	if fit.Validation.HoldoutSize != 5 {
		t.Errorf("Expected holdout of 5, got %d", fit.Validation.HoldoutSize)
	}
	if fit.Validation.RMSE < fit.Validation.MAE {
		t.Errorf("RMSE %v must not be below MAE %v", fit.Validation.RMSE, fit.Validation.MAE)
	}
}

func TestLagFeatureForecaster_SinglePair(t *testing.T) {
	reg := &countingRegressor{}
	f := &LagFeatureForecaster{
		NLags:        3,
		NewRegressor: func() Regressor { return reg },
	}

	fit, err := f.Fit(linearSeries(2000, 4, 1, 1), 2)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if fit.Validation.HoldoutSize != 0 {
		t.Errorf("Expected validation to be skipped, got holdout %d", fit.Validation.HoldoutSize)
	}
	if reg.fits != 1 {
		t.Errorf("Expected one training call, got %d", reg.fits)
	}
}

func TestHoldoutSize(t *testing.T) {
	tests := []struct {
		pairs int
		want  int
	}{
		{1, 1},
		{4, 1},
		{10, 2},
		{24, 4},
		{25, 5},
		{70, 5},
	}

	for _, tt := range tests {
		if got := holdoutSize(tt.pairs); got != tt.want {
			t.Errorf("holdoutSize(%d) = %d, want %d", tt.pairs, got, tt.want)
		}
	}
}

func TestMakeLagFeatures(t *testing.T) {
	X, y := MakeLagFeatures([]float64{1, 2, 3, 4, 5}, 2)

	wantX := [][]float64{{1, 2}, {2, 3}, {3, 4}}
	wantY := []float64{3, 4, 5}
	if !reflect.DeepEqual(X, wantX) || !reflect.DeepEqual(y, wantY) {
		t.Errorf("Unexpected features X=%v y=%v", X, y)
	}

	if X, _ := MakeLagFeatures([]float64{1, 2}, 2); X != nil {
		t.Error("Expected no pairs when len <= nlags")
	}
}

func BenchmarkLagFeatureForecast(b *testing.B) {
	series := noisySeries(1950, 75, 8)
	f, _ := NewLagFeatureForecaster(DefaultForecastConfig())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = f.Fit(series, 26)
	}
}

func TestLagFeatureForecaster_FitContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A plain Regressor is never trained once ctx is done
	reg := &countingRegressor{}
	f := &LagFeatureForecaster{NLags: 3, NewRegressor: func() Regressor { return reg }}
	if _, err := f.FitContext(ctx, linearSeries(2000, 20, 10, 0.1), 5); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if reg.fits != 0 {
		t.Errorf("Expected no training, got %d fits", reg.fits)
	}

	forest, err := NewLagFeatureForecaster(ForecastConfig{NLags: 3, Trees: 10})
	if err != nil {
		t.Fatalf("NewLagFeatureForecaster failed: %v", err)
	}
	if _, err := forest.FitContext(ctx, linearSeries(2000, 20, 10, 0.1), 5); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled from the forest, got %v", err)
	}
}
