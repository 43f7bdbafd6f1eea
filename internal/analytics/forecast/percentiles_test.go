package forecast

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/tempcast/tempcast/internal/analytics"
)

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.5, 2.5},
		{1, 4},
		{0.95, 3.85},
	}
	for _, tt := range tests {
		if got := Quantile(tt.p, sorted); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Quantile(%v) = %v, want %v", tt.p, got, tt.want)
		}
	}

	if !math.IsNaN(Quantile(0.5, nil)) {
		t.Error("Quantile of an empty slice should be NaN")
	}
}

func TestPercentiles(t *testing.T) {
	m := &EnsembleMatrix{
		Years: []int{2025, 2026},
		Data: mat.NewDense(2, 5, []float64{
			5, 1, 4, 2, 3,
			10, 30, 20, 50, 40,
		}),
	}

	bands, err := Percentiles(m, DefaultPercentiles)
	if err != nil {
		t.Fatalf("Percentiles failed: %v", err)
	}
	if len(bands) != 2 {
		t.Fatalf("Expected 2 bands, got %d", len(bands))
	}
	if bands[0].Year != 2025 || bands[0].Values[1] != 3 {
		t.Errorf("Unexpected first band %+v", bands[0])
	}
	if bands[1].Values[1] != 30 {
		t.Errorf("Expected median 30, got %v", bands[1].Values[1])
	}
	for _, b := range bands {
		if !(b.Values[0] <= b.Values[1] && b.Values[1] <= b.Values[2]) {
			t.Errorf("Band %d not ordered: %v", b.Year, b.Values)
		}
	}

	// The matrix itself is left untouched
	if m.Data.At(0, 0) != 5 {
		t.Error("Percentiles must not reorder the ensemble")
	}
}

func TestPercentiles_Invalid(t *testing.T) {
	m := &EnsembleMatrix{Years: []int{2025}, Data: mat.NewDense(1, 2, []float64{1, 2})}
	if _, err := Percentiles(m, []float64{1.5}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("Expected ErrInvalidConfiguration, got %v", err)
	}
	if _, err := Percentiles(nil, DefaultPercentiles); err == nil {
		t.Error("Expected error for a nil matrix")
	}
}

func TestRowQuantile(t *testing.T) {
	m := &EnsembleMatrix{Years: []int{2049, 2050}, Data: mat.NewDense(2, 3, []float64{1, 2, 3, 7, 9, 8})}

	v, err := RowQuantile(m, 2050, 0.5)
	if err != nil || v != 8 {
		t.Errorf("Expected median 8, got %v (%v)", v, err)
	}
	if _, err := RowQuantile(m, 2051, 0.5); err == nil {
		t.Error("Expected error for a year outside the ensemble")
	}
}

func TestEvaluate(t *testing.T) {
	actual := analytics.NewAnnualSeries(2020, []float64{10, 11, 12})
	predicted := newForecastSeries(2020, []float64{12, 14, 99}) // 2021, 2022, 2023

	ev, ok := Evaluate(actual, predicted)
	if !ok {
		t.Fatal("Expected overlapping years")
	}
	if ev.Years != 2 || ev.MAE != 1.5 {
		t.Errorf("Unexpected evaluation %+v", ev)
	}
	if math.Abs(ev.RMSE-math.Sqrt(2.5)) > 1e-12 {
		t.Errorf("Expected RMSE sqrt(2.5), got %v", ev.RMSE)
	}

	if _, ok := Evaluate(actual, newForecastSeries(2030, []float64{1})); ok {
		t.Error("Expected no overlap")
	}
}

func TestPercentileLabel(t *testing.T) {
	cases := map[float64]string{0.05: "p5", 0.5: "p50", 0.95: "p95", 0.025: "p2.5", 1: "p100"}
	for p, want := range cases {
		if got := PercentileLabel(p); got != want {
			t.Errorf("PercentileLabel(%v) = %q, want %q", p, got, want)
		}
	}
}
