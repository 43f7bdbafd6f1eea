package forecast

import (
	"math"
	"math/rand/v2"

	"github.com/tempcast/tempcast/internal/analytics"
)

// Common test data and helpers for all forecast tests

// linearSeries creates n years starting at firstYear with value = start + slope*i
func linearSeries(firstYear, n int, start, slope float64) analytics.AnnualSeries {
	values := make([]float64, n)
	for i := range values {
		values[i] = start + slope*float64(i)
	}
	return analytics.NewAnnualSeries(firstYear, values)
}

// constantSeries creates n years of the same value
func constantSeries(firstYear, n int, value float64) analytics.AnnualSeries {
	return linearSeries(firstYear, n, value, 0)
}

// noisySeries creates a warming series with reproducible noise and a weak cycle
func noisySeries(firstYear, n int, seed uint64) analytics.AnnualSeries {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	values := make([]float64, n)
	for i := range values {
		cycle := 0.3 * math.Sin(2*math.Pi*float64(i)/7)
		values[i] = 14 + 0.02*float64(i) + cycle + rng.NormFloat64()*0.25
	}
	return analytics.NewAnnualSeries(firstYear, values)
}

// countingRegressor predicts the window mean plus Offset and records calls
type countingRegressor struct {
	Offset   float64
	fits     int
	predicts int
}

func (r *countingRegressor) Fit(X [][]float64, y []float64) error {
	r.fits++
	return nil
}

func (r *countingRegressor) Predict(x []float64) float64 {
	r.predicts++
	sum := 0.0
	for _, v := range x {
		sum += v
	}
	return sum/float64(len(x)) + r.Offset
}

// stubModel is a FittedModel with canned values
type stubModel struct {
	fitted   []float64
	base     []float64
	lastYear int
	err      error
}

func (m *stubModel) FittedValues() ([]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	return append([]float64(nil), m.fitted...), nil
}

func (m *stubModel) Forecast(horizon int) []float64 {
	out := make([]float64, horizon)
	copy(out, m.base)
	return out
}

func (m *stubModel) LastYear() int {
	return m.lastYear
}

func assertContiguousYears(t interface {
	Helper()
	Errorf(format string, args ...interface{})
}, fs ForecastSeries, lastYear, horizon int) {
	t.Helper()
	if len(fs) != horizon {
		t.Errorf("Expected %d forecast points, got %d", horizon, len(fs))
		return
	}
	for i, p := range fs {
		if p.Year != lastYear+1+i {
			t.Errorf("Point %d: expected year %d, got %d", i, lastYear+1+i, p.Year)
		}
	}
}
