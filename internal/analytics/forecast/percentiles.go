package forecast

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

// DefaultPercentiles are the bands reported for an ensemble.
var DefaultPercentiles = []float64{0.05, 0.5, 0.95}

// PercentileBand is the quantile reduction of one ensemble row.
type PercentileBand struct {
	Year   int       `json:"year"`
	Values []float64 `json:"values"` // same order as the requested probabilities
}

// Percentiles reduces every row of m to the requested quantiles.
func Percentiles(m *EnsembleMatrix, probs []float64) ([]PercentileBand, error) {
	if m == nil || m.Data == nil {
		return nil, ErrNoResiduals
	}
	for _, p := range probs {
		if p < 0 || p > 1 || math.IsNaN(p) {
			return nil, invalidConfig("percentile %v outside [0,1]", p)
		}
	}

	bands := make([]PercentileBand, m.Rows())
	for i := range bands {
		sorted := m.Row(i)
		sort.Float64s(sorted)

		values := make([]float64, len(probs))
		for k, p := range probs {
			values[k] = Quantile(p, sorted)
		}
		bands[i] = PercentileBand{Year: m.Years[i], Values: values}
	}
	return bands, nil
}

// RowQuantile returns quantile p of the ensemble row for year.
func RowQuantile(m *EnsembleMatrix, year int, p float64) (float64, error) {
	for i, y := range m.Years {
		if y == year {
			sorted := m.Row(i)
			sort.Float64s(sorted)
			return Quantile(p, sorted), nil
		}
	}
	return 0, fmt.Errorf("year %d not in ensemble", year)
}

// Quantile interpolates linearly between the order statistics of sorted at position
// p*(n-1), so Quantile(0.5, x) is the usual median.
func Quantile(p float64, sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	if lo >= n-1 {
		return sorted[n-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// PercentileLabel names probability p as a column label, 0.05 -> "p5".
func PercentileLabel(p float64) string {
	pct := math.Round(p*100*1e6) / 1e6
	return "p" + strconv.FormatFloat(pct, 'f', -1, 64)
}
