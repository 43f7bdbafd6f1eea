package forecast

import "github.com/tempcast/tempcast/internal/analytics"

// Evaluation holds point errors over the years two series share.
type Evaluation struct {
	Years int     `json:"years"`
	MAE   float64 `json:"mae"`
	RMSE  float64 `json:"rmse"`
}

// Evaluate compares predicted against actual on their common years. ok is false
// when the series do not overlap.
func Evaluate(actual analytics.AnnualSeries, predicted ForecastSeries) (Evaluation, bool) {
	byYear := make(map[int]float64, len(actual))
	for _, p := range actual {
		byYear[p.Year] = p.Value
	}

	var a, p []float64
	for _, fp := range predicted {
		if v, found := byYear[fp.Year]; found {
			a = append(a, v)
			p = append(p, fp.Value)
		}
	}
	if len(a) == 0 {
		return Evaluation{}, false
	}
	return Evaluation{
		Years: len(a),
		MAE:   CalculateMAE(a, p),
		RMSE:  CalculateRMSE(a, p),
	}, true
}
