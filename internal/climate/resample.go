package climate

import (
	"math"
	"slices"
	"time"

	"github.com/tempcast/tempcast/internal/analytics"
)

// MonthlyValue is the mean of one calendar month.
type MonthlyValue struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Value float64    `json:"value"`
	Days  int        `json:"days"`
}

type meanAcc struct {
	sum float64
	n   int
}

// Resample drops missing days and averages the rest per calendar month and
// per calendar year. Periods without any observation are omitted.
func Resample(series DailySeries) ([]MonthlyValue, analytics.AnnualSeries) {
	type monthKey struct {
		year  int
		month time.Month
	}

	months := make(map[monthKey]*meanAcc)
	years := make(map[int]*meanAcc)

	for _, obs := range series {
		if math.IsNaN(obs.Value) || math.IsInf(obs.Value, 0) {
			continue
		}
		y, m, _ := obs.Date.Date()

		mk := monthKey{y, m}
		if months[mk] == nil {
			months[mk] = &meanAcc{}
		}
		months[mk].sum += obs.Value
		months[mk].n++

		if years[y] == nil {
			years[y] = &meanAcc{}
		}
		years[y].sum += obs.Value
		years[y].n++
	}

	monthly := make([]MonthlyValue, 0, len(months))
	for k, acc := range months {
		monthly = append(monthly, MonthlyValue{
			Year:  k.year,
			Month: k.month,
			Value: acc.sum / float64(acc.n),
			Days:  acc.n,
		})
	}
	slices.SortFunc(monthly, func(a, b MonthlyValue) int {
		if a.Year != b.Year {
			return a.Year - b.Year
		}
		return int(a.Month) - int(b.Month)
	})

	annual := make(analytics.AnnualSeries, 0, len(years))
	for y, acc := range years {
		annual = append(annual, analytics.YearValue{Year: y, Value: acc.sum / float64(acc.n)})
	}
	slices.SortFunc(annual, func(a, b analytics.YearValue) int {
		return a.Year - b.Year
	})

	return monthly, annual
}

// AnnualMeans is Resample without the monthly means.
func AnnualMeans(series DailySeries) analytics.AnnualSeries {
	_, annual := Resample(series)
	return annual
}
