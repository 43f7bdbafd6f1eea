// Package report writes pipeline outputs as CSV and JSON files.
package report

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tempcast/tempcast/internal/analytics/forecast"
	"github.com/tempcast/tempcast/internal/logging"
	"github.com/tempcast/tempcast/internal/services"
)

// SummaryFile is the name of the multi-location summary table
const SummaryFile = "summary_trends_and_forecasts.csv"

var summaryHeader = []string{
	"region", "start_year", "end_year", "slope_per_decade", "r2",
	"holt_median_final", "holt_p95_final", "lag_final",
}

// Writer persists results under one output directory
type Writer struct {
	dir           string
	writeEnsemble bool
	logger        *logging.Logger
}

// NewWriter creates a writer for dir. The full simulation matrix is only
// written when writeEnsemble is set.
func NewWriter(dir string, writeEnsemble bool, logger *logging.Logger) *Writer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Writer{dir: dir, writeEnsemble: writeEnsemble, logger: logger}
}

// Path returns the full path of an output file
func (w *Writer) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// WriteLocation writes the forecast table, the percentile bands, optionally
// the ensemble and the JSON report of one location.
func (w *Writer) WriteLocation(r *services.LocationResult) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	region := r.Region
	if region == "" {
		region = "series"
	}

	if err := writeFile(w.Path(region+"_forecast.csv"), func(out io.Writer) error {
		return WriteForecastCSV(out, r.Holt, r.Lag)
	}); err != nil {
		return err
	}

	if len(r.Bands) > 0 {
		if err := writeFile(w.Path(region+"_percentiles.csv"), func(out io.Writer) error {
			return WritePercentilesCSV(out, r.Bands, r.Percentiles)
		}); err != nil {
			return err
		}
	}

	if w.writeEnsemble && r.Ensemble != nil {
		if err := writeFile(w.Path(region+"_hw_ensemble.csv"), func(out io.Writer) error {
			return WriteEnsembleCSV(out, r.Ensemble)
		}); err != nil {
			return err
		}
	}

	if err := writeFile(w.Path(region+"_report.json"), func(out io.Writer) error {
		return WriteJSON(out, r)
	}); err != nil {
		return err
	}

	w.logger.Debug("Wrote location artifacts", "region", region, "dir", w.dir)
	return nil
}

// WriteSummary writes the summary table
func (w *Writer) WriteSummary(rows []services.LocationSummary) error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	path := w.Path(SummaryFile)
	if err := writeFile(path, func(out io.Writer) error {
		return WriteSummaryCSV(out, rows)
	}); err != nil {
		return err
	}

	w.logger.Info("Wrote summary", "regions", len(rows), "path", path)
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteSummaryCSV writes one row per region; unavailable values are written as NaN
func WriteSummaryCSV(out io.Writer, rows []services.LocationSummary) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(summaryHeader); err != nil {
		return err
	}

	for _, s := range rows {
		rec := []string{
			s.Region,
			strconv.Itoa(s.StartYear),
			strconv.Itoa(s.EndYear),
			formatFloat(s.SlopePerDecade),
			formatFloat(s.R2),
			formatFloat(s.HoltMedianFinal),
			formatFloat(s.HoltP95Final),
			formatFloat(s.LagFinal),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteForecastCSV writes year,holt,lag for the union of forecast years
func WriteForecastCSV(out io.Writer, holt, lag forecast.ForecastSeries) error {
	cw := csv.NewWriter(out)
	if err := cw.Write([]string{"year", "holt", "lag"}); err != nil {
		return err
	}

	byYear := make(map[int][2]string)
	var years []int
	add := func(fs forecast.ForecastSeries, col int) {
		for _, p := range fs {
			row, ok := byYear[p.Year]
			if !ok {
				years = append(years, p.Year)
			}
			row[col] = formatFloat(p.Value)
			byYear[p.Year] = row
		}
	}
	add(holt, 0)
	add(lag, 1)

	for _, y := range years {
		row := byYear[y]
		if err := cw.Write([]string{strconv.Itoa(y), row[0], row[1]}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WritePercentilesCSV writes year plus one column per probability (p5, p50, ...).
// With nil probs the columns are named q0, q1, ...
func WritePercentilesCSV(out io.Writer, bands []forecast.PercentileBand, probs []float64) error {
	if len(bands) == 0 {
		return fmt.Errorf("no percentile bands")
	}

	cw := csv.NewWriter(out)
	header := []string{"year"}
	for i := range bands[0].Values {
		if probs != nil && i < len(probs) {
			header = append(header, forecast.PercentileLabel(probs[i]))
		} else {
			header = append(header, "q"+strconv.Itoa(i))
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	rec := make([]string, len(header))
	for _, b := range bands {
		rec[0] = strconv.Itoa(b.Year)
		for i, v := range b.Values {
			rec[i+1] = formatFloat(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteEnsembleCSV writes one row per forecast year and one column per simulated path
func WriteEnsembleCSV(out io.Writer, m *forecast.EnsembleMatrix) error {
	cw := csv.NewWriter(out)

	header := make([]string, m.Cols()+1)
	header[0] = "year"
	for j := 0; j < m.Cols(); j++ {
		header[j+1] = "sim_" + strconv.Itoa(j)
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	rec := make([]string, len(header))
	for i, year := range m.Years {
		rec[0] = strconv.Itoa(year)
		for j, v := range m.Row(i) {
			rec[j+1] = formatFloat(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes v as indented JSON
func WriteJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeFile writes through a temp file in the same directory and renames it into place
func writeFile(path string, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	bw := bufio.NewWriter(tmp)
	if err := fill(bw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	return os.Rename(tmpPath, path)
}
