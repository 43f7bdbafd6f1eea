package main

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tempcast/tempcast/internal/climate"
	"github.com/tempcast/tempcast/internal/compression"
	"github.com/tempcast/tempcast/internal/report"
)

// writeTestConfig writes a configuration whose Oslo series is already cached.
// Lima is never cached and its download fails against a closed port.
func writeTestConfig(t *testing.T) (configFile, outDir string) {
	t.Helper()
	base := t.TempDir()
	cacheDir := filepath.Join(base, "cache")
	outDir = filepath.Join(base, "out")

	disk, err := climate.NewDiskCache(cacheDir, compression.None)
	require.NoError(t, err)

	var daily climate.DailySeries
	for year := 1990; year <= 2020; year++ {
		i := float64(year - 1990)
		daily = append(daily, climate.DailyObservation{
			Date:  time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			Value: 9 + 0.04*i + 0.5*math.Sin(i*1.9),
		})
	}
	require.NoError(t, disk.Store(climate.Location{Name: "Oslo"}, daily))

	content := fmt.Sprintf(`
forecast:
  trees: 20
  simulations: 30
data:
  base_url: http://127.0.0.1:1/v1/climate
  cache_dir: %s
  timeout: 2s
output:
  dir: %s
locations:
  - name: Oslo
    latitude: 59.91
    longitude: 10.75
  - name: Lima
    latitude: -12.05
    longitude: -77.04
logging:
  level: error
  format: json
  output_path: stderr
`, cacheDir, outDir)

	configFile = filepath.Join(base, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))
	return configFile, outDir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRunSingleLocation(t *testing.T) {
	cfgFile, outDir := writeTestConfig(t)

	out, err := execute(t, "--config", cfgFile, "run", "--location", "Oslo", "--forecast-until", "2025", "--simulations", "25")
	require.NoError(t, err, out)

	assert.Contains(t, out, "Data spans 1990 to 2020. Forecasting 5 years to 2025.")
	assert.Contains(t, out, "°C/decade")
	for _, name := range []string{"Oslo_forecast.csv", "Oslo_percentiles.csv", "Oslo_hw_ensemble.csv", "Oslo_report.json"} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}

	data, err := os.ReadFile(filepath.Join(outDir, "Oslo_hw_ensemble.csv"))
	require.NoError(t, err)
	header := strings.SplitN(string(data), "\n", 2)[0]
	assert.Equal(t, 26, len(strings.Split(header, ",")))
}

func TestRunSingleLocation_NothingToForecast(t *testing.T) {
	cfgFile, _ := writeTestConfig(t)

	_, err := execute(t, "--config", cfgFile, "run", "--forecast-until", "2019")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forecast-until must be greater than the last data year 2020")
}

func TestRunSingleLocation_Unknown(t *testing.T) {
	cfgFile, _ := writeTestConfig(t)

	_, err := execute(t, "--config", cfgFile, "run", "--location", "Atlantis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown location")
}

func TestRunAllLocations(t *testing.T) {
	cfgFile, outDir := writeTestConfig(t)

	out, err := execute(t, "--config", cfgFile, "run", "--all-locations", "--forecast-until", "2030")
	require.NoError(t, err, out)

	assert.Contains(t, out, "Error processing Lima")
	assert.Contains(t, out, "Wrote summary for 1 regions")

	data, err := os.ReadFile(filepath.Join(outDir, report.SummaryFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "Oslo,1990,2020,"))
}

func TestRunFlagsExclusive(t *testing.T) {
	cfgFile, _ := writeTestConfig(t)

	_, err := execute(t, "--config", cfgFile, "run", "--all-locations", "--location", "Oslo")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tempcast dev")
}
