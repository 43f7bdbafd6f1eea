package climate

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tempcast/tempcast/internal/compression"
)

// ErrNotCached is returned by DiskCache.Load when no file exists for a location.
var ErrNotCached = errors.New("not cached")

var cacheHeader = []string{"date", "tmax"}

// DiskCache keeps one daily CSV per location: <dir>/<slug>_daily.csv, with the
// compressor's extension appended when compression is on.
type DiskCache struct {
	dir        string
	compressor compression.Compressor
}

// NewDiskCache creates a cache rooted at dir.
func NewDiskCache(dir string, algo compression.Algorithm) (*DiskCache, error) {
	comp, err := compression.GetCompressor(algo)
	if err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir, compressor: comp}, nil
}

// Path returns the cache file of loc.
func (c *DiskCache) Path(loc Location) string {
	return filepath.Join(c.dir, loc.Slug()+"_daily.csv"+c.compressor.Extension())
}

// Load reads the cached daily series of loc.
func (c *DiskCache) Load(loc Location) (DailySeries, error) {
	f, err := os.Open(c.Path(loc))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotCached
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	series, err := ReadDailyCSV(c.compressor.NewReader(bufio.NewReader(f)))
	if err != nil {
		return nil, fmt.Errorf("read cache %s: %w", c.Path(loc), err)
	}
	return series, nil
}

// Store writes series as the cache of loc, replacing any previous file.
func (c *DiskCache) Store(loc Location, series DailySeries) error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	path := c.Path(loc)
	tmp, err := os.CreateTemp(c.dir, loc.Slug()+"_*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	bw := bufio.NewWriter(tmp)
	cw := c.compressor.NewWriter(bw)
	if err := WriteDailyCSV(cw, series); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := cw.Close(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush compressor: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("flush cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// WriteDailyCSV writes the date,tmax form. Missing values are written empty.
func WriteDailyCSV(w io.Writer, series DailySeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(cacheHeader); err != nil {
		return err
	}

	row := make([]string, 2)
	for _, obs := range series {
		row[0] = obs.Date.Format(time.DateOnly)
		row[1] = ""
		if !math.IsNaN(obs.Value) {
			row[1] = strconv.FormatFloat(obs.Value, 'f', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadDailyCSV parses the form written by WriteDailyCSV.
func ReadDailyCSV(r io.Reader) (DailySeries, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty file")
		}
		return nil, err
	}
	if header[0] != cacheHeader[0] {
		return nil, fmt.Errorf("unexpected header %v", header)
	}

	var series DailySeries
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		date, err := time.Parse(time.DateOnly, rec[0])
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", rec[0], err)
		}
		value := math.NaN()
		if rec[1] != "" && rec[1] != "NaN" {
			value, err = strconv.ParseFloat(rec[1], 64)
			if err != nil {
				return nil, fmt.Errorf("invalid value %q on %s: %w", rec[1], rec[0], err)
			}
		}
		series = append(series, DailyObservation{Date: date, Value: value})
	}

	return series, nil
}
