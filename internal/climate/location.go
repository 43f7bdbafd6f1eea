// Package climate acquires daily temperature observations from the Open-Meteo
// climate API, caches them on disk and resamples them to annual means.
package climate

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tempcast/tempcast/internal/config"
)

// Location is one region to fetch and forecast.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	URL       string  `json:"url,omitempty"`
}

// LocationFromConfig converts a configured location.
func LocationFromConfig(c config.LocationConfig) Location {
	return Location{Name: c.Name, Latitude: c.Latitude, Longitude: c.Longitude, URL: c.URL}
}

// LocationsFromConfig converts every configured location, preserving order.
func LocationsFromConfig(cs []config.LocationConfig) []Location {
	out := make([]Location, len(cs))
	for i, c := range cs {
		out[i] = LocationFromConfig(c)
	}
	return out
}

// Slug returns the file-system safe form of the location name.
func (l Location) Slug() string {
	return Slugify(l.Name)
}

var slugReplacer = strings.NewReplacer(" ", "_", "/", "_", "-", "_")

// Slugify turns a region name into a token usable in file names and subjects.
//
//	"South Africa" -> "South_Africa"
func Slugify(name string) string {
	return slugReplacer.Replace(strings.TrimSpace(name))
}

// Request describes the daily series to download.
type Request struct {
	BaseURL   string
	Model     string
	Variable  string
	StartDate string
	EndDate   string
}

// RequestFromConfig builds a Request from the data section.
func RequestFromConfig(c config.DataConfig) Request {
	return Request{
		BaseURL:   c.BaseURL,
		Model:     c.Model,
		Variable:  c.Variable,
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
	}
}

// URL returns the request URL for loc. An explicit location URL wins.
func (r Request) URL(loc Location) (string, error) {
	if loc.URL != "" {
		return loc.URL, nil
	}

	u, err := url.Parse(r.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", r.BaseURL, err)
	}

	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	q.Set("start_date", r.StartDate)
	q.Set("end_date", r.EndDate)
	q.Set("daily", r.Variable)
	if r.Model != "" {
		q.Set("models", r.Model)
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}
