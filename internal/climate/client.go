package climate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/tempcast/tempcast/internal/logging"
)

// ErrFetch wraps every failure to obtain a daily series from the API.
var ErrFetch = errors.New("fetch failed")

// DailyObservation is one day of the requested variable. Missing days carry NaN.
type DailyObservation struct {
	Date  time.Time
	Value float64
}

// DailySeries is a date-ordered run of daily observations.
type DailySeries []DailyObservation

// Client downloads daily series from the Open-Meteo climate API.
type Client struct {
	request    Request
	httpClient *http.Client
	logger     *logging.Logger
}

// Option configures the Client during construction.
type Option func(*clientConfig)

type clientConfig struct {
	httpClient *http.Client
	logger     *logging.Logger
	timeout    time.Duration
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cfg *clientConfig) {
		cfg.httpClient = c
	}
}

// WithLogger configures structured logging.
func WithLogger(l *logging.Logger) Option {
	return func(cfg *clientConfig) {
		cfg.logger = l
	}
}

// WithTimeout sets a timeout on the HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) {
		cfg.timeout = d
	}
}

// NewClient creates a client for request.
func NewClient(request Request, opts ...Option) (*Client, error) {
	if request.BaseURL == "" {
		return nil, fmt.Errorf("climate: base url is required")
	}
	if request.Variable == "" {
		return nil, fmt.Errorf("climate: variable is required")
	}

	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	httpClient := cfg.httpClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.timeout > 0 {
		httpClient.Timeout = cfg.timeout
	}

	logger := cfg.logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Client{
		request:    request,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

type apiResponse struct {
	Daily  map[string]json.RawMessage `json:"daily"`
	Reason string                     `json:"reason"`
}

// FetchDaily downloads the daily series for loc. JSON nulls become NaN.
func (c *Client) FetchDaily(ctx context.Context, loc Location) (DailySeries, error) {
	reqURL, err := c.request.URL(loc)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, loc.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: create request: %v", ErrFetch, loc.Name, err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Info("Fetching daily series", "region", loc.Name, "url", reqURL)
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, loc.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: read body: %v", ErrFetch, loc.Name, err)
	}

	var payload apiResponse
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if json.Unmarshal(body, &payload) == nil && payload.Reason != "" {
			return nil, fmt.Errorf("%w: %s: status %d: %s", ErrFetch, loc.Name, resp.StatusCode, payload.Reason)
		}
		return nil, fmt.Errorf("%w: %s: status %d", ErrFetch, loc.Name, resp.StatusCode)
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %s: decode: %v", ErrFetch, loc.Name, err)
	}

	series, err := decodeDaily(payload.Daily, c.request.Variable)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, loc.Name, err)
	}

	c.logger.Debug("Fetched daily series",
		"region", loc.Name,
		"days", len(series),
		"duration", time.Since(start))

	return series, nil
}

func decodeDaily(daily map[string]json.RawMessage, variable string) (DailySeries, error) {
	rawTime, ok := daily["time"]
	if !ok {
		return nil, fmt.Errorf("response has no daily.time")
	}
	rawValues, ok := daily[variable]
	if !ok {
		return nil, fmt.Errorf("response has no daily.%s", variable)
	}

	var dates []string
	if err := json.Unmarshal(rawTime, &dates); err != nil {
		return nil, fmt.Errorf("decode daily.time: %w", err)
	}
	var values []*float64
	if err := json.Unmarshal(rawValues, &values); err != nil {
		return nil, fmt.Errorf("decode daily.%s: %w", variable, err)
	}
	if len(dates) != len(values) {
		return nil, fmt.Errorf("daily.time has %d entries, daily.%s has %d", len(dates), variable, len(values))
	}

	series := make(DailySeries, len(dates))
	for i, d := range dates {
		t, err := time.Parse(time.DateOnly, d)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", d, err)
		}
		v := math.NaN()
		if values[i] != nil {
			v = *values[i]
		}
		series[i] = DailyObservation{Date: t, Value: v}
	}

	return series, nil
}
