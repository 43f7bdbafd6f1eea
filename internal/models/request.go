package models

// SeriesPoint is one annual observation of an inline series
type SeriesPoint struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// ForecastRequest represents an inline forecast request.
// Zero-valued tuning fields fall back to the server defaults.
type ForecastRequest struct {
	Series        []SeriesPoint `json:"series" validate:"required,min=1"`
	ForecastUntil int           `json:"forecast_until,omitempty"` // final forecast year
	Horizon       int           `json:"horizon,omitempty"`        // years ahead; takes precedence over forecast_until
	NLags         int           `json:"nlags,omitempty"`
	Simulations   int           `json:"simulations,omitempty"`
	BlockSize     int           `json:"block_size,omitempty"`
	Seed          *uint64       `json:"seed,omitempty"`
	ResidualScope string        `json:"residual_scope,omitempty"` // training or observed
	Percentiles   []float64     `json:"percentiles,omitempty"`
}
