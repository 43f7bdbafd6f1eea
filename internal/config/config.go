package config

import (
	"fmt"
	"time"

	"github.com/tempcast/tempcast/internal/analytics/forecast"
)

// Config represents the complete application configuration
type Config struct {
	Forecast  ForecastConfig   `mapstructure:"forecast"`
	Data      DataConfig       `mapstructure:"data"`
	Locations []LocationConfig `mapstructure:"locations"`
	Anomaly   AnomalyConfig    `mapstructure:"anomaly"`
	Output    OutputConfig     `mapstructure:"output"`
	Batch     BatchConfig      `mapstructure:"batch"`
	Server    ServerConfig     `mapstructure:"server"`
	Auth      AuthConfig       `mapstructure:"auth"`
	Queue     QueueConfig      `mapstructure:"queue"`
	Logging   LoggingConfig    `mapstructure:"logging"`
}

// ForecastConfig controls the forecasting pipeline of one location
type ForecastConfig struct {
	HistoricalEndYear int       `mapstructure:"historical_end_year"` // Last year used for training (default: 2024)
	ForecastUntil     int       `mapstructure:"forecast_until"`      // Final forecast year (default: 2050)
	NLags             int       `mapstructure:"nlags"`               // Lag window of the lag-feature forecaster (default: 5)
	Trees             int       `mapstructure:"trees"`               // Random forest size (default: 200)
	MaxDepth          int       `mapstructure:"max_depth"`           // 0 = unlimited
	Simulations       int       `mapstructure:"simulations"`         // Bootstrap trajectories (default: 300)
	BlockSize         int       `mapstructure:"block_size"`          // Bootstrap block length (default: 3)
	Seed              uint64    `mapstructure:"seed"`                // Base seed, mixed with the location slug
	ResidualScope     string    `mapstructure:"residual_scope"`      // training (default) or observed
	Percentiles       []float64 `mapstructure:"percentiles"`         // Ensemble bands (default: 0.05, 0.5, 0.95)
	EvidenceThreshold float64   `mapstructure:"evidence_threshold"`  // Warming trend per decade worth reporting (default: 0.1)
}

// DataConfig configures climate data acquisition and caching
type DataConfig struct {
	BaseURL         string        `mapstructure:"base_url"`          // Open-Meteo climate API endpoint
	Model           string        `mapstructure:"model"`             // Optional climate model name
	Variable        string        `mapstructure:"variable"`          // Daily variable (default: temperature_2m_max)
	StartDate       string        `mapstructure:"start_date"`        // YYYY-MM-DD
	EndDate         string        `mapstructure:"end_date"`          // YYYY-MM-DD
	CacheDir        string        `mapstructure:"cache_dir"`         // Daily CSV cache directory
	Compression     string        `mapstructure:"compression"`       // none or snappy
	Timeout         time.Duration `mapstructure:"timeout"`           // HTTP timeout per request
	MemoryCacheSize int           `mapstructure:"memory_cache_size"` // Annual series kept in memory
}

// LocationConfig is one region to forecast
type LocationConfig struct {
	Name      string  `mapstructure:"name"`
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
	URL       string  `mapstructure:"url"` // Overrides the URL built from data.base_url
}

// AnomalyConfig configures unusual-year detection
type AnomalyConfig struct {
	Algorithm string  `mapstructure:"algorithm"` // zscore, iqr, moving_avg
	Threshold float64 `mapstructure:"threshold"`
	Detrend   bool    `mapstructure:"detrend"`
}

// OutputConfig controls written artifacts
type OutputConfig struct {
	Dir           string `mapstructure:"dir"`
	WriteEnsemble bool   `mapstructure:"write_ensemble"` // Write the full simulation matrix per location
}

// BatchConfig controls multi-location runs
type BatchConfig struct {
	Parallelism int `mapstructure:"parallelism"` // Locations processed concurrently
}

// AuthConfig represents authentication configuration
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`  // Enable/disable API key authentication
	APIKeys []string `mapstructure:"api_keys"` // List of valid API keys
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`      // Bind address for server (e.g., 0.0.0.0 for all interfaces)
	HTTPPort int    `mapstructure:"http_port"` // HTTP server port
}

// QueueConfig represents message queue configuration
type QueueConfig struct {
	Type          string `mapstructure:"type"`           // none (default), memory, nats, redis, kafka
	URL           string `mapstructure:"url"`            // Queue server URL (e.g., nats://localhost:4222, redis://localhost:6379)
	Username      string `mapstructure:"username"`       // Optional authentication
	Password      string `mapstructure:"password"`       // Optional authentication
	SubjectPrefix string `mapstructure:"subject_prefix"` // Subjects are <prefix>.summary.<region> and <prefix>.batch

	// Redis-specific options
	RedisDB     int    `mapstructure:"redis_db"`     // Redis database number (default: 0)
	RedisStream string `mapstructure:"redis_stream"` // Redis stream prefix (default: "tempcast")

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"` // Kafka broker addresses
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, UnixMs, etc
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Forecast.Validate(); err != nil {
		return fmt.Errorf("forecast config: %w", err)
	}

	if err := c.Data.Validate(); err != nil {
		return fmt.Errorf("data config: %w", err)
	}

	for i := range c.Locations {
		if err := c.Locations[i].Validate(); err != nil {
			return fmt.Errorf("locations[%d]: %w", i, err)
		}
	}

	if c.Batch.Parallelism < 1 {
		return fmt.Errorf("batch config: parallelism must be at least 1")
	}

	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Queue.Validate(); err != nil {
		return fmt.Errorf("queue config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates forecast configuration
func (c *ForecastConfig) Validate() error {
	if c.NLags < 1 {
		return fmt.Errorf("%w: nlags must be positive", forecast.ErrInvalidConfiguration)
	}

	if c.Simulations < 1 {
		return fmt.Errorf("%w: simulations must be positive", forecast.ErrInvalidConfiguration)
	}

	if c.BlockSize < 1 {
		return fmt.Errorf("%w: block_size must be positive", forecast.ErrInvalidConfiguration)
	}

	if c.Trees < 1 {
		return fmt.Errorf("%w: trees must be positive", forecast.ErrInvalidConfiguration)
	}

	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: max_depth cannot be negative", forecast.ErrInvalidConfiguration)
	}

	if _, err := forecast.ParseResidualScope(c.ResidualScope); err != nil {
		return err
	}

	for _, p := range c.Percentiles {
		if p < 0 || p > 1 {
			return fmt.Errorf("%w: percentile %v outside [0,1]", forecast.ErrInvalidConfiguration, p)
		}
	}

	return nil
}

// Validate validates data configuration
func (c *DataConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}

	if c.Variable == "" {
		return fmt.Errorf("variable is required")
	}

	if c.Compression != "none" && c.Compression != "snappy" {
		return fmt.Errorf("compression must be 'none' or 'snappy'")
	}

	if _, err := time.Parse(time.DateOnly, c.StartDate); err != nil {
		return fmt.Errorf("invalid start_date: %w", err)
	}

	if _, err := time.Parse(time.DateOnly, c.EndDate); err != nil {
		return fmt.Errorf("invalid end_date: %w", err)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	return nil
}

// Validate validates a location
func (c *LocationConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}

	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("invalid latitude: %v", c.Latitude)
	}

	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("invalid longitude: %v", c.Longitude)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}

	return nil
}

// Validate validates queue configuration
func (c *QueueConfig) Validate() error {
	switch c.Type {
	case "", "none", "memory":
		return nil
	case "nats", "redis":
		if c.URL == "" {
			return fmt.Errorf("queue.url is required for %s", c.Type)
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 && c.URL == "" {
			return fmt.Errorf("queue.kafka_brokers or queue.url is required for kafka")
		}
	default:
		return fmt.Errorf("unsupported queue type: %s", c.Type)
	}

	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be 'json' or 'console'")
	}

	return nil
}
