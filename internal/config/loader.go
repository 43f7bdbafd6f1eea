package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load loads configuration from file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default config locations
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")             // Current directory
		v.AddConfigPath("./configs")     // Project configs directory
		v.AddConfigPath("./config")      // Alternative config directory
		v.AddConfigPath("/etc/tempcast") // System-wide config
	}

	// Set defaults
	setDefaults(v)

	// Enable environment variable overrides (TEMPCAST_FORECAST_NLAGS, ...)
	v.SetEnvPrefix("TEMPCAST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; use defaults
			return parseConfig(v)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	// Forecast defaults
	v.SetDefault("forecast.historical_end_year", d.Forecast.HistoricalEndYear)
	v.SetDefault("forecast.forecast_until", d.Forecast.ForecastUntil)
	v.SetDefault("forecast.nlags", d.Forecast.NLags)
	v.SetDefault("forecast.trees", d.Forecast.Trees)
	v.SetDefault("forecast.max_depth", d.Forecast.MaxDepth)
	v.SetDefault("forecast.simulations", d.Forecast.Simulations)
	v.SetDefault("forecast.block_size", d.Forecast.BlockSize)
	v.SetDefault("forecast.seed", d.Forecast.Seed)
	v.SetDefault("forecast.residual_scope", d.Forecast.ResidualScope)
	v.SetDefault("forecast.percentiles", d.Forecast.Percentiles)
	v.SetDefault("forecast.evidence_threshold", d.Forecast.EvidenceThreshold)

	// Data defaults
	v.SetDefault("data.base_url", d.Data.BaseURL)
	v.SetDefault("data.variable", d.Data.Variable)
	v.SetDefault("data.start_date", d.Data.StartDate)
	v.SetDefault("data.end_date", d.Data.EndDate)
	v.SetDefault("data.cache_dir", d.Data.CacheDir)
	v.SetDefault("data.compression", d.Data.Compression)
	v.SetDefault("data.timeout", "60s")
	v.SetDefault("data.memory_cache_size", d.Data.MemoryCacheSize)

	// Locations
	locations := make([]map[string]interface{}, len(d.Locations))
	for i, loc := range d.Locations {
		locations[i] = map[string]interface{}{
			"name":      loc.Name,
			"latitude":  loc.Latitude,
			"longitude": loc.Longitude,
		}
	}
	v.SetDefault("locations", locations)

	// Anomaly defaults
	v.SetDefault("anomaly.algorithm", d.Anomaly.Algorithm)
	v.SetDefault("anomaly.threshold", d.Anomaly.Threshold)
	v.SetDefault("anomaly.detrend", d.Anomaly.Detrend)

	// Output defaults
	v.SetDefault("output.dir", d.Output.Dir)
	v.SetDefault("output.write_ensemble", d.Output.WriteEnsemble)

	v.SetDefault("batch.parallelism", d.Batch.Parallelism)

	// Server defaults
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)

	// Queue defaults
	v.SetDefault("queue.type", d.Queue.Type)
	v.SetDefault("queue.subject_prefix", d.Queue.SubjectPrefix)
	v.SetDefault("queue.redis_stream", d.Queue.RedisStream)

	// Logging defaults
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadOrDefault loads configuration from file or returns default config
func LoadOrDefault(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		// Return default configuration
		return DefaultConfig()
	}
	return cfg
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Forecast: ForecastConfig{
			HistoricalEndYear: 2024,
			ForecastUntil:     2050,
			NLags:             5,
			Trees:             200,
			Simulations:       300,
			BlockSize:         3,
			ResidualScope:     "training",
			Percentiles:       []float64{0.05, 0.5, 0.95},
			EvidenceThreshold: 0.1,
		},
		Data: DataConfig{
			BaseURL:         "https://climate-api.open-meteo.com/v1/climate",
			Variable:        "temperature_2m_max",
			StartDate:       "1950-01-01",
			EndDate:         "2024-12-31",
			CacheDir:        "./data",
			Compression:     "none",
			Timeout:         60 * time.Second,
			MemoryCacheSize: 64,
		},
		Locations: []LocationConfig{
			{Name: "London_UK", Latitude: 51.5, Longitude: -0.13},
			{Name: "SouthAfrica", Latitude: -30, Longitude: 22},
			{Name: "India", Latitude: 20.5937, Longitude: 78.9629},
			{Name: "Germany", Latitude: 51.1657, Longitude: 10.4515},
			{Name: "USA", Latitude: 39.8283, Longitude: -98.5795},
			{Name: "Brazil", Latitude: -14.2350, Longitude: -51.9253},
			{Name: "Australia", Latitude: -25.2744, Longitude: 133.7751},
			{Name: "Arctic", Latitude: 90, Longitude: 0},
		},
		Anomaly: AnomalyConfig{
			Algorithm: "zscore",
			Threshold: 2.5,
			Detrend:   true,
		},
		Output: OutputConfig{
			Dir:           "./outputs",
			WriteEnsemble: true,
		},
		Batch: BatchConfig{
			Parallelism: 4,
		},
		Server: ServerConfig{
			Host:     "0.0.0.0",
			HTTPPort: 5555,
		},
		Queue: QueueConfig{
			Type:          "none",
			SubjectPrefix: "tempcast",
			RedisStream:   "tempcast",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
		},
	}
}
