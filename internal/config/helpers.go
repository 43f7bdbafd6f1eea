package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureDirectories ensures all required directories exist
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Data.CacheDir,
		c.Output.Dir,
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}

// GetOutputPath returns the full path for an output file
func (c *Config) GetOutputPath(filename string) string {
	return filepath.Join(c.Output.Dir, filename)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Logging.Level == "debug" && c.Logging.Format == "console"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Logging.Level == "info" && c.Logging.Format == "json"
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.HTTPPort)
}

// FindLocation returns the configured location whose name matches name
func (c *Config) FindLocation(name string) (LocationConfig, bool) {
	for _, loc := range c.Locations {
		if loc.Name == name {
			return loc, true
		}
	}
	return LocationConfig{}, false
}

// Horizon returns the number of years from lastYear to the configured forecast year.
// Zero or negative means nothing to forecast.
func (c *ForecastConfig) Horizon(lastYear int) int {
	return c.ForecastUntil - lastYear
}
