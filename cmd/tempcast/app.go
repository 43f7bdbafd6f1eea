package main

import (
	"errors"
	"fmt"

	"github.com/tempcast/tempcast/internal/climate"
	"github.com/tempcast/tempcast/internal/compression"
	"github.com/tempcast/tempcast/internal/config"
	"github.com/tempcast/tempcast/internal/logging"
	"github.com/tempcast/tempcast/internal/metrics"
	"github.com/tempcast/tempcast/internal/queue"
	"github.com/tempcast/tempcast/internal/services"
)

// app holds the components shared by the commands
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	metrics   *metrics.Metrics
	store     *climate.Store
	publisher queue.Publisher
	events    *queue.Events
	locations []climate.Location
}

// loadApp reads the configuration and wires data access, metrics and events
func loadApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return newApp(cfg)
}

func newApp(cfg *config.Config) (*app, error) {
	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logging.SetGlobal(logger)

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to create directories: %w", err)
	}

	m := metrics.New()

	client, err := climate.NewClient(climate.RequestFromConfig(cfg.Data),
		climate.WithTimeout(cfg.Data.Timeout),
		climate.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	algo, err := compression.ParseAlgorithm(cfg.Data.Compression)
	if err != nil {
		return nil, err
	}
	disk, err := climate.NewDiskCache(cfg.Data.CacheDir, algo)
	if err != nil {
		return nil, err
	}

	store, err := climate.NewStore(client, disk, cfg.Data.MemoryCacheSize,
		climate.WithStoreLogger(logger),
		climate.WithMetrics(m))
	if err != nil {
		return nil, err
	}

	publisher, err := queue.NewPublisher(cfg.Queue)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to queue: %w", err)
	}
	if cfg.Queue.Type != "" && cfg.Queue.Type != "none" {
		logger.Info("Publishing forecast events", "type", cfg.Queue.Type, "prefix", cfg.Queue.SubjectPrefix)
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		store:     store,
		publisher: publisher,
		events:    queue.NewEvents(publisher, cfg.Queue.SubjectPrefix),
		locations: climate.LocationsFromConfig(cfg.Locations),
	}, nil
}

// defaults returns the pipeline options of the configuration
func (a *app) defaults() services.ForecastOptions {
	return services.OptionsFromConfig(a.cfg.Forecast, a.cfg.Anomaly)
}

// forecastService builds the pipeline service; artifacts are written only when w is set
func (a *app) forecastService(w services.ArtifactWriter) *services.ForecastService {
	opts := []services.ServiceOption{
		services.WithEvents(a.events),
		services.WithMetrics(a.metrics),
	}
	if w != nil {
		opts = append(opts, services.WithArtifacts(w))
	}
	return services.NewForecastService(a.logger, a.store, a.defaults(), opts...)
}

// findLocation resolves name against the configured locations
func (a *app) findLocation(name string) (climate.Location, error) {
	if name == "" {
		if len(a.locations) == 0 {
			return climate.Location{}, errors.New("no locations configured")
		}
		return a.locations[0], nil
	}
	for _, loc := range a.locations {
		if loc.Name == name || loc.Slug() == name {
			return loc, nil
		}
	}
	return climate.Location{}, fmt.Errorf("unknown location %q", name)
}

func (a *app) Close() error {
	return a.events.Close()
}
