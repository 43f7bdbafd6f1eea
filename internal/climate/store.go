package climate

import (
	"context"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/tempcast/tempcast/internal/analytics"
	"github.com/tempcast/tempcast/internal/logging"
	"github.com/tempcast/tempcast/internal/metrics"
)

// Series sources reported by Store.
const (
	SourceMemory  = "memory"
	SourceDisk    = "disk"
	SourceNetwork = "network"
)

// Fetcher downloads the daily series of a location.
type Fetcher interface {
	FetchDaily(ctx context.Context, loc Location) (DailySeries, error)
}

// Dataset is the resampled data of one location.
type Dataset struct {
	Location Location
	Monthly  []MonthlyValue
	Annual   analytics.AnnualSeries
	Source   string
}

// Store serves annual series from memory, then the disk cache, then the network.
// Concurrent loads of the same location share one fetch.
type Store struct {
	fetcher Fetcher
	disk    *DiskCache
	memory  *lru.Cache[string, *Dataset]
	group   singleflight.Group
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the store logger.
func WithStoreLogger(l *logging.Logger) StoreOption {
	return func(s *Store) {
		s.logger = l
	}
}

// WithMetrics records loads on m.
func WithMetrics(m *metrics.Metrics) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

// NewStore creates a store. disk may be nil to skip the file cache and
// memorySize <= 0 disables the in-memory layer.
func NewStore(fetcher Fetcher, disk *DiskCache, memorySize int, opts ...StoreOption) (*Store, error) {
	if fetcher == nil && disk == nil {
		return nil, fmt.Errorf("climate: store needs a fetcher or a disk cache")
	}

	s := &Store{
		fetcher: fetcher,
		disk:    disk,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if memorySize > 0 {
		cache, err := lru.New[string, *Dataset](memorySize)
		if err != nil {
			return nil, fmt.Errorf("create memory cache: %w", err)
		}
		s.memory = cache
	}

	return s, nil
}

// AnnualSeries returns the annual mean series of loc.
func (s *Store) AnnualSeries(ctx context.Context, loc Location) (analytics.AnnualSeries, error) {
	ds, err := s.Load(ctx, loc)
	if err != nil {
		return nil, err
	}
	return ds.Annual.Clone(), nil
}

// Load returns the resampled dataset of loc.
func (s *Store) Load(ctx context.Context, loc Location) (*Dataset, error) {
	key := loc.Slug()

	if s.memory != nil {
		if ds, ok := s.memory.Get(key); ok {
			s.metrics.ObserveSeriesLoad(SourceMemory)
			return &Dataset{Location: ds.Location, Monthly: ds.Monthly, Annual: ds.Annual, Source: SourceMemory}, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.loadUncached(ctx, loc)
	})
	if err != nil {
		return nil, err
	}

	ds := v.(*Dataset)
	if s.memory != nil {
		s.memory.Add(key, ds)
	}
	return ds, nil
}

// Invalidate drops loc from the memory layer.
func (s *Store) Invalidate(loc Location) {
	if s.memory != nil {
		s.memory.Remove(loc.Slug())
	}
}

func (s *Store) loadUncached(ctx context.Context, loc Location) (*Dataset, error) {
	daily, source, err := s.daily(ctx, loc)
	if err != nil {
		return nil, err
	}

	monthly, annual := Resample(daily)
	s.metrics.ObserveSeriesLoad(source)
	s.logger.Debug("Loaded series",
		"region", loc.Name,
		"source", source,
		"days", len(daily),
		"years", len(annual))

	return &Dataset{Location: loc, Monthly: monthly, Annual: annual, Source: source}, nil
}

func (s *Store) daily(ctx context.Context, loc Location) (DailySeries, string, error) {
	if s.disk != nil {
		daily, err := s.disk.Load(loc)
		if err == nil {
			return daily, SourceDisk, nil
		}
		if !errors.Is(err, ErrNotCached) {
			s.logger.Warn("Ignoring unreadable cache file", "region", loc.Name, "error", err)
		}
	}

	if s.fetcher == nil {
		return nil, "", fmt.Errorf("%w: %s: not cached and no fetcher configured", ErrFetch, loc.Name)
	}

	daily, err := s.fetcher.FetchDaily(ctx, loc)
	if err != nil {
		s.metrics.ObserveFetchError()
		return nil, "", err
	}

	if s.disk != nil {
		if err := s.disk.Store(loc, daily); err != nil {
			s.logger.Warn("Failed to write cache file", "region", loc.Name, "error", err)
		}
	}

	return daily, SourceNetwork, nil
}
