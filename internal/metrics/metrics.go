// Package metrics holds the Prometheus collectors of the forecasting pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	SeriesLoads         *prometheus.CounterVec // by source: memory, disk, network
	FetchErrors         prometheus.Counter
	LocationsProcessed  *prometheus.CounterVec // by status: ok, failed
	LocationDuration    prometheus.Histogram
	EnsembleSimulations prometheus.Counter
	EnsembleFailures    prometheus.Counter
	BatchRuns           prometheus.Counter
	HTTPRequests        *prometheus.CounterVec // by method, route, status
}

// New creates and registers all metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg)
}

// NewWithRegistry registers all metrics on reg.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SeriesLoads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tempcast_series_loads_total",
				Help: "Annual series loads by the layer that served them",
			},
			[]string{"source"},
		),
		FetchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "tempcast_fetch_errors_total",
			Help: "Failed downloads from the climate API",
		}),
		LocationsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tempcast_locations_processed_total",
				Help: "Locations run through the forecasting pipeline",
			},
			[]string{"status"},
		),
		LocationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tempcast_location_duration_seconds",
			Help:    "Wall time of one location pipeline",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
		}),
		EnsembleSimulations: factory.NewCounter(prometheus.CounterOpts{
			Name: "tempcast_ensemble_simulations_total",
			Help: "Bootstrap trajectories generated",
		}),
		EnsembleFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "tempcast_ensemble_failures_total",
			Help: "Locations whose uncertainty ensemble could not be built",
		}),
		BatchRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "tempcast_batch_runs_total",
			Help: "Completed multi-location runs",
		}),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tempcast_http_requests_total",
				Help: "HTTP requests served",
			},
			[]string{"method", "route", "status"},
		),
	}
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveSeriesLoad counts one series served by source.
func (m *Metrics) ObserveSeriesLoad(source string) {
	if m == nil {
		return
	}
	m.SeriesLoads.WithLabelValues(source).Inc()
}

// ObserveFetchError counts one failed download.
func (m *Metrics) ObserveFetchError() {
	if m == nil {
		return
	}
	m.FetchErrors.Inc()
}

// ObserveLocation records one finished location pipeline.
func (m *Metrics) ObserveLocation(ok bool, d time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.LocationsProcessed.WithLabelValues(status).Inc()
	m.LocationDuration.Observe(d.Seconds())
}

// ObserveEnsemble records the outcome of one ensemble build.
func (m *Metrics) ObserveEnsemble(simulations int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.EnsembleFailures.Inc()
		return
	}
	m.EnsembleSimulations.Add(float64(simulations))
}

// ObserveBatch counts one finished batch.
func (m *Metrics) ObserveBatch() {
	if m == nil {
		return
	}
	m.BatchRuns.Inc()
}

// ObserveHTTP counts one served request.
func (m *Metrics) ObserveHTTP(method, route, status string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
}
