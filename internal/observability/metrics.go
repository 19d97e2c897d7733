package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quake_explorer"

// Metrics holds the Prometheus counters, histograms, and gauges for the explorer.
type Metrics struct {
	// Catalog ingestion metrics.
	CatalogEvents   prometheus.Gauge
	RecordsConsumed prometheus.Counter
	RecordsSkipped  prometheus.Counter

	// View pipeline metrics.
	FilterPasses   prometheus.Counter
	FilteredEvents prometheus.Histogram
	ReconcileOps   *prometheus.CounterVec // labels: op={enter,update,exit,revive,skip}
	SceneNodes     prometheus.Histogram
	FrameDuration  prometheus.Histogram
	ActiveSessions prometheus.Gauge

	// Tour metrics.
	TourSteps    prometheus.Counter
	TourAborts   prometheus.Counter
	ToursRunning prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec   // labels: method={reverse}, outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec   // labels: method={reverse}, result={hit,miss}
	GeocodeAPIDuration *prometheus.HistogramVec // labels: method={reverse}
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all explorer metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		CatalogEvents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_events",
			Help:      help("Events in the loaded catalog."),
		}),
		RecordsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_records_consumed_total",
			Help:      help("Catalog records read from the configured source."),
		}),
		RecordsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_records_skipped_total",
			Help:      help("Catalog records dropped for missing or malformed coordinates."),
		}),
		FilterPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "filter_passes_total",
			Help:      help("Filter pipeline evaluations."),
		}),
		FilteredEvents: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "filtered_events",
			Help:      help("Events surviving a filter pass."),
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000, 2500},
		}),
		ReconcileOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_ops_total",
			Help:      help("Scene reconciliation operations by kind."),
		}, []string{"op"}),
		SceneNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scene_nodes",
			Help:      help("Nodes in a session's scene after reconciliation."),
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000, 2500},
		}),
		FrameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      help("Time spent running one animation frame across all sessions."),
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.004, 0.008, 0.016, 0.033, 0.1},
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      help("Explorer sessions currently held in memory."),
		}),
		TourSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tour_steps_total",
			Help:      help("Tour stops started."),
		}),
		TourAborts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tour_aborts_total",
			Help:      help("Tours ended because a step failed."),
		}),
		ToursRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tours_running",
			Help:      help("Sessions with a tour in progress."),
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      help("Geocoding API requests by method and outcome."),
		}, []string{"method", "outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      help("Geocoding cache lookups by method and result."),
		}, []string{"method", "result"}),
		GeocodeAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      help("Mapbox API request duration in seconds."),
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      help("1 when geocoding enrichment is enabled, 0 otherwise."),
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.CatalogEvents,
		m.RecordsConsumed,
		m.RecordsSkipped,
		m.FilterPasses,
		m.FilteredEvents,
		m.ReconcileOps,
		m.SceneNodes,
		m.FrameDuration,
		m.ActiveSessions,
		m.TourSteps,
		m.TourAborts,
		m.ToursRunning,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	}
}
