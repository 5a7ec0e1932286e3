package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hazard_hotspots"

// Cycle outcomes recorded in CyclesTotal.
const (
	OutcomeSuccess      = "success"
	OutcomeFetchError   = "fetch_error"
	OutcomePersistError = "persist_error"
	OutcomeTimeout      = "timeout"
)

// Metrics holds the Prometheus collectors for the hotspot engine.
type Metrics struct {
	CyclesTotal      *prometheus.CounterVec // labels: outcome={success,fetch_error,persist_error,timeout}
	CyclesSkipped    prometheus.Counter
	CycleDuration    prometheus.Histogram
	SchedulerRunning prometheus.Gauge

	ReportsFetched  prometheus.Gauge
	ReportsRejected prometheus.Counter
	HotspotsCurrent prometheus.Gauge

	ReadFailures  *prometheus.CounterVec // labels: op={all,nearby}
	PublishErrors prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all engine metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.CyclesTotal,
		m.CyclesSkipped,
		m.CycleDuration,
		m.SchedulerRunning,
		m.ReportsFetched,
		m.ReportsRejected,
		m.HotspotsCurrent,
		m.ReadFailures,
		m.PublishErrors,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		CyclesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Recalculation cycles by outcome.",
		}, []string{"outcome"}),
		CyclesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_skipped_total",
			Help:      "Triggers dropped because a cycle was already running.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of a complete fetch-cluster-score-replace cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_running",
			Help:      "1 while the recalculation scheduler is active, 0 after shutdown.",
		}),
		ReportsFetched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "reports_fetched",
			Help:      "Eligible reports fetched by the most recent cycle.",
		}),
		ReportsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_rejected_total",
			Help:      "Reports excluded from clustering for malformed coordinates or severity.",
		}),
		HotspotsCurrent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "hotspots_current",
			Help:      "Hotspots persisted by the most recent successful cycle.",
		}),
		ReadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "read_failures_total",
			Help:      "Hotspot reads that failed open and returned an empty list.",
		}, []string{"op"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Hotspot snapshot publications that failed.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Reverse geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}
