package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// tour-planning pipeline.
type Metrics struct {
	RecordsLoaded   prometheus.Counter
	RecordsDropped  *prometheus.CounterVec // labels: reason={bad_visitors,bad_year,short_row}
	SentinelRows    prometheus.Counter
	JoinMisses      prometheus.Counter
	ToursPlanned    prometheus.Counter
	SegmentsPlanned prometheus.Counter

	// Stage timing.
	StageDuration *prometheus.HistogramVec // labels: stage

	// Routing provider metrics.
	RouteRequests    *prometheus.CounterVec // labels: outcome={success,error,no_route}
	RouteRetries     prometheus.Counter
	RouteCache       *prometheus.CounterVec // labels: result={hit,miss}
	RouteAPIDuration prometheus.Histogram
	RoutingEnabled   prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsLoaded,
		m.RecordsDropped,
		m.SentinelRows,
		m.JoinMisses,
		m.ToursPlanned,
		m.SegmentsPlanned,
		m.StageDuration,
		m.RouteRequests,
		m.RouteRetries,
		m.RouteCache,
		m.RouteAPIDuration,
		m.RoutingEnabled,
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
		RecordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "park_etl",
			Name:      "records_loaded_total",
			Help:      "Total visitation rows successfully parsed.",
		}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "park_etl",
			Name:      "records_dropped_total",
			Help:      "Visitation rows dropped during ingestion, by reason.",
		}, []string{"reason"}),
		SentinelRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "park_etl",
			Name:      "sentinel_rows_total",
			Help:      "Synthetic per-park Total rows separated during ingestion.",
		}),
		JoinMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "park_etl",
			Name:      "join_misses_total",
			Help:      "Park totals dropped because no coordinate row matched.",
		}),
		ToursPlanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "park_etl",
			Name:      "tours_planned_total",
			Help:      "Closed tours produced across all runs.",
		}),
		SegmentsPlanned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "park_etl",
			Name:      "segments_planned_total",
			Help:      "Directed tour segments produced across all runs.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "park_etl",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30, 120},
		}, []string{"stage"}),
		RouteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "park_etl",
			Name:      "route_requests_total",
			Help:      "Routing API requests by outcome.",
		}, []string{"outcome"}),
		RouteRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "park_etl",
			Name:      "route_retries_total",
			Help:      "Routing API attempts beyond the first, per request.",
		}),
		RouteCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "park_etl",
			Name:      "route_cache_total",
			Help:      "Routing cache lookups by result.",
		}, []string{"result"}),
		RouteAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "park_etl",
			Name:      "route_api_duration_seconds",
			Help:      "Routing API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		RoutingEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "park_etl",
			Name:      "routing_enabled",
			Help:      "1 when road-route resolution is enabled, 0 otherwise.",
		}),
	}
}
