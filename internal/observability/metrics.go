package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the service.
type Metrics struct {
	// Registry owns every collector below and backs the /metrics endpoint.
	Registry *prometheus.Registry

	computeDuration *prometheus.HistogramVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	syncsTotal      *prometheus.CounterVec
	externalErrors  *prometheus.CounterVec
}

// NewMetrics registers all collectors in a private registry so tests can build
// as many instances as they like.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		computeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "earn_compute_duration_seconds",
				Help:    "Duration of portfolio computations by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earn_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earn_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		syncsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earn_tracker_syncs_total",
				Help: "Total tracker synchronisations by outcome.",
			},
			[]string{"status"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "earn_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
	}
}

// RecordComputeDuration records how long a portfolio computation took.
// All recording methods are no-ops on a nil *Metrics.
func (m *Metrics) RecordComputeDuration(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.computeDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) IncrCacheHit(cache string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(cache).Inc()
}

func (m *Metrics) IncrCacheMiss(cache string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrSync counts a tracker synchronisation with status "success" or "error".
func (m *Metrics) IncrSync(status string) {
	if m == nil {
		return
	}
	m.syncsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) IncrExternalError(service string) {
	if m == nil {
		return
	}
	m.externalErrors.WithLabelValues(service).Inc()
}
