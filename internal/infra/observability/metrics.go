package observability

import (
	"time"

	"github.com/peykeuangan/rekap-pengeluaran-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the recap service.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	exportsTotal    prometheus.Counter
	staleFallbacks  prometheus.Counter
	discarded       prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rekap_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rekap_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rekap_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rekap_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rekap_requests_total",
				Help: "Total recap requests processed.",
			},
			[]string{"status"},
		),
		exportsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rekap_exports_total",
				Help: "Total spreadsheet exports served.",
			},
		),
		staleFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rekap_stale_fallbacks_total",
				Help: "Failed fetches answered with the last good snapshot.",
			},
		),
		discarded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "rekap_discarded_responses_total",
				Help: "Store responses dropped because a newer one was already applied.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// IncrExport counts a served spreadsheet.
func (m *Metrics) IncrExport() {
	m.exportsTotal.Inc()
}

// IncrStaleFallback counts a failed fetch answered from the last good snapshot.
func (m *Metrics) IncrStaleFallback() {
	m.staleFallbacks.Inc()
}

// IncrDiscarded counts an out-of-order store response that was dropped.
func (m *Metrics) IncrDiscarded() {
	m.discarded.Inc()
}

// GetRecapSnapshot returns a snapshot of recap metrics suitable for the
// GET /v1/metrics/recap endpoint.
func (m *Metrics) GetRecapSnapshot() *domain.RecapMetrics {
	// Prometheus counters expose cumulative values.
	success := getCounterValue(m.requestsTotal.WithLabelValues("success"))
	failed := getCounterValue(m.requestsTotal.WithLabelValues("error"))
	hits := getCounterValue(m.cacheHits.WithLabelValues("recap"))
	misses := getCounterValue(m.cacheMisses.WithLabelValues("recap"))

	total := success + failed
	errorRate := float64(0)
	cacheHitRate := float64(0)
	if total > 0 {
		errorRate = failed / total
	}
	if hits+misses > 0 {
		cacheHitRate = hits / (hits + misses)
	}

	return &domain.RecapMetrics{
		TotalRequests:     int64(total),
		ErrorRate:         errorRate,
		CacheHitRate:      cacheHitRate,
		Exports:           int64(getCounterValue(m.exportsTotal)),
		StaleFallbacks:    int64(getCounterValue(m.staleFallbacks)),
		DiscardedResponse: int64(getCounterValue(m.discarded)),
		Period:            "all_time",
	}
}

// getCounterValue extracts the current float64 value from a counter.
func getCounterValue(counter prometheus.Counter) float64 {
	m := &dto.Metric{}
	if err := counter.Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
