package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Engine metrics
	backtestsTotal *prometheus.CounterVec
	outcomesTotal  *prometheus.CounterVec
	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	batchDuration  prometheus.Histogram
	scansTotal     prometheus.Counter
	universeSize   prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Engine metrics
	r.backtestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hindsight_backtests_total",
			Help: "Total number of per-stock backtests by result",
		},
		[]string{"status"},
	)
	r.outcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hindsight_outcomes_total",
			Help: "Total number of classified signal outcomes",
		},
		[]string{"stage", "state"},
	)
	r.cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hindsight_cache_hits_total",
			Help: "Result cache hits",
		},
	)
	r.cacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hindsight_cache_misses_total",
			Help: "Result cache misses",
		},
	)
	r.batchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hindsight_batch_duration_seconds",
			Help:    "Batch scan duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)
	r.scansTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hindsight_scans_total",
			Help: "Total number of batch scans completed",
		},
	)
	r.universeSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "hindsight_universe_size",
			Help: "Number of stocks in the last scan universe",
		},
	)

	reg.MustRegister(r.backtestsTotal)
	reg.MustRegister(r.outcomesTotal)
	reg.MustRegister(r.cacheHits)
	reg.MustRegister(r.cacheMisses)
	reg.MustRegister(r.batchDuration)
	reg.MustRegister(r.scansTotal)
	reg.MustRegister(r.universeSize)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordBacktest records a completed per-stock backtest.
func (r *Registry) RecordBacktest(status string) {
	r.backtestsTotal.WithLabelValues(status).Inc()
}

// RecordOutcome records one classified signal outcome.
func (r *Registry) RecordOutcome(stage, state string) {
	r.outcomesTotal.WithLabelValues(stage, state).Inc()
}

// RecordCache records cumulative cache hit/miss counts as deltas.
func (r *Registry) RecordCache(hits, misses float64) {
	r.cacheHits.Add(hits)
	r.cacheMisses.Add(misses)
}

// RecordScan records a completed batch scan.
func (r *Registry) RecordScan(universe int, duration float64) {
	r.scansTotal.Inc()
	r.universeSize.Set(float64(universe))
	r.batchDuration.Observe(duration)
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
