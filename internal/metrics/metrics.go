// Package metrics exports reconciliation, analysis and HTTP metrics to
// Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/ordersync/internal/core"
)

// Collector records metrics on its own registry. It implements
// core.SyncObserver and is safe for concurrent use.
type Collector struct {
	registry  *prometheus.Registry
	namespace string

	rowsTotal        *prometheus.CounterVec
	rowDuration      *prometheus.HistogramVec
	importsTotal     *prometheus.CounterVec
	importDuration   *prometheus.HistogramVec
	analysesTotal    prometheus.Counter
	analyzedOrders   prometheus.Histogram
	analysisDuration prometheus.Histogram
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

var _ core.SyncObserver = (*Collector)(nil)

// New creates a collector whose metric names start with namespace.
func New(namespace string) *Collector {
	if namespace == "" {
		namespace = "ordersync"
	}
	c := &Collector{registry: prometheus.NewRegistry(), namespace: namespace}

	c.rowsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sync_rows_total",
		Help:      "Rows reconciled, by outcome.",
	}, []string{"action"})

	c.rowDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sync_row_duration_seconds",
		Help:      "Time spent reconciling one row, including store calls.",
		Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, 1},
	}, []string{"action"})

	c.importsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "imports_total",
		Help:      "Completed imports, by source.",
	}, []string{"source"})

	c.importDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "import_duration_seconds",
		Help:      "Wall time of a whole import batch.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"source"})

	c.analysesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analyses_total",
		Help:      "Profitability analyses computed.",
	})

	c.analyzedOrders = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analysis_orders",
		Help:      "Number of orders in each analysis.",
		Buckets:   prometheus.ExponentialBuckets(1, 10, 7),
	})

	c.analysisDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analysis_duration_seconds",
		Help:      "Time spent computing one analysis.",
		Buckets:   prometheus.DefBuckets,
	})

	c.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests, by route pattern, method and status code.",
	}, []string{"route", "method", "code"})

	c.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency, by route pattern and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	c.registry.MustRegister(
		c.rowsTotal, c.rowDuration,
		c.importsTotal, c.importDuration,
		c.analysesTotal, c.analyzedOrders, c.analysisDuration,
		c.httpRequests, c.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RowReconciled implements core.SyncObserver.
func (c *Collector) RowReconciled(action core.SyncAction, elapsed time.Duration) {
	c.rowsTotal.WithLabelValues(string(action)).Inc()
	c.rowDuration.WithLabelValues(string(action)).Observe(elapsed.Seconds())
}

// ImportCompleted implements core.SyncObserver.
func (c *Collector) ImportCompleted(source string, _ core.SyncResult, elapsed time.Duration) {
	c.importsTotal.WithLabelValues(source).Inc()
	c.importDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// AnalysisCompleted implements core.SyncObserver.
func (c *Collector) AnalysisCompleted(orders int, elapsed time.Duration) {
	c.analysesTotal.Inc()
	c.analyzedOrders.Observe(float64(orders))
	c.analysisDuration.Observe(elapsed.Seconds())
}

// WatchImportLimiter exports the limiter's occupancy as gauges.
func (c *Collector) WatchImportLimiter(status func() core.ImportLimiterStatus) {
	c.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: c.namespace,
			Name:      "imports_active",
			Help:      "Imports currently holding a limiter slot.",
		}, func() float64 { return float64(status().Active) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: c.namespace,
			Name:      "imports_max_concurrent",
			Help:      "Configured import concurrency limit.",
		}, func() float64 { return float64(status().MaxConcurrent) }),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// Middleware records request counts and latency labelled by chi route
// pattern, so path parameters do not explode label cardinality.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		c.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
