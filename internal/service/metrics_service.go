package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the fee ledger.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	reconcileRuns   prometheus.Counter
	reconcileRows   *prometheus.CounterVec
	sweepDuration   prometheus.Observer
	batchFailures   *prometheus.CounterVec
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	reconcileRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reconciliation_runs_total",
		Help: "Total reconciliation sweeps executed",
	})

	reconcileRows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconciliation_rows_total",
		Help: "Ledger rows seen by reconciliation, by outcome",
	}, []string{"outcome"})

	sweepDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "reconciliation_sweep_seconds",
		Help:    "Duration of full reconciliation sweeps",
		Buckets: prometheus.DefBuckets,
	})

	batchFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_item_failures_total",
		Help: "Per-item failures inside best-effort batch jobs",
	}, []string{"operation"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheHits, cacheMisses,
		reconcileRuns, reconcileRows, sweepDuration, batchFailures, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		reconcileRuns:   reconcileRuns,
		reconcileRows:   reconcileRows,
		sweepDuration:   sweepDuration,
		batchFailures:   batchFailures,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}

// ObserveReconciliation records the outcome of one reconciliation sweep.
func (m *MetricsService) ObserveReconciliation(checked, changed int, duration time.Duration) {
	if m == nil {
		return
	}
	m.reconcileRuns.Inc()
	m.reconcileRows.WithLabelValues("checked").Add(float64(checked))
	m.reconcileRows.WithLabelValues("changed").Add(float64(changed))
	m.sweepDuration.Observe(duration.Seconds())
}

// RecordBatchFailure counts one failed item inside a batch operation.
func (m *MetricsService) RecordBatchFailure(operation string) {
	if m == nil {
		return
	}
	m.batchFailures.WithLabelValues(operation).Inc()
}
