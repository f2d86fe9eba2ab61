package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the scheduler.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	publishTotal    *prometheus.CounterVec
	reconcileKicks  prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	cacheLatency    prometheus.Observer
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

	publishTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rota_publish_attempts_total",
		Help: "Week publish attempts by outcome",
	}, []string{"result"})

	reconcileKicks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rota_reconcile_kicks_total",
		Help: "Draft shifts moved to the open pool by the reconciler",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rota_cache_hits_total",
		Help: "Roster cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rota_cache_misses_total",
		Help: "Roster cache misses",
	})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rota_cache_latency_seconds",
		Help:    "Latency for roster cache operations",
		Buckets: prometheus.DefBuckets,
	})

	registry.MustRegister(requestDuration, requestTotal, publishTotal, reconcileKicks, cacheHits, cacheMisses, cacheLatency)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		publishTotal:    publishTotal,
		reconcileKicks:  reconcileKicks,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		cacheLatency:    cacheLatency,
	}
}

// Handler exposes the Prometheus scrape endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one served request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := prometheus.Labels{"method": method, "path": path, "status": fmt.Sprintf("%d", status)}
	s.requestDuration.With(labels).Observe(duration.Seconds())
	s.requestTotal.With(labels).Inc()
}

// RecordPublish counts a week publish attempt.
func (s *MetricsService) RecordPublish(success bool) {
	result := "rejected"
	if success {
		result = "published"
	}
	s.publishTotal.With(prometheus.Labels{"result": result}).Inc()
}

// RecordReconcileKick counts one shift returned to the open pool.
func (s *MetricsService) RecordReconcileKick() {
	s.reconcileKicks.Inc()
}

// RecordCacheOperation tracks roster cache effectiveness.
func (s *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if hit {
		s.cacheHits.Inc()
	} else {
		s.cacheMisses.Inc()
	}
	s.cacheLatency.Observe(duration.Seconds())
}
