package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors exported by the service. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests         *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	cooks            *prometheus.CounterVec
	restocks         prometheus.Counter
	resolutionErrors *prometheus.CounterVec
}

// New builds a private registry with the Go and process collectors plus the
// service collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		cooks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantry_cook_total",
				Help: "Cook transactions by outcome",
			},
			[]string{"outcome"},
		),
		restocks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "pantry_restock_total",
				Help: "Successful restock operations",
			},
		),
		resolutionErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pantry_requirement_resolution_errors_total",
				Help: "Recipe requirement resolution failures by error kind",
			},
			[]string{"kind"},
		),
	}

	registry.MustRegister(m.requests, m.requestDuration, m.cooks, m.restocks, m.resolutionErrors)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveCook counts a cook attempt. outcome is "ok" or an error kind.
func (m *Metrics) ObserveCook(outcome string) {
	if m == nil {
		return
	}
	m.cooks.WithLabelValues(outcome).Inc()
}

// ObserveRestock counts a successful restock.
func (m *Metrics) ObserveRestock() {
	if m == nil {
		return
	}
	m.restocks.Inc()
}

// ObserveResolutionError counts a requirement resolution failure.
func (m *Metrics) ObserveResolutionError(kind string) {
	if m == nil {
		return
	}
	m.resolutionErrors.WithLabelValues(kind).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Middleware records request counts and latency. Paths are labelled by the
// matched ServeMux pattern to keep cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		m.requests.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
