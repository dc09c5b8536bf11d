package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	activeConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)

	productAPIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_api_requests_total",
			Help: "Total number of requests sent to the product API",
		},
		[]string{"operation", "status"},
	)

	productAPIErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "product_api_errors_total",
			Help: "Total number of failed product API requests",
		},
		[]string{"operation"},
	)

	consoleSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "console_sessions_active",
			Help: "Number of console sessions held in memory",
		},
	)

	auditEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_events_published_total",
			Help: "Total number of audit events handed to the broker",
		},
		[]string{"action", "result"},
	)
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		activeConnections.Inc()
		defer activeConnections.Dec()

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(rw.statusCode)
		path := routePattern(r)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// routePattern keeps product ids out of the label set.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// RecordAPICall counts a product API round trip. status is the HTTP status
// code, or "error" when no response arrived.
func RecordAPICall(operation, status string) {
	productAPIRequests.WithLabelValues(operation, status).Inc()
}

func RecordAPIError(operation string) {
	productAPIErrors.WithLabelValues(operation).Inc()
}

func SetActiveSessions(n int) {
	consoleSessions.Set(float64(n))
}

func RecordAuditPublish(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	auditEventsPublished.WithLabelValues(action, result).Inc()
}
