// Package metrics provides Prometheus instrumentation for the CreditGuard dashboard.
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditguard",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, path pattern, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes request latency by method and path.
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "creditguard",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// EvaluationsTotal counts returned verdicts by risk level.
	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditguard",
			Name:      "evaluations_total",
			Help:      "Total fraud evaluations by returned risk level.",
		},
		[]string{"risk_level"},
	)

	// EvaluationErrorsTotal counts failed evaluation calls by error kind.
	EvaluationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "creditguard",
			Name:      "evaluation_errors_total",
			Help:      "Total failed evaluation calls by error kind (network, service, parse).",
		},
		[]string{"kind"},
	)

	// ScoringRequestDuration observes upstream scoring call latency by operation.
	ScoringRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "creditguard",
			Name:      "scoring_request_duration_seconds",
			Help:      "Latency of calls to the external scoring service.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	// BatchSize observes the number of transactions per batch evaluation.
	BatchSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "creditguard",
		Name:      "batch_size",
		Help:      "Transactions per batch evaluation.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})

	// HistorySize tracks the current session history length.
	HistorySize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "creditguard",
		Name:      "history_size",
		Help:      "Current number of results in the session history.",
	})

	// ActiveWebSocketClients tracks connected dashboard sockets.
	ActiveWebSocketClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "creditguard",
		Name:      "active_websocket_clients",
		Help:      "Number of currently connected WebSocket clients.",
	})
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		EvaluationsTotal,
		EvaluationErrorsTotal,
		ScoringRequestDuration,
		BatchSize,
		HistorySize,
		ActiveWebSocketClients,
	)
}

// Middleware returns a gin middleware that records request metrics.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := prometheus.NewTimer(HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(), // Uses route pattern, not actual path (avoids cardinality explosion)
		))

		c.Next()

		timer.ObserveDuration()
		HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			statusBucket(c.Writer.Status()),
		).Inc()
	}
}

// Handler returns the Prometheus metrics HTTP handler for /metrics endpoint.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// statusBucket groups HTTP status codes into buckets (2xx, 3xx, 4xx, 5xx).
func statusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
