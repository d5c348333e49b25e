package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	reportSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "report_submissions_total",
			Help: "Total number of submitted civic reports",
		},
		[]string{"category", "priority"},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Total number of notifications added to user feeds",
		},
		[]string{"type"},
	)

	rateLimitedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"action"},
	)

	reportsByStatus = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reports",
			Help: "Current number of reports by status",
		},
		[]string{"status"},
	)

	liveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_sessions",
			Help: "Number of server-side sessions held in memory",
		},
	)
)

// MetricsMiddleware collects Prometheus metrics for every HTTP request.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		// FullPath keeps route parameters unexpanded (/api/reports/:id)
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}

		c.Next()

		httpRequestsInFlight.Dec()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(duration)
	}
}

func RecordReportSubmission(category, priority string) {
	reportSubmissionsTotal.WithLabelValues(category, priority).Inc()
}

func RecordNotification(notificationType string) {
	notificationsTotal.WithLabelValues(notificationType).Inc()
}

func RecordRateLimited(action string) {
	rateLimitedTotal.WithLabelValues(action).Inc()
}

// SetReportGauges publishes the current report count per status.
func SetReportGauges(counts map[string]int) {
	for status, n := range counts {
		reportsByStatus.WithLabelValues(status).Set(float64(n))
	}
}

func SetLiveSessions(n int) {
	liveSessions.Set(float64(n))
}
