package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// SubmissionsTotal counts recorded answers by what caused them:
	// user, countdown, or engagement.
	SubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_submissions_total",
			Help: "Total number of answer submissions by trigger",
		},
		[]string{"trigger"},
	)

	// SessionsFinished counts answering sessions that reached the end.
	SessionsFinished = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_sessions_finished_total",
			Help: "Total number of answering sessions completed",
		},
	)

	// NavigationBlocked counts refused leave attempts during sessions.
	NavigationBlocked = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quiz_navigation_blocked_total",
			Help: "Total number of back-navigation attempts blocked mid-session",
		},
	)
)

// Init registers all collectors. Call once at startup.
func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(SubmissionsTotal)
	prometheus.MustRegister(SessionsFinished)
	prometheus.MustRegister(NavigationBlocked)
}

// Middleware records request count and latency per route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

// Handler exposes the Prometheus scrape endpoint as a Gin handler.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
