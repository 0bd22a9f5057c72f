package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizreg_http_requests_total",
		Help: "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quizreg_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	// Registrations counts created registrations by source (form, onsite).
	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizreg_registrations_total",
		Help: "Registrations created by source.",
	}, []string{"source"})

	// Rejections counts refused registrations by reason (invalid, duplicate, error).
	Rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizreg_registration_rejections_total",
		Help: "Registration submissions rejected by reason.",
	}, []string{"reason"})

	// StatusUpdates counts attendance and certificate changes.
	StatusUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quizreg_status_updates_total",
		Help: "Attendance and certificate flag updates by field and value.",
	}, []string{"field", "value"})

	// RateLimited counts requests refused by the rate limiter.
	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quizreg_rate_limited_total",
		Help: "Requests rejected by the rate limiter.",
	})
)

// Middleware records request counts and latency keyed by the matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}
