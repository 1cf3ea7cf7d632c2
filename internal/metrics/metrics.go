package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	reqDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "campuscare",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	reqTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "campuscare", Name: "http_requests_total", Help: "Total HTTP requests"},
		[]string{"method", "path", "status"},
	)
	notificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "campuscare", Name: "notifications_total", Help: "Notification outcomes (sent, failed, dropped)"},
		[]string{"kind", "outcome"},
	)
	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "campuscare", Name: "complaint_transitions_total", Help: "Applied complaint status transitions"},
		[]string{"from", "to"},
	)
	cacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "campuscare", Name: "stats_cache_total", Help: "Stats cache lookups by result"},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(reqDuration, reqTotal, notificationsTotal, transitionsTotal, cacheTotal)
}

// Middleware records request count and latency keyed by route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		reqDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		reqTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

// Handler exposes the default registry.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func RecordNotification(kind, outcome string) {
	notificationsTotal.WithLabelValues(kind, outcome).Inc()
}

func RecordTransition(from, to string) {
	transitionsTotal.WithLabelValues(from, to).Inc()
}

func RecordCache(hit bool) {
	if hit {
		cacheTotal.WithLabelValues("hit").Inc()
		return
	}
	cacheTotal.WithLabelValues("miss").Inc()
}
