package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var HistogramBuckets = []float64{
	// Fast responses (0 - 500ms)
	25, 50, 75, 100, 150, 200, 300, 400, 500,
	// Medium responses (500ms - 2s)
	750, 1000, 1250, 1500, 1750, 2000,
	// Slow responses (2s - 15s)
	2500, 3000, 4000, 5000, 7500, 10000, 15000,
	// Long tail, covers provider/database stalls
	20000, 30000, 45000, 60000,
}

var (
	reqCnt = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "http",
			Name:      "req_total",
			Help:      "How many HTTP requests processed, partitioned by status code, method and route.",
		},
		[]string{"code", "method", "url"},
	)
	reqDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: "http",
			Name:      "req_dur_ms",
			Help:      "The HTTP request latencies in milliseconds.",
			Buckets:   HistogramBuckets,
		},
		[]string{"code", "method", "url"},
	)

	// WebhookEvents counts webhook events by type and outcome
	// (received, duplicate, processed, ignored, failed).
	WebhookEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: "webhook",
			Name:      "events_total",
			Help:      "Webhook events partitioned by event type and processing outcome.",
		},
		[]string{"type", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(reqCnt, reqDur, WebhookEvents)
}

// GinMiddleware records request count and latency per route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		url := c.FullPath()
		if url == "" {
			url = c.Request.URL.Path
		}
		code := strconv.Itoa(c.Writer.Status())
		reqCnt.WithLabelValues(code, c.Request.Method, url).Inc()
		reqDur.WithLabelValues(code, c.Request.Method, url).
			Observe(float64(time.Since(start).Milliseconds()))
	}
}
