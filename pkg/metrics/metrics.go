package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "overlap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests by route and status class.",
	}, []string{"route", "result"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "overlap",
		Subsystem: "http",
		Name:      "latency_seconds",
		Help:      "Latency distribution of HTTP requests.",
		Buckets: []float64{
			0.001, 0.005, 0.01, 0.05,
			0.1, 0.5, 1, 5,
		},
	}, []string{"route"})

	ReportsBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "overlap",
		Subsystem: "report",
		Name:      "built_total",
		Help:      "Reports computed, by source (dataset or inline).",
	}, []string{"source"})

	RowsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "overlap",
		Subsystem: "report",
		Name:      "rows_skipped_total",
		Help:      "Input rows left out of reports, by reason.",
	}, []string{"reason"})

	PairsProduced = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "overlap",
		Subsystem: "report",
		Name:      "pairs",
		Help:      "Number of employee pairs per report.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "overlap",
		Subsystem: "upload",
		Name:      "total",
		Help:      "Uploaded datasets by format and result.",
	}, []string{"format", "result"})
)

// Handler exposes the default registry
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// Instrument records request counts and latency per matched route
func Instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(route, resultLabel(c.Writer.Status())).Inc()
		httpLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func resultLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return strconv.Itoa(status)
	}
}
