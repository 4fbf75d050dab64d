package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPMetrics holds the request metrics of the API.
type HTTPMetrics struct {
	Requests        *prometheus.CounterVec
	RequestsLatency *prometheus.HistogramVec

	registry *prometheus.Registry
}

func NewHTTPMetrics() *HTTPMetrics {
	const (
		namespace = "reefing"
		subsystem = "http"
	)

	m := &HTTPMetrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Count of the API requests",
		}, []string{"method", "route", "status"}),

		RequestsLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_latency_seconds",
			Help:      "Histogram of times spent serving API requests",
			Buckets:   prometheus.ExponentialBuckets(1e-3, 5, 7),
		}, []string{"method", "route"}),

		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(m.PrometheusCollectors()...)
	m.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

func (m *HTTPMetrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Requests,
		m.RequestsLatency,
	}
}

// Middleware records every request under its route template.
func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.Requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestsLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *HTTPMetrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
