package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the Prometheus collectors for the sleep tracker.
type Metrics struct {
	AnalysesTotal    *prometheus.CounterVec
	IssuesTotal      *prometheus.CounterVec
	SessionsTotal    *prometheus.CounterVec
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	ActiveSleepsOpen prometheus.Gauge
}

// NewMetrics returns the process-wide metrics, registering them on first use.
//
// Metrics:
//   - sleeptracker_analyses_total{pattern}
//   - sleeptracker_issues_total{issue}
//   - sleeptracker_sessions_total{source} - "manual" or "tracked"
//   - sleeptracker_http_requests_total{method,route,status}
//   - sleeptracker_http_request_duration_seconds{method,route}
//   - sleeptracker_active_sleeps
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			AnalysesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "sleeptracker_analyses_total",
					Help: "Total number of pattern analyses by resulting pattern",
				},
				[]string{"pattern"},
			),

			IssuesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "sleeptracker_issues_total",
					Help: "Total number of issues reported by analyses",
				},
				[]string{"issue"},
			),

			SessionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "sleeptracker_sessions_total",
					Help: "Total number of sleep sessions stored",
				},
				[]string{"source"},
			),

			RequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "sleeptracker_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "route", "status"},
			),

			RequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "sleeptracker_http_request_duration_seconds",
					Help:    "Duration of HTTP requests in seconds",
					Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~2s
				},
				[]string{"method", "route"},
			),

			ActiveSleepsOpen: promauto.NewGauge(
				prometheus.GaugeOpts{
					Name: "sleeptracker_active_sleeps",
					Help: "Sleep sessions started and not yet ended",
				},
			),
		}
	})

	return globalMetrics
}

// RecordAnalysis counts one analysis and every issue it reported.
func (m *Metrics) RecordAnalysis(pattern string, issues []string) {
	m.AnalysesTotal.WithLabelValues(pattern).Inc()
	for _, issue := range issues {
		m.IssuesTotal.WithLabelValues(issue).Inc()
	}
}

func (m *Metrics) RecordSession(source string) {
	m.SessionsTotal.WithLabelValues(source).Inc()
}

// SetActiveSleeps seeds the gauge from storage, so sessions opened before a
// restart are counted.
func (m *Metrics) SetActiveSleeps(n int) { m.ActiveSleepsOpen.Set(float64(n)) }

func (m *Metrics) SleepStarted() { m.ActiveSleepsOpen.Inc() }

func (m *Metrics) SleepEnded() { m.ActiveSleepsOpen.Dec() }

// GinMiddleware records request count and latency per matched route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
