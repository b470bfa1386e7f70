// Package metrics exposes Prometheus instrumentation for the HTTP surface
// and the reminder pipeline.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	IntakesRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intakes_recorded_total",
			Help: "Recorded intake events by status",
		},
		[]string{"status"},
	)

	NotificationsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Web push notifications delivered",
		},
	)

	LowStockReminders = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "low_stock_reminders_total",
			Help: "Low-stock reminders triggered by threshold crossings",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(IntakesRecorded)
	prometheus.MustRegister(NotificationsSent)
	prometheus.MustRegister(LowStockReminders)
}
