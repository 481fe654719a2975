// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_emails_sent_total",
			Help: "Total number of emails delivered, by notification kind",
		},
		[]string{"kind", "transport"},
	)

	EmailsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_emails_failed_total",
			Help: "Total number of email deliveries that failed",
		},
		[]string{"kind", "error_code"},
	)

	EmailsSuppressed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_emails_suppressed_total",
			Help: "Total number of sends short-circuited by the kill switch",
		},
		[]string{"kind"},
	)

	TransportVerifyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifier_transport_verify_failures_total",
			Help: "Total number of failed transport verification handshakes",
		},
		[]string{"transport"},
	)

	SendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "notifier_send_duration_seconds",
			Help: "Duration of the full acquire-compose-deliver cycle in seconds",
		},
		[]string{"kind"},
	)

	QueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notifier_queue_depth",
			Help: "Number of notifications waiting in the outbound queue",
		},
	)

	QueueRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifier_queue_rejections_total",
			Help: "Total number of notifications rejected because the queue was full",
		},
	)
)
