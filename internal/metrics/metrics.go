package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anonchat_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "anonchat_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	MessagesPosted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anonchat_messages_posted_total",
			Help: "Total messages posted",
		},
		[]string{"theme"},
	)

	MessagesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anonchat_messages_rejected_total",
			Help: "Messages rejected before persistence",
		},
		[]string{"reason"},
	)

	HistoryReads = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "anonchat_history_reads_total",
			Help: "Total room history reads",
		},
	)

	// Live feed metrics
	ActiveSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "anonchat_feed_subscriptions",
			Help: "Currently open live feed subscriptions",
		},
	)

	SlowConsumers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "anonchat_feed_slow_consumers_total",
			Help: "Subscribers cut off for falling behind the live feed",
		},
	)
)
