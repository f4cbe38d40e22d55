package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockhealth",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "HTTP requests handled, by method, route and status code.",
	}, []string{"method", "route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockhealth",
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency, by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	authFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "blockhealth",
		Subsystem: "gateway",
		Name:      "auth_failures_total",
		Help:      "Requests rejected by the bearer-token middleware.",
	})
)
