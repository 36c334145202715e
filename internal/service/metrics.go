package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forex_upstream_requests_total",
			Help: "Requests sent to the rate provider by endpoint and result",
		},
		[]string{"endpoint", "result"},
	)

	upstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forex_upstream_request_duration_seconds",
			Help:    "Latency of rate provider requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)
)

func observeRequest(endpoint string, seconds float64, err error) {
	result := "ok"
	if kind, ok := KindOf(err); ok {
		result = kind.String()
	} else if err != nil {
		result = "error"
	}
	upstreamRequestsTotal.WithLabelValues(endpoint, result).Inc()
	upstreamRequestDuration.WithLabelValues(endpoint).Observe(seconds)
}
