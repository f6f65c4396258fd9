package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auditor_client_requests_total",
		Help: "Requests sent to the audit state service by operation and outcome",
	}, []string{"op", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "auditor_client_request_duration_seconds",
		Help:    "Audit state service request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"op"})
)

const (
	outcomeOK      = "ok"
	outcomeNetwork = "network_error"
	outcomeService = "service_error"
)
