package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projctl_commands_total",
		Help: "The total number of projector commands by outcome",
	}, []string{"projector", "command", "outcome"})

	metricCommandDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "projctl_command_duration_seconds",
		Help:    "Duration of projector command round trips",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"projector", "command"})

	metricSessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "projctl_sessions_opened_total",
		Help: "The total number of verified projector sessions opened",
	})

	metricWebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "projctl_websocket_clients",
		Help: "The number of connected websocket clients",
	})

	metricHTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "projctl_http_requests_total",
		Help: "Count of all HTTP requests",
	}, []string{"code", "method"})

	metricHTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "projctl_http_request_duration_seconds",
		Help: "Duration of all HTTP requests",
	}, []string{"code", "method"})
)
