package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	generateRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "veo_generate_requests_total",
			Help: "Veo generation submissions by outcome (ok/error).",
		},
		[]string{"outcome"},
	)

	pollCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "veo_poll_calls_total",
			Help: "Operation status fetches by outcome (ok/error).",
		},
		[]string{"outcome"},
	)

	pollLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "veo_poll_latency_ms",
			Help:    "Operation status fetch latency in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
	)

	operationResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "veo_operations_total",
			Help: "Tracked operations by terminal result (completed/timeout/fetch_error/superseded).",
		},
		[]string{"result"},
	)

	sessionActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "veo_session_active",
			Help: "1 while a poll session is tracking an operation.",
		},
	)

	assetOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assets_operations_total",
			Help: "Asset repository operations by kind (image/video) and op.",
		},
		[]string{"kind", "op"},
	)

	assetsPruned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "assets_pruned_total",
			Help: "Assets removed by the retention worker.",
		},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			generateRequests, pollCalls, pollLatencyMs,
			operationResults, sessionActive,
			assetOps, assetsPruned,
		)
	})
}
