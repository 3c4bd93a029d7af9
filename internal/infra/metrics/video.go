package metrics

import "time"

// -------- tracker helpers --------

func IncGenerateRequest(outcome string) {
	generateRequests.WithLabelValues(outcome).Inc()
}

func ObservePoll(latency time.Duration, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	pollCalls.WithLabelValues(outcome).Inc()
	pollLatencyMs.Observe(float64(latency.Milliseconds()))
}

func IncOperationResult(result string) {
	operationResults.WithLabelValues(result).Inc()
}

func SetSessionActive(active bool) {
	if active {
		sessionActive.Set(1)
	} else {
		sessionActive.Set(0)
	}
}

// -------- asset helpers --------

func IncAssetOp(kind, op string) {
	assetOps.WithLabelValues(kind, op).Inc()
}

func AddAssetsPruned(n int64) {
	if n > 0 {
		assetsPruned.Add(float64(n))
	}
}
