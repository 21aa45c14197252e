// Package slo publishes service level indicators computed from the HTTP request
// histogram. A Tracker is evaluated on a schedule; each evaluation covers the
// requests observed since the previous one.
package slo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Targets. Summaries of long documents run for tens of seconds, so latency
// objectives are set per request rather than per token.
const (
	// AvailabilitySLO is the target share of non-5xx responses, in percent.
	AvailabilitySLO = 99.5

	// LatencyP95SLO is the p95 latency target in seconds.
	LatencyP95SLO = 10.0

	// LatencyP99SLO is the p99 latency target in seconds.
	LatencyP99SLO = 30.0

	// ErrorRateSLO is the maximum 5xx ratio.
	ErrorRateSLO = 0.005
)

var (
	SLOAvailability = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slo_availability_ratio",
		Help: "Availability ratio (0-1) over the last evaluation window, target: 0.995",
	})

	SLOLatencyP95 = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slo_latency_p95_seconds",
		Help: "p95 request latency over the last evaluation window, target: 10",
	})

	SLOLatencyP99 = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slo_latency_p99_seconds",
		Help: "p99 request latency over the last evaluation window, target: 30",
	})

	SLOErrorRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slo_error_rate_ratio",
		Help: "5xx ratio (0-1) over the last evaluation window, target: 0.005",
	})
)

func publish(s Snapshot) {
	SLOAvailability.Set(s.Availability)
	SLOErrorRate.Set(s.ErrorRate)
	SLOLatencyP95.Set(s.P95)
	SLOLatencyP99.Set(s.P99)
}
