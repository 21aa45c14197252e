package inference

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"summarize-pro/internal/observability/metrics"
)

// CallMetricsRecorder records the outcome of inference calls.
type CallMetricsRecorder interface {
	RecordCall(backend, task string, duration time.Duration, err error)
}

// PrometheusCallMetrics implements CallMetricsRecorder with Prometheus collectors.
type PrometheusCallMetrics struct {
	duration *prometheus.HistogramVec
	errors   *prometheus.CounterVec
}

var (
	callMetricsInstance *PrometheusCallMetrics
	callMetricsOnce     sync.Once
)

// NewPrometheusCallMetrics returns the process-wide recorder.
func NewPrometheusCallMetrics() *PrometheusCallMetrics {
	callMetricsOnce.Do(func() {
		callMetricsInstance = &PrometheusCallMetrics{
			duration: metrics.Register(prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Name:    "inference_call_duration_seconds",
				Help:    "Duration of a single inference call",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			}, []string{"backend", "task"})),
			errors: metrics.Register(prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "inference_call_errors_total",
				Help: "Total number of failed inference calls",
			}, []string{"backend", "task"})),
		}
	})
	return callMetricsInstance
}

// RecordCall implements CallMetricsRecorder.
func (p *PrometheusCallMetrics) RecordCall(backend, task string, duration time.Duration, err error) {
	p.duration.WithLabelValues(backend, task).Observe(duration.Seconds())
	if err != nil {
		p.errors.WithLabelValues(backend, task).Inc()
	}
}

// NoopCallMetrics discards everything.
type NoopCallMetrics struct{}

// RecordCall implements CallMetricsRecorder.
func (NoopCallMetrics) RecordCall(string, string, time.Duration, error) {}
