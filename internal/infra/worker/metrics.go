package worker

import (
	"context"
	"path"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"summarize-pro/internal/observability/metrics"
	"summarize-pro/internal/pkg/config"
)

// WorkerMetrics are the inference worker's collectors, including the worker_config_*
// series of the embedded ConfigMetrics.
type WorkerMetrics struct {
	*config.ConfigMetrics

	// RequestsTotal counts inference RPCs by method and status code.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration observes RPC latency by method.
	RequestDuration *prometheus.HistogramVec

	// LoadedHandles is the number of live model handles.
	LoadedHandles prometheus.Gauge
}

// NewWorkerMetrics registers the worker collectors with the default registry.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		RequestsTotal: metrics.Register(prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_inference_requests_total",
			Help: "Total number of inference RPCs by method and status code",
		}, []string{"method", "code"})),

		RequestDuration: metrics.Register(prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_inference_request_duration_seconds",
			Help:    "Duration of inference RPCs in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
		}, []string{"method"})),

		LoadedHandles: metrics.Register(prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "worker_loaded_handles",
			Help: "Number of model handles currently held by the worker",
		})),
	}
}

// RecordRequest records one finished RPC.
func (m *WorkerMetrics) RecordRequest(method, code string, d time.Duration) {
	m.RequestsTotal.WithLabelValues(method, code).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// SetLoadedHandles sets the live handle gauge.
func (m *WorkerMetrics) SetLoadedHandles(n int) {
	m.LoadedHandles.Set(float64(n))
}

// UnaryServerInterceptor records every unary RPC. loaded, if non-nil, is sampled
// after each call to keep the handle gauge current.
func (m *WorkerMetrics) UnaryServerInterceptor(loaded func() int) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		m.RecordRequest(path.Base(info.FullMethod), status.Code(err).String(), time.Since(start))
		if loaded != nil {
			m.SetLoadedHandles(loaded())
		}
		return resp, err
	}
}
