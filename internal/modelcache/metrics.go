package modelcache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"summarize-pro/internal/observability/metrics"
)

// MetricsRecorder receives cache events.
type MetricsRecorder interface {
	RecordHit(key string)
	RecordMiss(key string)
	RecordEviction(key string)
	RecordLoad(key, identifier string, duration time.Duration, err error)
	SetResident(n int)
}

var (
	cacheResident = metrics.Register(prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "model_cache_resident_models",
		Help: "Number of model handles currently resident",
	}))

	cacheHits = metrics.Register(prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "model_cache_hits_total",
		Help: "Total number of acquisitions served by a resident handle",
	}, []string{"key"}))

	cacheMisses = metrics.Register(prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "model_cache_misses_total",
		Help: "Total number of acquisitions that had to load a model",
	}, []string{"key"}))

	cacheEvictions = metrics.Register(prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "model_cache_evictions_total",
		Help: "Total number of handles evicted or released",
	}, []string{"key"}))

	loadFailures = metrics.Register(prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "model_cache_load_failures_total",
		Help: "Total number of failed loads per identifier",
	}, []string{"identifier"}))

	loadDuration = metrics.Register(prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "model_load_duration_seconds",
		Help:    "Time spent loading a single model identifier",
		Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
	}, []string{"key"}))
)

// PrometheusRecorder is the production MetricsRecorder.
type PrometheusRecorder struct{}

func (PrometheusRecorder) RecordHit(key string)      { cacheHits.WithLabelValues(key).Inc() }
func (PrometheusRecorder) RecordMiss(key string)     { cacheMisses.WithLabelValues(key).Inc() }
func (PrometheusRecorder) RecordEviction(key string) { cacheEvictions.WithLabelValues(key).Inc() }
func (PrometheusRecorder) SetResident(n int)         { cacheResident.Set(float64(n)) }

func (PrometheusRecorder) RecordLoad(key, identifier string, duration time.Duration, err error) {
	loadDuration.WithLabelValues(key).Observe(duration.Seconds())
	if err != nil {
		loadFailures.WithLabelValues(identifier).Inc()
	}
}
