package slo

import (
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequestHistogram(t *testing.T) (*prometheus.Registry, *prometheus.HistogramVec) {
	t.Helper()
	reg := prometheus.NewRegistry()
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    RequestHistogram,
		Help:    "test",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60},
	}, []string{"method", "path", "status"})
	reg.MustRegister(h)
	return reg, h
}

func observe(h *prometheus.HistogramVec, path, status string, seconds float64, n int) {
	for range n {
		h.WithLabelValues("POST", path, status).Observe(seconds)
	}
}

func TestTracker_Windows(t *testing.T) {
	reg, h := newRequestHistogram(t)
	tr := NewTracker(reg)

	observe(h, "/api/v1/summarize/text", "200", 0.3, 100)
	observe(h, "/health", "200", 0.001, 50)

	s, err := tr.Evaluate()
	require.NoError(t, err)
	assert.Equal(t, uint64(100), s.Requests)
	assert.Zero(t, s.Errors)
	assert.Equal(t, 1.0, s.Availability)
	assert.InDelta(t, 0.475, s.P95, 1e-9)
	assert.InDelta(t, 0.495, s.P99, 1e-9)
	assert.Empty(t, s.Breaches())
	assert.InDelta(t, 0.475, testutil.ToFloat64(SLOLatencyP95), 1e-9)

	observe(h, "/api/v1/summarize/url", "503", 2, 10)

	s, err = tr.Evaluate()
	require.NoError(t, err)
	assert.Equal(t, uint64(10), s.Requests)
	assert.Equal(t, uint64(10), s.Errors)
	assert.Equal(t, 0.0, s.Availability)
	assert.Equal(t, 1.0, s.ErrorRate)
	assert.InDelta(t, 4.8, s.P95, 1e-9)
	assert.InDelta(t, 4.96, s.P99, 1e-9)
	assert.Equal(t, []string{"availability", "error_rate"}, s.Breaches())
	assert.Equal(t, 1.0, testutil.ToFloat64(SLOErrorRate))

	s, err = tr.Evaluate()
	require.NoError(t, err)
	assert.Zero(t, s.Requests)
	assert.Equal(t, 1.0, s.Availability)
	assert.Nil(t, s.Breaches())
}

func TestTracker_LatencyBreach(t *testing.T) {
	reg, h := newRequestHistogram(t)
	observe(h, "/api/v1/summarize/document", "200", 45, 20)

	s, err := NewTracker(reg).Evaluate()
	require.NoError(t, err)
	assert.InDelta(t, 58.5, s.P95, 1e-9)
	assert.InDelta(t, 59.7, s.P99, 1e-9)
	assert.Equal(t, []string{"latency_p95", "latency_p99"}, s.Breaches())
}

func TestTracker_LatencyBreach_P95Only(t *testing.T) {
	reg, h := newRequestHistogram(t)
	observe(h, "/api/v1/summarize/text", "200", 20, 20)

	s, err := NewTracker(reg).Evaluate()
	require.NoError(t, err)
	assert.InDelta(t, 29.0, s.P95, 1e-9)
	assert.InDelta(t, 29.8, s.P99, 1e-9)
	assert.Equal(t, []string{"latency_p95"}, s.Breaches())
}

type failingGatherer struct{}

func (failingGatherer) Gather() ([]*dto.MetricFamily, error) {
	return nil, errors.New("boom")
}

func TestTracker_GatherError(t *testing.T) {
	_, err := NewTracker(failingGatherer{}).Evaluate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gather metrics")
}

func TestQuantile(t *testing.T) {
	inf := math.Inf(1)
	tests := []struct {
		name    string
		q       float64
		buckets map[float64]uint64
		total   uint64
		want    float64
	}{
		{"empty", 0.95, map[float64]uint64{}, 0, 0},
		{"first bucket", 0.5, map[float64]uint64{1: 10, 2: 10, inf: 10}, 10, 0.5},
		{"second bucket", 0.75, map[float64]uint64{1: 5, 2: 10, inf: 10}, 10, 1.5},
		{"overflow", 0.99, map[float64]uint64{1: 0, 2: 0, inf: 4}, 4, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, quantile(tt.q, tt.buckets, tt.total), 1e-9)
		})
	}
}

func TestSLOTargets(t *testing.T) {
	assert.Greater(t, AvailabilitySLO, 99.0)
	assert.Less(t, LatencyP95SLO, LatencyP99SLO)
	assert.InDelta(t, 1-AvailabilitySLO/100, ErrorRateSLO, 1e-9)
}
