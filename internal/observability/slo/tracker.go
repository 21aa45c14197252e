package slo

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// RequestHistogram is the metric the Tracker reads.
const RequestHistogram = "http_request_duration_seconds"

// Probe and scrape traffic does not count against the objectives.
var excludedPrefixes = []string{"/health", "/metrics"}

// Snapshot is one evaluation window.
type Snapshot struct {
	Requests     uint64
	Errors       uint64
	Availability float64
	ErrorRate    float64
	P95          float64
	P99          float64
}

// Breaches lists the objectives the snapshot misses. An empty window breaches nothing.
func (s Snapshot) Breaches() []string {
	if s.Requests == 0 {
		return nil
	}
	var out []string
	if s.Availability*100 < AvailabilitySLO {
		out = append(out, "availability")
	}
	if s.ErrorRate > ErrorRateSLO {
		out = append(out, "error_rate")
	}
	if s.P95 > LatencyP95SLO {
		out = append(out, "latency_p95")
	}
	if s.P99 > LatencyP99SLO {
		out = append(out, "latency_p99")
	}
	return out
}

// Tracker turns the cumulative request histogram into windowed indicators.
type Tracker struct {
	gatherer prometheus.Gatherer

	mu   sync.Mutex
	prev totals
}

type totals struct {
	count   uint64
	errors  uint64
	buckets map[float64]uint64
}

// NewTracker reads from g, usually prometheus.DefaultGatherer.
func NewTracker(g prometheus.Gatherer) *Tracker {
	return &Tracker{gatherer: g, prev: totals{buckets: map[float64]uint64{}}}
}

// Evaluate computes the window since the last call, publishes it to the slo_*
// gauges and returns it.
func (t *Tracker) Evaluate() (Snapshot, error) {
	cur, err := t.collect()
	if err != nil {
		return Snapshot{}, err
	}

	t.mu.Lock()
	prev := t.prev
	t.prev = cur
	t.mu.Unlock()

	s := Snapshot{Availability: 1}
	if cur.count < prev.count {
		// Counters were reset; treat the current totals as the window.
		prev = totals{buckets: map[float64]uint64{}}
	}
	s.Requests = cur.count - prev.count
	s.Errors = cur.errors - prev.errors
	if s.Requests > 0 {
		s.ErrorRate = float64(s.Errors) / float64(s.Requests)
		s.Availability = 1 - s.ErrorRate

		window := make(map[float64]uint64, len(cur.buckets))
		for bound, n := range cur.buckets {
			window[bound] = n - prev.buckets[bound]
		}
		s.P95 = quantile(0.95, window, s.Requests)
		s.P99 = quantile(0.99, window, s.Requests)
	}

	publish(s)
	return s, nil
}

func (t *Tracker) collect() (totals, error) {
	families, err := t.gatherer.Gather()
	if err != nil {
		return totals{}, fmt.Errorf("gather metrics: %w", err)
	}

	out := totals{buckets: map[float64]uint64{}}
	for _, mf := range families {
		if mf.GetName() != RequestHistogram || mf.GetType() != dto.MetricType_HISTOGRAM {
			continue
		}
		for _, m := range mf.GetMetric() {
			path, status := labels(m)
			if excluded(path) {
				continue
			}
			h := m.GetHistogram()
			out.count += h.GetSampleCount()
			if strings.HasPrefix(status, "5") {
				out.errors += h.GetSampleCount()
			}
			for _, b := range h.GetBucket() {
				out.buckets[b.GetUpperBound()] += b.GetCumulativeCount()
			}
		}
	}
	return out, nil
}

func labels(m *dto.Metric) (path, status string) {
	for _, lp := range m.GetLabel() {
		switch lp.GetName() {
		case "path":
			path = lp.GetValue()
		case "status":
			status = lp.GetValue()
		}
	}
	return path, status
}

func excluded(path string) bool {
	for _, p := range excludedPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// quantile interpolates linearly inside the bucket holding the q-th observation.
// Observations above the last finite bound report that bound.
func quantile(q float64, cumulative map[float64]uint64, total uint64) float64 {
	if total == 0 || len(cumulative) == 0 {
		return 0
	}
	bounds := make([]float64, 0, len(cumulative))
	for b := range cumulative {
		if !math.IsInf(b, 1) {
			bounds = append(bounds, b)
		}
	}
	sort.Float64s(bounds)

	rank := q * float64(total)
	lowerBound, lowerCount := 0.0, 0.0
	for _, b := range bounds {
		c := float64(cumulative[b])
		if c >= rank {
			if c == lowerCount {
				return b
			}
			return lowerBound + (b-lowerBound)*(rank-lowerCount)/(c-lowerCount)
		}
		lowerBound, lowerCount = b, c
	}
	if len(bounds) == 0 {
		return 0
	}
	return bounds[len(bounds)-1]
}
