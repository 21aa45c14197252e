// Package metrics holds the service-level Prometheus metrics for summarization requests
// and the registration helpers shared by packages that own their own collectors.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Register registers c with the default registry and returns it. When an equal
// collector is already registered (package initialised twice in tests) the existing
// one is returned instead.
func Register[T prometheus.Collector](c T) T {
	if err := prometheus.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// Summary request metrics
var (
	// SummariesTotal counts finished summary requests by content class and status.
	SummariesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summaries_total",
			Help: "Total number of summary requests",
		},
		[]string{"content_class", "status"},
	)

	// SummarizationDuration measures end-to-end pipeline time per content class.
	SummarizationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "summarization_duration_seconds",
			Help:    "Time taken to run the summarization pipeline",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"content_class"},
	)

	// SummarizationChunks observes how many chunks a request was split into.
	SummarizationChunks = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "summarization_chunks",
			Help:    "Number of chunks mapped per summarization request",
			Buckets: []float64{1, 2, 3, 4, 6, 8, 12, 16, 32},
		},
	)

	// QualityRetriesTotal counts quality gate retries by outcome (improved, rejected, error).
	QualityRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summarization_quality_retries_total",
			Help: "Total number of quality gate retries",
		},
		[]string{"outcome"},
	)

	// ResultCacheLookupsTotal counts result cache lookups by result (hit, miss, error).
	ResultCacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "summary_result_cache_lookups_total",
			Help: "Total number of summary result cache lookups",
		},
		[]string{"result"},
	)

	// AnalysisFallbacksTotal counts analysis steps that fell back to defaults.
	AnalysisFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_fallbacks_total",
			Help: "Total number of analysis steps that returned default values",
		},
		[]string{"step"},
	)

	// ContentFetchDuration measures time to download and extract an article.
	ContentFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "content_fetch_duration_seconds",
			Help:    "Time taken to fetch article content",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
		},
	)
)

// RecordSummary records the outcome of a summary request.
func RecordSummary(contentClass string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	SummariesTotal.WithLabelValues(contentClass, status).Inc()
	if success {
		SummarizationDuration.WithLabelValues(contentClass).Observe(duration.Seconds())
	}
}

// RecordChunks records the chunk count of one pipeline run.
func RecordChunks(n int) {
	SummarizationChunks.Observe(float64(n))
}

// RecordQualityRetry records the outcome of a quality gate retry.
func RecordQualityRetry(outcome string) {
	QualityRetriesTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheLookup records a result cache lookup.
func RecordCacheLookup(result string) {
	ResultCacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordAnalysisFallback records an analysis step that returned its default.
func RecordAnalysisFallback(step string) {
	AnalysisFallbacksTotal.WithLabelValues(step).Inc()
}
