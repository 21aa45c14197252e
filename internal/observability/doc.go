// Package observability groups the logging, metrics, tracing and SLO packages.
//
//	logger := logging.NewLogger()
//	shutdown := tracing.Init("summarize-pro", version, 0.1)
//	metrics.RecordSummary("document", true, time.Since(start))
package observability
