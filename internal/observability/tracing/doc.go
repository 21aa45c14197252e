// Package tracing provides OpenTelemetry tracing integration.
//
// HTTP requests get a server span from Middleware. Model cache acquisition and the
// plan/map/reduce steps of the summarization pipeline create child spans through
// GetTracer, so a slow request can be attributed to model loading or inference.
//
//	shutdown := tracing.Init("summarize-pro", version, 1.0)
//	defer shutdown(ctx)
package tracing
