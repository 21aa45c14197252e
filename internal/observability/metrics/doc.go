// Package metrics provides the Prometheus metrics shared across the service.
//
// Collectors that belong to a single package (model cache, inference backends) live in
// that package and use Register so that repeated construction in tests does not panic.
// Everything is exposed through the default registry at /metrics.
//
// Example:
//
//	start := time.Now()
//	summary, err := pipeline.Run(ctx, req)
//	metrics.RecordSummary(string(req.Class), err == nil, time.Since(start))
package metrics
