// Package metrics provides Prometheus metrics for the gateway.
//
// # Metrics Categories
//
//   - Request metrics: completions served, by model, mode and status
//   - Upstream metrics: calls to the backend, token refreshes, account rotations
//   - Session metrics: conversation cache lookups and sizes
//   - Artifact metrics: generated files saved, retried and pruned
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordRequest("gemini-2.5-pro", "stream", "success", time.Second)
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// A nil *Collector is valid and records nothing, so components can be built
// without metrics in tests.
//
// # Cardinality
//
// The model label comes from client input. Label sets beyond a fixed limit
// are folded into "other".
package metrics
