// Package telemetry groups the gateway's observability packages.
//
//   - logging: structured slog logging with credential redaction and
//     request-scoped fields
//   - metrics: Prometheus collectors for requests, upstream calls, sessions
//     and artifacts
//   - tracing: OpenTelemetry spans exported over OTLP/gRPC
//   - health: liveness, readiness and version endpoints
//
// Each package is nil-safe where it is threaded through hot paths, so a
// disabled collector or tracer costs a pointer check.
package telemetry
