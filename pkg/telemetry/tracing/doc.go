// Package tracing wraps OpenTelemetry for the gateway.
//
// Spans are opened around each chat completion turn and each backend call.
// When tracing is disabled, or the *Tracer is nil, Start returns no-op spans.
//
// Spans are exported over OTLP gRPC:
//
//	telemetry:
//	  tracing:
//	    enabled: true
//	    endpoint: localhost:4317
//	    insecure: true
//	    sample_ratio: 0.1
//
// Incoming W3C traceparent headers are honored by HTTPMiddleware, so a
// client trace continues into the gateway.
package tracing
