// Package middleware provides HTTP middleware for cross-cutting concerns.
//
// The gateway wraps its routes in Recovery, then Tracing, Logging,
// RequestID, CORS and BodyLimit, outermost first. Each middleware is:
//
//   - RecoveryMiddleware: turns handler panics into a 500 in the OpenAI error format.
//   - LoggingMiddleware: logs method, path, status and latency once per request.
//   - RequestIDMiddleware: accepts or mints an X-Request-ID and attaches it to the context.
//   - CORSMiddleware: emits CORS headers and answers preflight requests.
//   - BodyLimitMiddleware: caps request bodies before handlers decode them.
//
// The response writer wrapper used for logging forwards Flush, so
// Server-Sent Event streams pass through the chain unbuffered.
package middleware
