// Package logging configures log/slog for the gateway.
//
// # Overview
//
//   - JSON or text output, chosen by telemetry.logging.format
//   - A runtime-adjustable level backed by slog.LevelVar
//   - Redaction of session cookies, bearer tokens and signed assertions
//   - Request-scoped fields (request_id, chat_id, account) taken from
//     the context by the *Context logging methods
//
// # Usage
//
//	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging, os.Stderr))
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger.Logger)
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	slog.InfoContext(ctx, "completion served", "latency", d)
//
// # Redaction
//
// Values are scrubbed before they reach the handler:
//
//   - __Secure-C_SES=abc; __Host-C_OSES=def → __Secure-C_SES=***; __Host-C_OSES=***
//   - Bearer eyJhbGciOi... → Bearer ***
//   - eyJhbGciOi...x.y.z → eyJ***
//
// Attributes whose key names a secret (cookie, token, authorization) are
// masked entirely.
package logging
