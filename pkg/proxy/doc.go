// Package proxy adapts OpenAI chat completion traffic to the orchestrator.
//
// It owns the edges of a request: parsing and validating the JSON body,
// converting it into an orchestrator.Request, rendering results as
// chat.completion objects or Server-Sent Event chunks, and mapping internal
// errors onto OpenAI-style error bodies.
//
// # Error mapping
//
// HandleError is the single place where failures acquire an HTTP status:
//
//	*RequestError                     400 invalid_request_error (413 for oversized bodies)
//	*orchestrator.ModelNotFoundError  404 model_not_found
//	orchestrator.ErrSessionUnavailable 503 session_unavailable
//	*upstream.FileUploadError         502 upload_failed
//	*upstream.StreamError             502 upstream_error
//	*auth.TokenRefreshError           502 token_refresh_failed
//	context.DeadlineExceeded          504
//	anything else                     500
//
// # Streaming
//
// Streams are framed as "data: <json>\n\n" events and terminated by
// "data: [DONE]\n\n". Every write is flushed through
// http.ResponseController, so wrappers that implement Unwrap or Flush are
// honored.
//
// Subpackages:
//
//   - handlers: the HTTP handlers mounted by the server
//   - middleware: request ID, logging, CORS, body limits and panic recovery
//   - types: the OpenAI wire types
package proxy
