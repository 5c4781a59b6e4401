// Package handlers implements the HTTP handlers of the OpenAI-compatible
// surface.
//
//   - ChatHandler: POST /v1/chat/completions, blocking JSON or Server-Sent Events
//   - ModelsHandler: GET /v1/models
//   - AccountHandler: GET /v1/chat/completions/{chat_id}/account
//
// Handlers depend on the narrow interfaces in types.go rather than on the
// orchestrator directly, so tests can substitute them.
package handlers
