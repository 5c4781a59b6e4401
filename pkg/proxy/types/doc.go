// Package types defines the OpenAI-compatible request and response types
// served by the gateway.
//
// # Core Types
//
// Request types:
//   - ChatCompletionRequest: request body for /v1/chat/completions
//   - Message: one conversation message
//   - Content: string or multi-part message content
//   - ContentPart: a text or image_url part
//
// Response types:
//   - ChatCompletionResponse: non-streaming response
//   - ChatCompletionStreamChunk: one SSE chunk
//   - ModelList: response of /v1/models
//   - AccountResponse: response of the chat account lookup
//
// Error types:
//   - ErrorResponse: OpenAI-compatible error body
//
// # OpenAI Compatibility
//
// Standard OpenAI SDKs work unmodified against the gateway:
//
//	from openai import OpenAI
//	client = OpenAI(base_url="http://127.0.0.1:8000/v1", api_key="unused")
//	response = client.chat.completions.create(
//	    model="gemini-2.5-flash",
//	    messages=[{"role": "user", "content": "Hello!"}]
//	)
//
// Sampling parameters such as temperature are accepted and validated but
// the backend offers no way to apply them.
package types
