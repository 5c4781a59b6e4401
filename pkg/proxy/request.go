package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"bizbridge/gateway/pkg/orchestrator"
	"bizbridge/gateway/pkg/proxy/types"
)

const (
	// DefaultMaxRequestBodySize bounds request bodies when no limit is
	// configured. Inline images make bodies large.
	DefaultMaxRequestBodySize = 32 << 20

	// RequestIDHeader is the HTTP header for request ID propagation.
	RequestIDHeader = "X-Request-ID"
)

// ParseChatCompletionRequest parses an HTTP request body into a ChatCompletionRequest.
// It validates the JSON format, enforces size limits, and validates required fields.
//
// A non-positive maxBytes selects DefaultMaxRequestBodySize.
func ParseChatCompletionRequest(r *http.Request, maxBytes int64) (*types.ChatCompletionRequest, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxRequestBodySize
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, tooLarge(maxErr.Limit)
		}
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	if int64(len(body)) > maxBytes {
		return nil, tooLarge(maxBytes)
	}

	var req types.ChatCompletionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &RequestError{
			Message: fmt.Sprintf("invalid JSON: %v", err),
			Code:    types.CodeInvalidJSON,
			Param:   "body",
		}
	}

	if err := req.Validate(); err != nil {
		var valErr *types.ValidationError
		if errors.As(err, &valErr) {
			return nil, &RequestError{
				Message: valErr.Message,
				Code:    types.CodeInvalidValue,
				Param:   valErr.Field,
			}
		}
		return nil, err
	}

	return &req, nil
}

func tooLarge(limit int64) *RequestError {
	return &RequestError{
		Message: fmt.Sprintf("request body exceeds maximum size of %d bytes", limit),
		Code:    types.CodeRequestTooLarge,
		Param:   "body",
	}
}

// ToOrchestratorRequest converts a validated request into a chat turn.
func ToOrchestratorRequest(req *types.ChatCompletionRequest) *orchestrator.Request {
	out := &orchestrator.Request{
		Model:    req.Model,
		Stream:   req.Stream,
		Messages: make([]orchestrator.Message, 0, len(req.Messages)),
	}
	for _, msg := range req.Messages {
		m := orchestrator.Message{
			Role:    msg.Role,
			Content: make([]orchestrator.Part, 0, len(msg.Content.Parts)),
		}
		for _, p := range msg.Content.Parts {
			switch p.Type {
			case types.PartTypeText:
				m.Content = append(m.Content, orchestrator.Part{Type: orchestrator.PartText, Text: p.Text})
			case types.PartTypeImageURL:
				m.Content = append(m.Content, orchestrator.Part{Type: orchestrator.PartImage, ImageURL: p.ImageURL.URL})
			}
		}
		out.Messages = append(out.Messages, m)
	}
	return out
}

// ExtractRequestID extracts the request ID from the X-Request-ID header.
// If the header is not present, it returns an empty string.
func ExtractRequestID(r *http.Request) string {
	return r.Header.Get(RequestIDHeader)
}

// RequestError represents a request parsing or validation error.
type RequestError struct {
	Message string
	Code    string
	Param   string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	return e.Message
}

// ToErrorResponse converts a RequestError to an OpenAI-compatible error response.
func (e *RequestError) ToErrorResponse() *types.ErrorResponse {
	return types.NewInvalidRequestError(e.Message, e.Param, e.Code)
}
