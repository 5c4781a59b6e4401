package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Content part types.
const (
	PartTypeText     = "text"
	PartTypeImageURL = "image_url"
)

// ChatCompletionRequest represents an OpenAI-compatible chat completion request.
type ChatCompletionRequest struct {
	// Model is a configured model alias (e.g., "gemini-2.5-pro").
	Model string `json:"model"`

	// Messages is the conversation history as a list of messages.
	Messages []Message `json:"messages"`

	// Stream enables server-sent events (SSE) streaming.
	Stream bool `json:"stream,omitempty"`

	// Temperature controls randomness in the response (0.0 to 2.0).
	Temperature *float64 `json:"temperature,omitempty"`

	// TopP controls nucleus sampling (0.0 to 1.0).
	TopP *float64 `json:"top_p,omitempty"`

	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens *int `json:"max_tokens,omitempty"`

	// User is a unique identifier for the end-user making the request.
	User string `json:"user,omitempty"`
}

// Message represents a single message in a conversation.
type Message struct {
	// Role is the author of the message ("system", "user", "assistant", or "tool").
	Role string `json:"role"`

	// Content is the message content.
	Content Content `json:"content"`

	// Name is the name of the author (optional).
	Name string `json:"name,omitempty"`
}

// Content is message content. On the wire it is either a plain string or
// an array of parts; a string decodes to a single text part.
type Content struct {
	Parts []ContentPart

	// set records that the field was present and not null.
	set bool
}

// ContentPart is one piece of multi-part content.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL references an image by data URI or http(s) URL.
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// TextContent returns content holding a single text part.
func TextContent(text string) Content {
	return Content{Parts: []ContentPart{{Type: PartTypeText, Text: text}}, set: true}
}

// PartsContent returns multi-part content.
func PartsContent(parts ...ContentPart) Content {
	return Content{Parts: parts, set: true}
}

// IsSet reports whether content was supplied.
func (c Content) IsSet() bool {
	return c.set
}

// UnmarshalJSON accepts a string, an array of parts or null.
func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = Content{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = TextContent(s)
		return nil
	case len(data) > 0 && data[0] == '[':
		var parts []ContentPart
		if err := json.Unmarshal(data, &parts); err != nil {
			return err
		}
		*c = PartsContent(parts...)
		return nil
	default:
		return fmt.Errorf("content must be a string or an array of parts")
	}
}

// MarshalJSON writes a lone text part as a plain string.
func (c Content) MarshalJSON() ([]byte, error) {
	if !c.set {
		return []byte("null"), nil
	}
	if len(c.Parts) == 1 && c.Parts[0].Type == PartTypeText {
		return json.Marshal(c.Parts[0].Text)
	}
	if c.Parts == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.Parts)
}

// Validate validates the chat completion request.
// It checks that required fields are present and that message content is
// well formed. Sampling parameters are accepted as sent; they never reach
// the backend.
func (r *ChatCompletionRequest) Validate() error {
	if r.Model == "" {
		return &ValidationError{
			Field:   "model",
			Message: "model is required",
		}
	}

	if len(r.Messages) == 0 {
		return &ValidationError{
			Field:   "messages",
			Message: "messages must contain at least one message",
		}
	}

	for i, msg := range r.Messages {
		if msg.Role == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].role", i),
				Message: "message role is required",
			}
		}
		if !msg.Content.IsSet() {
			return &ValidationError{
				Field:   fmt.Sprintf("messages[%d].content", i),
				Message: "message content is required",
			}
		}
		for j, part := range msg.Content.Parts {
			switch part.Type {
			case PartTypeText:
			case PartTypeImageURL:
				if part.ImageURL == nil || part.ImageURL.URL == "" {
					return &ValidationError{
						Field:   fmt.Sprintf("messages[%d].content[%d].image_url", i, j),
						Message: "image_url.url is required",
					}
				}
			default:
				return &ValidationError{
					Field:   fmt.Sprintf("messages[%d].content[%d].type", i, j),
					Message: fmt.Sprintf("unsupported content part type %q", part.Type),
				}
			}
		}
	}

	return nil
}

// ValidationError represents a request validation error.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}
