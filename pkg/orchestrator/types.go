package orchestrator

import (
	"time"

	"bizbridge/gateway/pkg/artifacts"
)

// Content part types.
const (
	PartText  = "text"
	PartImage = "image_url"
)

// Part is one piece of multi-part message content.
type Part struct {
	Type     string
	Text     string
	ImageURL string
}

// Message is one conversation message. Plain string content is carried as
// a single text part.
type Message struct {
	Role    string
	Content []Part
}

// Text returns the concatenated text parts of m.
func (m Message) Text() string {
	var text string
	for _, p := range m.Content {
		if p.Type == PartText {
			text += p.Text
		}
	}
	return text
}

// Request is one chat completion request.
type Request struct {
	// ChatID is set by callers that announce the id before the turn
	// completes, such as streaming responses.
	ChatID   string
	Model    string
	Messages []Message
	Stream   bool
}

// Usage is the estimated token usage of a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Result is a completed turn.
type Result struct {
	// ChatID is the completion id, chatcmpl-<uuid>.
	ChatID string

	// Created is when the request was accepted.
	Created time.Time

	// Model is the requested alias.
	Model string

	// Account names the account that produced the answer.
	Account string

	// Fragments are the answer's text pieces in arrival order.
	Fragments []string

	// Artifact is the persisted generated file, if one won.
	Artifact *artifacts.Record

	// Content is the artifact URL when Artifact is set, else the joined text.
	Content string

	// Retried reports whether the empty-artifact retry ran to completion.
	Retried bool

	Usage Usage
}
