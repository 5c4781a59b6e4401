package proxy

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bizbridge/gateway/pkg/orchestrator"
	"bizbridge/gateway/pkg/proxy/types"
)

func newChatRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestParseChatCompletionRequest(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantCode  string
		wantParam string
	}{
		{
			name: "string content",
			body: `{"model":"gemini-auto","messages":[{"role":"user","content":"Hello"}]}`,
		},
		{
			name: "multiple messages with optional parameters",
			body: `{"model":"gemini-auto","temperature":0.7,"max_tokens":100,"messages":[
				{"role":"system","content":"Be brief"},
				{"role":"user","content":"Hello"}]}`,
		},
		{
			name: "multimodal content",
			body: `{"model":"gemini-auto","messages":[{"role":"user","content":[
				{"type":"text","text":"What is this?"},
				{"type":"image_url","image_url":{"url":"data:image/png;base64,aGk="}}]}]}`,
		},
		{
			name:      "invalid json",
			body:      `{"model":`,
			wantCode:  types.CodeInvalidJSON,
			wantParam: "body",
		},
		{
			name:      "content of the wrong shape",
			body:      `{"model":"gemini-auto","messages":[{"role":"user","content":42}]}`,
			wantCode:  types.CodeInvalidJSON,
			wantParam: "body",
		},
		{
			name:      "missing model",
			body:      `{"messages":[{"role":"user","content":"Hello"}]}`,
			wantCode:  types.CodeInvalidValue,
			wantParam: "model",
		},
		{
			name:      "empty messages",
			body:      `{"model":"gemini-auto","messages":[]}`,
			wantCode:  types.CodeInvalidValue,
			wantParam: "messages",
		},
		{
			name: "sampling parameters outside the usual ranges",
			body: `{"model":"gemini-auto","temperature":3,"top_p":7,"max_tokens":0,"messages":[{"role":"user","content":"Hello"}]}`,
		},
		{
			name:      "missing role",
			body:      `{"model":"gemini-auto","messages":[{"content":"Hello"}]}`,
			wantCode:  types.CodeInvalidValue,
			wantParam: "messages[0].role",
		},
		{
			name:      "null content",
			body:      `{"model":"gemini-auto","messages":[{"role":"user","content":null}]}`,
			wantCode:  types.CodeInvalidValue,
			wantParam: "messages[0].content",
		},
		{
			name:      "image part without url",
			body:      `{"model":"gemini-auto","messages":[{"role":"user","content":[{"type":"image_url","image_url":{}}]}]}`,
			wantCode:  types.CodeInvalidValue,
			wantParam: "messages[0].content[0].image_url",
		},
		{
			name:      "unsupported part type",
			body:      `{"model":"gemini-auto","messages":[{"role":"user","content":[{"type":"input_audio"}]}]}`,
			wantCode:  types.CodeInvalidValue,
			wantParam: "messages[0].content[0].type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseChatCompletionRequest(newChatRequest(tt.body), 0)

			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if req.Model != "gemini-auto" {
					t.Errorf("model = %q", req.Model)
				}
				return
			}

			var reqErr *RequestError
			if !errors.As(err, &reqErr) {
				t.Fatalf("expected *RequestError, got %v", err)
			}
			if reqErr.Code != tt.wantCode || reqErr.Param != tt.wantParam {
				t.Errorf("got code=%q param=%q, want code=%q param=%q", reqErr.Code, reqErr.Param, tt.wantCode, tt.wantParam)
			}
		})
	}
}

func TestParseChatCompletionRequest_TooLarge(t *testing.T) {
	body := `{"model":"gemini-auto","messages":[{"role":"user","content":"` + strings.Repeat("a", 256) + `"}]}`

	t.Run("own limit", func(t *testing.T) {
		_, err := ParseChatCompletionRequest(newChatRequest(body), 64)
		assertTooLarge(t, err)
	})

	t.Run("max bytes reader", func(t *testing.T) {
		r := newChatRequest(body)
		r.Body = http.MaxBytesReader(httptest.NewRecorder(), r.Body, 32)
		_, err := ParseChatCompletionRequest(r, 1024)
		assertTooLarge(t, err)
	})
}

func assertTooLarge(t *testing.T, err error) {
	t.Helper()
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError, got %v", err)
	}
	if reqErr.Code != types.CodeRequestTooLarge {
		t.Errorf("code = %q", reqErr.Code)
	}
	if status := reqErr.ToErrorResponse().Error.HTTPStatusCode(); status != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", status)
	}
}

func TestToOrchestratorRequest(t *testing.T) {
	req, err := ParseChatCompletionRequest(newChatRequest(`{"model":"gemini-auto","stream":true,"messages":[
		{"role":"system","content":"Be brief"},
		{"role":"user","content":[
			{"type":"text","text":"Describe"},
			{"type":"image_url","image_url":{"url":"https://img.test/cat.png","detail":"high"}}]}]}`), 0)
	if err != nil {
		t.Fatal(err)
	}

	out := ToOrchestratorRequest(req)

	if out.Model != "gemini-auto" || !out.Stream {
		t.Errorf("model/stream not carried: %+v", out)
	}
	if len(out.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(out.Messages))
	}
	if got := out.Messages[0].Text(); got != "Be brief" {
		t.Errorf("system text = %q", got)
	}
	parts := out.Messages[1].Content
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if parts[0].Type != orchestrator.PartText || parts[0].Text != "Describe" {
		t.Errorf("text part = %+v", parts[0])
	}
	if parts[1].Type != orchestrator.PartImage || parts[1].ImageURL != "https://img.test/cat.png" {
		t.Errorf("image part = %+v", parts[1])
	}
}

func TestExtractRequestID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := ExtractRequestID(r); got != "" {
		t.Errorf("expected empty id, got %q", got)
	}
	r.Header.Set(RequestIDHeader, "abc")
	if got := ExtractRequestID(r); got != "abc" {
		t.Errorf("got %q, want abc", got)
	}
}
