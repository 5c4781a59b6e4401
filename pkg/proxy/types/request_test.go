package types

import (
	"encoding/json"
	"testing"
)

func TestContent_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantSet   bool
		wantParts int
		wantErr   bool
	}{
		{"string", `"hello"`, true, 1, false},
		{"empty string", `""`, true, 1, false},
		{"parts", `[{"type":"text","text":"a"},{"type":"image_url","image_url":{"url":"https://x/y.png"}}]`, true, 2, false},
		{"empty parts", `[]`, true, 0, false},
		{"null", `null`, false, 0, false},
		{"number", `42`, false, 0, true},
		{"object", `{"text":"a"}`, false, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Content
			err := json.Unmarshal([]byte(tt.raw), &c)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if c.IsSet() != tt.wantSet {
				t.Errorf("IsSet = %v, want %v", c.IsSet(), tt.wantSet)
			}
			if len(c.Parts) != tt.wantParts {
				t.Errorf("parts = %d, want %d", len(c.Parts), tt.wantParts)
			}
		})
	}
}

func TestContent_MarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		content Content
		want    string
	}{
		{"lone text part is a string", TextContent("hi"), `"hi"`},
		{"unset is null", Content{}, `null`},
		{"multi part is an array", PartsContent(
			ContentPart{Type: PartTypeText, Text: "a"},
			ContentPart{Type: PartTypeImageURL, ImageURL: &ImageURL{URL: "https://x/y.png"}},
		), `[{"type":"text","text":"a"},{"type":"image_url","image_url":{"url":"https://x/y.png"}}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.content)
			if err != nil {
				t.Fatal(err)
			}
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestErrorDetail_HTTPStatusCode(t *testing.T) {
	if got := NewInvalidRequestError("big", "body", CodeRequestTooLarge).Error.HTTPStatusCode(); got != 413 {
		t.Errorf("request_too_large = %d, want 413", got)
	}
	if got := NewErrorResponse("x", ErrorTypeMethodNotAllowed, "", "").Error.HTTPStatusCode(); got != 405 {
		t.Errorf("method_not_allowed = %d, want 405", got)
	}
}
