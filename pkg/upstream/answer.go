package upstream

import (
	"context"
	"iter"
	"net/http"
	"sync/atomic"

	"bizbridge/gateway/pkg/accounts"

	"github.com/tidwall/gjson"
)

// Answer holds the visible text fragments of one assistant reply.
type Answer struct {
	fragments []string
	consumed  atomic.Bool
}

// NewAnswer wraps already-extracted fragments.
func NewAnswer(fragments []string) *Answer {
	return &Answer{fragments: fragments}
}

// Fragments yields the reply fragments in order. The sequence can be
// ranged over once; later iterations yield nothing.
func (a *Answer) Fragments() iter.Seq[string] {
	return func(yield func(string) bool) {
		if !a.consumed.CompareAndSwap(false, true) {
			return
		}
		for _, f := range a.fragments {
			if !yield(f) {
				return
			}
		}
	}
}

// Len returns the number of fragments.
func (a *Answer) Len() int {
	return len(a.fragments)
}

// StreamAnswer sends text, with any previously uploaded files, to session
// and returns the reply. modelID is omitted from the request when empty,
// letting the backend choose.
//
// A token failure is returned unchanged; anything else is a *StreamError.
func (g *Gateway) StreamAnswer(ctx context.Context, acct *accounts.Account, session, text string, fileIDs []string, modelID string) (*Answer, error) {
	if fileIDs == nil {
		fileIDs = []string{}
	}

	req := streamAssistRequest{
		Session:              session,
		Query:                query{Parts: []queryPart{{Text: text}}},
		FileIDs:              fileIDs,
		AnswerGenerationMode: "NORMAL",
		ToolsSpec:            toolsSpec{ToolRegistry: "default_tool_registry"},
		LanguageCode:         g.languageCode,
		UserMetadata:         userMetadata{TimeZone: g.timeZone},
		AssistSkippingMode:   "REQUEST_ASSIST",
	}
	if modelID != "" {
		req.AssistGenerationConfig = &assistGenerationConfig{ModelID: modelID}
	}

	rep, err := g.do(ctx, acct, call{
		op:     OpStreamAnswer,
		method: http.MethodPost,
		url:    g.widgetURL("widgetStreamAssist"),
		body: streamAssistBody{
			ConfigID:            acct.Credential.ConfigID,
			AdditionalParams:    newAdditionalParams(),
			StreamAssistRequest: req,
		},
	})
	if err != nil {
		if isTokenError(err) {
			return nil, err
		}
		return nil, &StreamError{Account: acct.Name, Message: err.Error(), Cause: err}
	}
	if rep.status != http.StatusOK {
		return nil, &StreamError{Account: acct.Name, StatusCode: rep.status, Message: truncate(rep.body)}
	}

	fragments, ok := parseReplies(rep.body)
	if !ok {
		return nil, &StreamError{Account: acct.Name, StatusCode: rep.status, Message: "response is not a JSON array"}
	}

	g.logger.DebugContext(ctx, "answer received", "account", acct.Name, "fragments", len(fragments))
	return NewAnswer(fragments), nil
}

// parseReplies extracts visible reply text from a streamAssist response
// array. Thought replies and empty texts are dropped.
func parseReplies(body []byte) ([]string, bool) {
	if !gjson.ValidBytes(body) {
		return nil, false
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, false
	}

	var fragments []string
	root.ForEach(func(_, envelope gjson.Result) bool {
		envelope.Get("streamAssistResponse.answer.replies").ForEach(func(_, r gjson.Result) bool {
			text := r.Get("groundedContent.content.text").String()
			if text != "" && !r.Get("thought").Bool() {
				fragments = append(fragments, text)
			}
			return true
		})
		return true
	})
	return fragments, true
}
