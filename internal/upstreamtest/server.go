// Package upstreamtest provides a scripted fake of the Gemini Business
// backend for tests. One httptest server answers both the bootstrap
// endpoint and the widget API.
package upstreamtest

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
)

// Operation names recorded for each request.
const (
	OpBootstrap     = "bootstrap"
	OpCreateSession = "create_session"
	OpUpload        = "upload"
	OpStreamAnswer  = "stream_answer"
	OpListFiles     = "list_files"
	OpDownload      = "download"
)

// SigningKey is the raw key handed out by the fake bootstrap endpoint.
var SigningKey = []byte("upstreamtest-signing-key-0123456789")

// Reply is one entry of a scripted answer.
type Reply struct {
	Text    string
	Thought bool
}

// File is a scripted generated file.
type File struct {
	ID       string
	Name     string
	MimeType string
}

// Request is a recorded call.
type Request struct {
	Op       string
	ConfigID string
	Session  string
	Header   http.Header
	Query    string
	Body     []byte
}

// Script controls how the fake responds. Zero values give a healthy
// backend that answers "Hello" and generates nothing.
type Script struct {
	// BootstrapStatus returns the status for a bootstrap call by csesidx.
	// Zero means 200.
	BootstrapStatus func(csesidx string) int

	// CreateSessionStatus returns the status for a session create by
	// configId. Zero means 200.
	CreateSessionStatus func(configID string) int

	// UploadStatus is the status for file uploads. Zero means 200.
	UploadStatus int

	// Replies returns the answer for a session and prompt.
	Replies func(session, text string) []Reply

	// AnswerStatus is the status for answers. Zero means 200.
	AnswerStatus int

	// RawAnswer, when set, is returned verbatim as the answer body.
	RawAnswer string

	// Generated returns the generated files of a session.
	Generated func(session string) []File

	// ListStatus is the status for file listings. Zero means 200.
	ListStatus int

	// Content returns the bytes of a generated file.
	Content func(fileID string) []byte

	// DownloadStatus returns the status for a download by file id.
	// Zero means 200.
	DownloadStatus func(fileID string) int

	// RawDownload sends file bytes without base64 wrapping.
	RawDownload bool
}

// Server is a fake backend.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	script   Script
	requests []Request
	sessions int
	uploads  int
}

// NewServer starts a fake backend with script applied. The caller must
// Close it.
func NewServer(script Script) *Server {
	s := &Server{script: script}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// SetScript replaces the script.
func (s *Server) SetScript(script Script) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.script = script
}

// Requests returns the recorded calls for op, or all calls when op is "".
func (s *Server) Requests(op string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Request
	for _, r := range s.requests {
		if op == "" || r.Op == op {
			out = append(out, r)
		}
	}
	return out
}

// Calls returns the number of recorded calls for op.
func (s *Server) Calls(op string) int {
	return len(s.Requests(op))
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	rec := Request{
		Header:   r.Header.Clone(),
		Query:    r.URL.RawQuery,
		Body:     body,
		ConfigID: gjson.GetBytes(body, "configId").String(),
	}

	path := r.URL.Path
	switch {
	case path == "/auth/getoxsrf":
		rec.Op = OpBootstrap
	case strings.HasSuffix(path, "/widgetCreateSession"):
		rec.Op = OpCreateSession
	case strings.HasSuffix(path, "/widgetAddContextFile"):
		rec.Op = OpUpload
		rec.Session = gjson.GetBytes(body, "addContextFileRequest.name").String()
	case strings.HasSuffix(path, "/widgetStreamAssist"):
		rec.Op = OpStreamAnswer
		rec.Session = gjson.GetBytes(body, "streamAssistRequest.session").String()
	case strings.HasSuffix(path, "/widgetListSessionFileMetadata"):
		rec.Op = OpListFiles
		rec.Session = gjson.GetBytes(body, "listSessionFileMetadataRequest.name").String()
	case strings.HasPrefix(path, "/download/") && strings.HasSuffix(path, ":downloadFile"):
		rec.Op = OpDownload
		seg := strings.TrimSuffix(path[strings.LastIndexByte(path, '/')+1:], ":downloadFile")
		rec.Session = seg
	default:
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, rec)
	script := s.script
	s.mu.Unlock()

	switch rec.Op {
	case OpBootstrap:
		s.bootstrap(w, r, script)
	case OpCreateSession:
		s.createSession(w, rec, script)
	case OpUpload:
		s.upload(w, script)
	case OpStreamAnswer:
		s.answer(w, rec, body, script)
	case OpListFiles:
		s.listFiles(w, rec, script)
	case OpDownload:
		s.download(w, r, script)
	}
}

func (s *Server) bootstrap(w http.ResponseWriter, r *http.Request, script Script) {
	csesidx := r.URL.Query().Get("csesidx")
	if status := statusOf(script.BootstrapStatus, csesidx); status != http.StatusOK {
		http.Error(w, "bootstrap refused", status)
		return
	}
	fmt.Fprintf(w, ")]}'\n{\"xsrfToken\":%q,\"keyId\":%q}",
		base64.StdEncoding.EncodeToString(SigningKey), "kid-"+csesidx)
}

func (s *Server) createSession(w http.ResponseWriter, rec Request, script Script) {
	if status := statusOf(script.CreateSessionStatus, rec.ConfigID); status != http.StatusOK {
		http.Error(w, "session create refused", status)
		return
	}

	s.mu.Lock()
	s.sessions++
	n := s.sessions
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"session": map[string]any{"name": SessionName(rec.ConfigID, n)},
	})
}

func (s *Server) upload(w http.ResponseWriter, script Script) {
	if script.UploadStatus != 0 && script.UploadStatus != http.StatusOK {
		http.Error(w, "upload refused", script.UploadStatus)
		return
	}

	s.mu.Lock()
	s.uploads++
	n := s.uploads
	s.mu.Unlock()

	writeJSON(w, map[string]any{
		"addContextFileResponse": map[string]any{"fileId": fmt.Sprintf("upload-%d", n)},
	})
}

func (s *Server) answer(w http.ResponseWriter, rec Request, body []byte, script Script) {
	if script.AnswerStatus != 0 && script.AnswerStatus != http.StatusOK {
		http.Error(w, "answer refused", script.AnswerStatus)
		return
	}
	if script.RawAnswer != "" {
		_, _ = io.WriteString(w, script.RawAnswer)
		return
	}

	replies := []Reply{{Text: "Hello"}}
	if script.Replies != nil {
		text := gjson.GetBytes(body, "streamAssistRequest.query.parts.0.text").String()
		replies = script.Replies(rec.Session, text)
	}
	_, _ = w.Write(AnswerBody(replies...))
}

func (s *Server) listFiles(w http.ResponseWriter, rec Request, script Script) {
	if script.ListStatus != 0 && script.ListStatus != http.StatusOK {
		http.Error(w, "list refused", script.ListStatus)
		return
	}

	var files []map[string]any
	if script.Generated != nil {
		for _, f := range script.Generated(rec.Session) {
			files = append(files, map[string]any{
				"fileId":   f.ID,
				"fileName": f.Name,
				"mimeType": f.MimeType,
			})
		}
	}
	writeJSON(w, map[string]any{
		"listSessionFileMetadataResponse": map[string]any{"fileMetadata": files},
	})
}

func (s *Server) download(w http.ResponseWriter, r *http.Request, script Script) {
	fileID := r.URL.Query().Get("fileId")
	if status := statusOf(script.DownloadStatus, fileID); status != http.StatusOK {
		http.Error(w, "download refused", status)
		return
	}

	var content []byte
	if script.Content != nil {
		content = script.Content(fileID)
	}
	if script.RawDownload {
		_, _ = w.Write(content)
		return
	}
	_, _ = io.WriteString(w, base64.StdEncoding.EncodeToString(content))
}

// SessionName is the resource name the fake assigns to the n-th session,
// created with configID.
func SessionName(configID string, n int) string {
	return fmt.Sprintf("projects/p/locations/global/collections/default_collection/engines/agentspace-engine/sessions/%s-%d", configID, n)
}

// AnswerBody renders replies in the backend's answer envelope. Each reply
// is sent in its own array element.
func AnswerBody(replies ...Reply) []byte {
	envelopes := make([]map[string]any, 0, len(replies))
	for _, r := range replies {
		reply := map[string]any{
			"groundedContent": map[string]any{
				"content": map[string]any{"text": r.Text},
			},
		}
		if r.Thought {
			reply["thought"] = true
		}
		envelopes = append(envelopes, map[string]any{
			"streamAssistResponse": map[string]any{
				"answer": map[string]any{"replies": []any{reply}},
			},
		})
	}
	data, _ := json.Marshal(envelopes)
	return data
}

func statusOf(f func(string) int, key string) int {
	if f == nil {
		return http.StatusOK
	}
	if status := f(key); status != 0 {
		return status
	}
	return http.StatusOK
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
