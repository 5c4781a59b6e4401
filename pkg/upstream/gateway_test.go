package upstream

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"regexp"
	"slices"
	"strings"
	"testing"
	"time"

	"bizbridge/gateway/internal/upstreamtest"
	"bizbridge/gateway/pkg/accounts"
	"bizbridge/gateway/pkg/auth"
	"bizbridge/gateway/pkg/config"
	"bizbridge/gateway/pkg/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/tidwall/gjson"
)

func newTestGateway(t *testing.T, script upstreamtest.Script) (*Gateway, *upstreamtest.Server, *accounts.Account) {
	t.Helper()

	fake := upstreamtest.NewServer(script)
	t.Cleanup(fake.Close)

	gw, err := New(fake.UpstreamConfig(), Options{
		HTTPClient: fake.Client(),
		Now:        func() time.Time { return time.Unix(1700000000, 0) },
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	pool := fake.Pool(t, "alpha")
	return gw, fake, upstreamtest.Account(t, pool, "alpha")
}

func TestNewHTTPClient(t *testing.T) {
	cfg := config.NewDefault().Upstream

	t.Run("proxy", func(t *testing.T) {
		cfg := cfg
		cfg.Proxy = "http://127.0.0.1:3128"
		client, err := NewHTTPClient(cfg)
		if err != nil {
			t.Fatalf("NewHTTPClient failed: %v", err)
		}
		tr := client.Transport.(*http.Transport)
		req, _ := http.NewRequest(http.MethodGet, "https://example.com", nil)
		u, err := tr.Proxy(req)
		if err != nil || u == nil || u.Host != "127.0.0.1:3128" {
			t.Errorf("proxy = %v, %v", u, err)
		}
		if client.Timeout != cfg.Timeout {
			t.Errorf("timeout = %v, want %v", client.Timeout, cfg.Timeout)
		}
	})

	t.Run("insecure", func(t *testing.T) {
		cfg := cfg
		cfg.InsecureSkipVerify = true
		client, err := NewHTTPClient(cfg)
		if err != nil {
			t.Fatalf("NewHTTPClient failed: %v", err)
		}
		tr := client.Transport.(*http.Transport)
		if tr.TLSClientConfig == nil || !tr.TLSClientConfig.InsecureSkipVerify {
			t.Error("expected TLS verification disabled")
		}
	})

	t.Run("bad proxy", func(t *testing.T) {
		cfg := cfg
		cfg.Proxy = "://nope"
		if _, err := NewHTTPClient(cfg); err == nil {
			t.Error("expected error for malformed proxy")
		}
	})
}

func TestGateway_CreateSession(t *testing.T) {
	gw, fake, acct := newTestGateway(t, upstreamtest.Script{})

	name, err := gw.CreateSession(context.Background(), acct)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if name != upstreamtest.SessionName("alpha", 1) {
		t.Errorf("session = %q", name)
	}

	reqs := fake.Requests(upstreamtest.OpCreateSession)
	if len(reqs) != 1 {
		t.Fatalf("expected 1 create call, got %d", len(reqs))
	}
	body := reqs[0].Body
	if gjson.GetBytes(body, "configId").String() != "alpha" {
		t.Errorf("configId missing: %s", body)
	}
	if gjson.GetBytes(body, "additionalParams.token").String() != "-" {
		t.Errorf("additionalParams.token missing: %s", body)
	}
	if !gjson.GetBytes(body, "createSessionRequest.session.displayName").Exists() {
		t.Errorf("session body missing: %s", body)
	}

	h := reqs[0].Header
	if !strings.HasPrefix(h.Get("Authorization"), "Bearer ey") {
		t.Errorf("authorization = %q", h.Get("Authorization"))
	}
	for _, name := range []string{"x-server-timeout", "sec-ch-ua", "sec-fetch-site", "origin", "referer", "user-agent"} {
		if h.Get(name) == "" {
			t.Errorf("header %s missing", name)
		}
	}
}

func TestGateway_CreateSessionFailures(t *testing.T) {
	t.Run("non-200", func(t *testing.T) {
		gw, _, acct := newTestGateway(t, upstreamtest.Script{
			CreateSessionStatus: func(string) int { return http.StatusForbidden },
		})
		_, err := gw.CreateSession(context.Background(), acct)

		var sessErr *SessionCreateError
		if !errors.As(err, &sessErr) {
			t.Fatalf("expected SessionCreateError, got %v", err)
		}
		if sessErr.StatusCode != http.StatusForbidden || sessErr.Account != "alpha" {
			t.Errorf("unexpected error fields: %+v", sessErr)
		}
	})

	t.Run("token failure is wrapped for rotation", func(t *testing.T) {
		gw, fake, acct := newTestGateway(t, upstreamtest.Script{
			BootstrapStatus: func(string) int { return http.StatusUnauthorized },
		})
		_, err := gw.CreateSession(context.Background(), acct)

		var sessErr *SessionCreateError
		if !errors.As(err, &sessErr) {
			t.Fatalf("expected SessionCreateError, got %v", err)
		}
		var tokenErr *auth.TokenRefreshError
		if !errors.As(err, &tokenErr) {
			t.Errorf("expected TokenRefreshError in chain, got %v", err)
		}
		if fake.Calls(upstreamtest.OpCreateSession) != 0 {
			t.Error("no create call may be made without a token")
		}
	})
}

func TestGateway_UploadFile(t *testing.T) {
	gw, fake, acct := newTestGateway(t, upstreamtest.Script{})

	id, err := gw.UploadFile(context.Background(), acct, "sessions/s1", "image/jpeg", "QUJD")
	if err != nil {
		t.Fatalf("UploadFile failed: %v", err)
	}
	if id != "upload-1" {
		t.Errorf("file id = %q", id)
	}

	body := fake.Requests(upstreamtest.OpUpload)[0].Body
	req := gjson.GetBytes(body, "addContextFileRequest")
	if req.Get("name").String() != "sessions/s1" || req.Get("mimeType").String() != "image/jpeg" || req.Get("fileContents").String() != "QUJD" {
		t.Errorf("unexpected upload body: %s", body)
	}
	if !regexp.MustCompile(`^upload_1700000000_[0-9a-f]{6}\.jpeg$`).MatchString(req.Get("fileName").String()) {
		t.Errorf("file name = %q", req.Get("fileName").String())
	}
}

func TestGateway_UploadFileFailures(t *testing.T) {
	t.Run("non-200", func(t *testing.T) {
		gw, _, acct := newTestGateway(t, upstreamtest.Script{UploadStatus: http.StatusBadRequest})
		_, err := gw.UploadFile(context.Background(), acct, "s", "image/png", "QQ==")

		var upErr *FileUploadError
		if !errors.As(err, &upErr) || upErr.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected FileUploadError(400), got %v", err)
		}
	})

	t.Run("token failure passes through", func(t *testing.T) {
		gw, _, acct := newTestGateway(t, upstreamtest.Script{
			BootstrapStatus: func(string) int { return http.StatusUnauthorized },
		})
		_, err := gw.UploadFile(context.Background(), acct, "s", "image/png", "QQ==")

		var upErr *FileUploadError
		if errors.As(err, &upErr) {
			t.Error("token failure must not be reported as an upload failure")
		}
		var tokenErr *auth.TokenRefreshError
		if !errors.As(err, &tokenErr) {
			t.Errorf("expected TokenRefreshError, got %v", err)
		}
	})
}

func TestGateway_StreamAnswer(t *testing.T) {
	gw, fake, acct := newTestGateway(t, upstreamtest.Script{
		Replies: func(session, text string) []upstreamtest.Reply {
			return []upstreamtest.Reply{
				{Text: "thinking about it", Thought: true},
				{Text: "Hello"},
				{Text: ""},
				{Text: ", world"},
			}
		},
	})

	ans, err := gw.StreamAnswer(context.Background(), acct, "sessions/s1", "User: hi\n\n", nil, "gemini-2.5-pro")
	if err != nil {
		t.Fatalf("StreamAnswer failed: %v", err)
	}

	got := slices.Collect(ans.Fragments())
	if want := []string{"Hello", ", world"}; !slices.Equal(got, want) {
		t.Errorf("fragments = %q, want %q", got, want)
	}
	if again := slices.Collect(ans.Fragments()); len(again) != 0 {
		t.Errorf("second iteration must yield nothing, got %q", again)
	}

	body := fake.Requests(upstreamtest.OpStreamAnswer)[0].Body
	req := gjson.GetBytes(body, "streamAssistRequest")
	checks := map[string]string{
		"session":                        "sessions/s1",
		"query.parts.0.text":             "User: hi\n\n",
		"answerGenerationMode":           "NORMAL",
		"toolsSpec.toolRegistry":         "default_tool_registry",
		"languageCode":                   "zh-CN",
		"userMetadata.timeZone":          "Asia/Shanghai",
		"assistSkippingMode":             "REQUEST_ASSIST",
		"assistGenerationConfig.modelId": "gemini-2.5-pro",
	}
	for path, want := range checks {
		if got := req.Get(path).String(); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
	if !req.Get("fileIds").IsArray() {
		t.Error("fileIds must be an array even when empty")
	}
	if !req.Get("toolsSpec.imageGenerationSpec").IsObject() {
		t.Error("imageGenerationSpec must be present")
	}
}

func TestGateway_StreamAnswerOmitsAutoModel(t *testing.T) {
	gw, fake, acct := newTestGateway(t, upstreamtest.Script{})

	if _, err := gw.StreamAnswer(context.Background(), acct, "s", "hi", []string{"f1"}, ""); err != nil {
		t.Fatalf("StreamAnswer failed: %v", err)
	}
	body := fake.Requests(upstreamtest.OpStreamAnswer)[0].Body
	if gjson.GetBytes(body, "streamAssistRequest.assistGenerationConfig").Exists() {
		t.Errorf("assistGenerationConfig must be omitted: %s", body)
	}
	if gjson.GetBytes(body, "streamAssistRequest.fileIds.0").String() != "f1" {
		t.Errorf("fileIds not forwarded: %s", body)
	}
}

func TestGateway_StreamAnswerFailures(t *testing.T) {
	tests := []struct {
		name   string
		script upstreamtest.Script
		status int
	}{
		{"non-200", upstreamtest.Script{AnswerStatus: http.StatusInternalServerError}, http.StatusInternalServerError},
		{"not JSON", upstreamtest.Script{RawAnswer: "<html>"}, http.StatusOK},
		{"not an array", upstreamtest.Script{RawAnswer: `{"error":"x"}`}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw, _, acct := newTestGateway(t, tt.script)
			_, err := gw.StreamAnswer(context.Background(), acct, "s", "hi", nil, "")

			var streamErr *StreamError
			if !errors.As(err, &streamErr) {
				t.Fatalf("expected StreamError, got %v", err)
			}
			if streamErr.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", streamErr.StatusCode, tt.status)
			}
		})
	}
}

func TestGateway_ListGeneratedFiles(t *testing.T) {
	gw, fake, acct := newTestGateway(t, upstreamtest.Script{
		Generated: func(session string) []upstreamtest.File {
			return []upstreamtest.File{
				{ID: "g1", Name: "cat.png", MimeType: "image/png"},
				{ID: "g2", Name: "dog.jpeg", MimeType: "image/jpeg"},
			}
		},
	})

	files, err := gw.ListGeneratedFiles(context.Background(), acct, "sessions/s1")
	if err != nil {
		t.Fatalf("ListGeneratedFiles failed: %v", err)
	}
	want := []FileMetadata{
		{FileID: "g1", FileName: "cat.png", MimeType: "image/png"},
		{FileID: "g2", FileName: "dog.jpeg", MimeType: "image/jpeg"},
	}
	if !slices.Equal(files, want) {
		t.Errorf("files = %+v, want %+v", files, want)
	}

	body := fake.Requests(upstreamtest.OpListFiles)[0].Body
	if got := gjson.GetBytes(body, "listSessionFileMetadataRequest.filter").String(); got != "file_origin_type = AI_GENERATED" {
		t.Errorf("filter = %q", got)
	}
}

func TestGateway_ListGeneratedFilesSoftFailure(t *testing.T) {
	gw, _, acct := newTestGateway(t, upstreamtest.Script{ListStatus: http.StatusServiceUnavailable})

	files, err := gw.ListGeneratedFiles(context.Background(), acct, "s")
	if err != nil {
		t.Fatalf("expected soft failure, got %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files, got %v", files)
	}
}

func TestGateway_DownloadFile(t *testing.T) {
	gw, fake, acct := newTestGateway(t, upstreamtest.Script{
		Content: func(string) []byte { return []byte("PNGDATA") },
	})

	data, err := gw.DownloadFile(context.Background(), acct, upstreamtest.SessionName("alpha", 7), "g1")
	if err != nil {
		t.Fatalf("DownloadFile failed: %v", err)
	}
	if string(data) != base64.StdEncoding.EncodeToString([]byte("PNGDATA")) {
		t.Errorf("expected the base64 body untouched, got %q", data)
	}

	req := fake.Requests(upstreamtest.OpDownload)[0]
	if req.Session != "alpha-7" {
		t.Errorf("session id = %q, want the last path segment", req.Session)
	}
	if req.Query != "fileId=g1&alt=media" {
		t.Errorf("query = %q", req.Query)
	}
	if req.Header.Get("x-goog-encode-response-if-executable") != "base64" {
		t.Error("download must request base64 encoding")
	}
}

func TestGateway_DownloadFileSoftFailure(t *testing.T) {
	gw, _, acct := newTestGateway(t, upstreamtest.Script{
		DownloadStatus: func(string) int { return http.StatusNotFound },
	})

	data, err := gw.DownloadFile(context.Background(), acct, "s", "g1")
	if err != nil || len(data) != 0 {
		t.Errorf("expected empty soft failure, got %q, %v", data, err)
	}
}

func TestGateway_OversizedResponse(t *testing.T) {
	const limit = 1024

	t.Run("download at the limit", func(t *testing.T) {
		gw, _, acct := newTestGateway(t, upstreamtest.Script{
			RawDownload: true,
			Content:     func(string) []byte { return make([]byte, limit) },
		})
		gw.maxBody = limit

		data, err := gw.DownloadFile(context.Background(), acct, "s", "g1")
		if err != nil || len(data) != limit {
			t.Errorf("got %d bytes, %v; want the whole body", len(data), err)
		}
	})

	t.Run("download over the limit", func(t *testing.T) {
		gw, _, acct := newTestGateway(t, upstreamtest.Script{
			RawDownload: true,
			Content:     func(string) []byte { return make([]byte, limit+1) },
		})
		gw.maxBody = limit

		data, err := gw.DownloadFile(context.Background(), acct, "s", "g1")
		if err != nil {
			t.Fatalf("oversized download must fail softly, got %v", err)
		}
		if data != nil {
			t.Errorf("expected no bytes, got %d (a truncated file)", len(data))
		}
	})

	t.Run("answer over the limit", func(t *testing.T) {
		gw, _, acct := newTestGateway(t, upstreamtest.Script{
			RawAnswer: `[{"streamAssistResponse":{}}` + strings.Repeat(" ", limit) + `]`,
		})
		gw.maxBody = limit

		_, err := gw.StreamAnswer(context.Background(), acct, "s", "hi", nil, "")
		var streamErr *StreamError
		if !errors.As(err, &streamErr) {
			t.Fatalf("expected *StreamError, got %T: %v", err, err)
		}
		if !errors.Is(err, ErrResponseTooLarge) {
			t.Errorf("expected ErrResponseTooLarge in the chain, got %v", err)
		}
	})
}

func TestGateway_RecordsMetrics(t *testing.T) {
	fake := upstreamtest.NewServer(upstreamtest.Script{})
	defer fake.Close()

	collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true, Namespace: "t"}, prometheus.NewRegistry())
	gw, err := New(fake.UpstreamConfig(), Options{HTTPClient: fake.Client(), Metrics: collector})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	acct := upstreamtest.Account(t, fake.Pool(t, "alpha"), "alpha")

	if _, err := gw.CreateSession(context.Background(), acct); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	n, err := testutil.GatherAndCount(collector.Registry(), "t_upstream_calls_total")
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected one upstream call series, got %d", n)
	}
}

func TestSessionID(t *testing.T) {
	tests := []struct{ in, want string }{
		{"projects/p/locations/global/sessions/abc", "abc"},
		{"abc", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SessionID(tt.in); got != tt.want {
			t.Errorf("SessionID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
