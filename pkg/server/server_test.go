package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"bizbridge/gateway/internal/upstreamtest"
	"bizbridge/gateway/pkg/artifacts"
	"bizbridge/gateway/pkg/config"
	"bizbridge/gateway/pkg/maintenance"
	"bizbridge/gateway/pkg/proxy/types"
	"bizbridge/gateway/pkg/telemetry/health"
	"bizbridge/gateway/pkg/telemetry/logging"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

func newTestApp(t *testing.T, script upstreamtest.Script, mutate func(*config.Config)) *App {
	t.Helper()

	srv := upstreamtest.NewServer(script)
	t.Cleanup(srv.Close)

	cfg := config.NewDefault()
	cfg.Server.ListenAddress = "127.0.0.1:0"
	cfg.Server.BaseURL = "http://gw.test"
	cfg.Upstream = srv.UpstreamConfig()
	cfg.Accounts = []config.AccountConfig{upstreamtest.AccountConfig("alpha")}
	cfg.Artifacts.Dir = t.TempDir()
	cfg.Telemetry.Metrics.Enabled = true
	if mutate != nil {
		mutate(cfg)
	}

	logger, err := logging.New(logging.Config{Level: "error", Writer: io.Discard})
	if err != nil {
		t.Fatal(err)
	}

	app, err := NewApp(cfg, AppOptions{
		Version:    "test",
		Logger:     logger,
		HTTPClient: srv.Client(),
		Registry:   prometheus.NewRegistry(),
	})
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	return app
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

const helloRequest = `{"model":"gemini-auto","messages":[{"role":"user","content":"hi"}]}`

func TestServer_ChatAndAccountLookup(t *testing.T) {
	app := newTestApp(t, upstreamtest.Script{}, nil)
	h := NewServer(app).Handler()

	w := do(t, h, http.MethodPost, "/v1/chat/completions", helloRequest)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("response should carry a request id")
	}

	var resp types.ChatCompletionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if got := resp.Choices[0].Message.Content; got != "Hello" {
		t.Errorf("content = %q, want Hello", got)
	}

	w = do(t, h, http.MethodGet, "/v1/chat/completions/"+resp.ID+"/account", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"account":"alpha"`) {
		t.Errorf("account lookup = %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/v1/chat/completions/chatcmpl-unknown/account", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown chat lookup status = %d", w.Code)
	}
}

func TestServer_GeneratedImageIsServed(t *testing.T) {
	app := newTestApp(t, upstreamtest.Script{
		Generated: func(string) []upstreamtest.File {
			return []upstreamtest.File{{ID: "gen-1", Name: "cat.png", MimeType: "image/png"}}
		},
		Content: func(string) []byte { return pngBytes },
	}, nil)
	h := NewServer(app).Handler()

	w := do(t, h, http.MethodPost, "/v1/chat/completions",
		`{"model":"gemini-auto","messages":[{"role":"user","content":"draw a cat"}]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp types.ChatCompletionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	url := resp.Choices[0].Message.Content
	wantURL := "http://gw.test/images/" + resp.ID + "_1.png"
	if url != wantURL {
		t.Fatalf("content = %q, want %q", url, wantURL)
	}

	w = do(t, h, http.MethodGet, strings.TrimPrefix(url, "http://gw.test"), "")
	if w.Code != http.StatusOK {
		t.Fatalf("image status = %d", w.Code)
	}
	if w.Body.String() != string(pngBytes) {
		t.Errorf("served bytes differ from the generated file")
	}

	records, err := app.Artifacts.Catalog().ByChat(context.Background(), resp.ID)
	if err != nil || len(records) != 1 {
		t.Fatalf("catalog = %v, %v", records, err)
	}
	if records[0].Filename != filepath.Base(url) {
		t.Errorf("catalog filename = %q", records[0].Filename)
	}
}

func TestServer_ImagesDoNotList(t *testing.T) {
	h := NewServer(newTestApp(t, upstreamtest.Script{}, nil)).Handler()

	if w := do(t, h, http.MethodGet, "/images/", ""); w.Code != http.StatusNotFound {
		t.Errorf("directory listing status = %d, want 404", w.Code)
	}
	if w := do(t, h, http.MethodGet, "/images/missing.png", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing file status = %d, want 404", w.Code)
	}
}

func TestServer_Streaming(t *testing.T) {
	h := NewServer(newTestApp(t, upstreamtest.Script{
		Replies: func(string, string) []upstreamtest.Reply {
			return []upstreamtest.Reply{{Text: "thinking", Thought: true}, {Text: "Hel"}, {Text: "lo"}}
		},
	}, nil)).Handler()

	w := do(t, h, http.MethodPost, "/v1/chat/completions",
		`{"model":"gemini-auto","stream":true,"messages":[{"role":"user","content":"hi"}]}`)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q, body = %s", ct, w.Body.String())
	}
	body := w.Body.String()
	if strings.Contains(body, "thinking") {
		t.Error("thought replies must not be streamed")
	}
	for _, want := range []string{`"role":"assistant"`, `"content":"Hel"`, `"content":"lo"`, `"finish_reason":"stop"`, "data: [DONE]"} {
		if !strings.Contains(body, want) {
			t.Errorf("stream missing %s:\n%s", want, body)
		}
	}
}

func TestServer_ModelsHealthAndMetrics(t *testing.T) {
	h := NewServer(newTestApp(t, upstreamtest.Script{}, nil)).Handler()

	w := do(t, h, http.MethodGet, "/v1/models", "")
	var list types.ModelList
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Data) != len(config.DefaultModels()) {
		t.Errorf("models = %d, want %d", len(list.Data), len(config.DefaultModels()))
	}

	if w := do(t, h, http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Errorf("health = %d", w.Code)
	}
	// Maintenance only runs once Start is called.
	w = do(t, h, http.MethodGet, "/ready", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready before start = %d, want 503", w.Code)
	}
	var report health.Report
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	for name, want := range map[string]string{
		"accounts":         health.StatusOK,
		"artifact_dir":     health.StatusOK,
		"artifact_catalog": health.StatusOK,
		"scheduler":        health.StatusUnhealthy,
	} {
		if got := report.Checks[name].Status; got != want {
			t.Errorf("check %s = %q, want %q", name, got, want)
		}
	}

	w = do(t, h, http.MethodGet, "/version", "")
	var info health.VersionInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.Version != "test" {
		t.Errorf("version = %q", info.Version)
	}

	do(t, h, http.MethodPost, "/v1/chat/completions", helloRequest)
	w = do(t, h, http.MethodGet, "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "bizbridge_requests_total") {
		t.Errorf("metrics output missing request counter:\n%s", w.Body.String())
	}
}

func TestServer_MetricsDisabled(t *testing.T) {
	h := NewServer(newTestApp(t, upstreamtest.Script{}, func(cfg *config.Config) {
		cfg.Telemetry.Metrics.Enabled = false
	})).Handler()

	if w := do(t, h, http.MethodGet, "/metrics", ""); w.Code != http.StatusNotFound {
		t.Errorf("metrics status = %d, want 404", w.Code)
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	h := NewServer(newTestApp(t, upstreamtest.Script{}, nil)).Handler()

	if w := do(t, h, http.MethodGet, "/v1/chat/completions", ""); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET chat completions = %d, want 405", w.Code)
	}
}

func TestServer_SQLiteCatalog(t *testing.T) {
	app := newTestApp(t, upstreamtest.Script{
		Generated: func(string) []upstreamtest.File {
			return []upstreamtest.File{{ID: "gen-1", MimeType: "image/jpeg"}}
		},
		Content: func(string) []byte { return []byte("jpeg") },
	}, func(cfg *config.Config) {
		cfg.Artifacts.Catalog.Backend = "sqlite"
		cfg.Artifacts.Catalog.SQLitePath = filepath.Join(t.TempDir(), "artifacts.db")
		cfg.Artifacts.Retention.MaxAge = time.Hour
	})
	h := NewServer(app).Handler()

	w := do(t, h, http.MethodPost, "/v1/chat/completions", helloRequest)
	var resp types.ChatCompletionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	if _, ok := app.Artifacts.Catalog().(*artifacts.SQLiteCatalog); !ok {
		t.Fatalf("catalog is %T, want *artifacts.SQLiteCatalog", app.Artifacts.Catalog())
	}
	records, err := app.Artifacts.Catalog().ByChat(context.Background(), resp.ID)
	if err != nil || len(records) != 1 {
		t.Fatalf("catalog = %v, %v", records, err)
	}
	if records[0].MimeType != "image/jpeg" || !strings.HasSuffix(records[0].Filename, ".jpeg") {
		t.Errorf("unexpected record %+v", records[0])
	}

	if err := app.Scheduler.RunNow(context.Background(), maintenance.JobArtifactRetention); err != nil {
		t.Errorf("retention job should be registered: %v", err)
	}
}

func TestServer_Lifecycle(t *testing.T) {
	app := newTestApp(t, upstreamtest.Script{}, nil)
	srv := NewServer(app)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for srv.Addr() == "" || !srv.IsRunning() || !app.Scheduler.IsRunning() {
		if time.Now().After(deadline) {
			t.Fatal("server did not start")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := srv.Health(context.Background()); err != nil {
		t.Errorf("Health() = %v", err)
	}

	for _, path := range []string{"/health", "/ready"} {
		resp, err := http.Get("http://" + srv.Addr() + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s status = %d", path, resp.StatusCode)
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	if srv.IsRunning() {
		t.Error("server still running after shutdown")
	}
}

func TestServer_ChatOutlivesWriteTimeout(t *testing.T) {
	app := newTestApp(t, upstreamtest.Script{
		Replies: func(string, string) []upstreamtest.Reply {
			time.Sleep(300 * time.Millisecond)
			return []upstreamtest.Reply{{Text: "slow answer"}}
		},
	}, nil)

	ts := httptest.NewUnstartedServer(NewServer(app).Handler())
	ts.Config.WriteTimeout = 100 * time.Millisecond
	ts.Start()
	defer ts.Close()

	tests := []struct {
		name string
		body string
	}{
		{"blocking", helloRequest},
		{"stream", `{"model":"gemini-auto","stream":true,"messages":[{"role":"user","content":"hi"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/v1/chat/completions", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatalf("response cut short: %v", err)
			}
			if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "slow answer") {
				t.Errorf("status %d, body %s", resp.StatusCode, body)
			}
		})
	}
}
