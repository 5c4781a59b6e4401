package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

type count int

func (c count) Len() int { return int(c) }

type running bool

func (r running) IsRunning() bool { return bool(r) }

func TestChecker_Readiness(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]CheckFunc
		want   string
	}{
		{
			name: "no checks",
			want: StatusReady,
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"accounts":  AccountsCheck(count(2)),
				"scheduler": RunningCheck(running(true)),
			},
			want: StatusReady,
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"accounts":  AccountsCheck(count(0)),
				"scheduler": RunningCheck(running(true)),
			},
			want: StatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(time.Second)
			for name, check := range tt.checks {
				c.RegisterCheck(name, check)
			}

			report := c.Readiness(context.Background())
			if report.Status != tt.want {
				t.Errorf("status = %q, want %q", report.Status, tt.want)
			}
			if len(report.Checks) != len(tt.checks) {
				t.Errorf("got %d results, want %d", len(report.Checks), len(tt.checks))
			}
		})
	}
}

func TestChecker_Timeout(t *testing.T) {
	c := New(20 * time.Millisecond)
	c.RegisterCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	report := c.Readiness(context.Background())
	res := report.Checks["slow"]
	if res.Status != StatusUnhealthy || res.Message != ErrCheckTimeout.Error() {
		t.Errorf("slow check = %+v, want timeout", res)
	}
}

func TestChecker_FailureMessage(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("catalog", func(context.Context) error { return errors.New("database is locked") })

	res := c.Readiness(context.Background()).Checks["catalog"]
	if res.Message != "database is locked" {
		t.Errorf("message = %q", res.Message)
	}
}

func TestChecker_Names(t *testing.T) {
	c := New(0)
	c.RegisterCheck("b", AccountsCheck(count(1)))
	c.RegisterCheck("a", AccountsCheck(count(1)))
	c.RegisterCheck("a", AccountsCheck(count(0)))

	names := c.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names() = %v", names)
	}
}

func TestDirCheck(t *testing.T) {
	dir := t.TempDir()
	if err := DirCheck(dir)(context.Background()); err != nil {
		t.Errorf("writable dir: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("probe file left behind: %v", entries)
	}

	file := filepath.Join(dir, "plain")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := DirCheck(file)(context.Background()); err == nil {
		t.Error("expected error for a regular file")
	}
	if err := DirCheck(filepath.Join(dir, "missing"))(context.Background()); err == nil {
		t.Error("expected error for a missing directory")
	}
}

func TestReadinessHandler(t *testing.T) {
	c := New(time.Second)
	c.RegisterCheck("accounts", AccountsCheck(count(0)))

	w := httptest.NewRecorder()
	c.ReadinessHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	var report Report
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if report.Checks["accounts"].Message != "no upstream accounts configured" {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestLivenessHandler_Head(t *testing.T) {
	w := httptest.NewRecorder()
	New(0).LivenessHandler().ServeHTTP(w, httptest.NewRequest(http.MethodHead, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("HEAD must not carry a body, got %q", w.Body.String())
	}
}

func TestVersionHandler(t *testing.T) {
	w := httptest.NewRecorder()
	VersionHandler(VersionInfo{Version: "1.2.3", Commit: "abc"}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info VersionInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if info.Version != "1.2.3" || info.Commit != "abc" || info.GoVersion == "" {
		t.Errorf("unexpected info: %+v", info)
	}
}
