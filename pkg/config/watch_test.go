package config

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, validConfig)

	w := NewWatcher(path, nil)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Watch(ctx, func(cfg *Config) { changes <- cfg })
	}()

	// Give the watcher time to register before editing.
	time.Sleep(100 * time.Millisecond)

	updated := strings.Replace(validConfig, `level: "debug"`, `level: "error"`, 1)
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case cfg := <-changes:
		if cfg.Telemetry.Logging.Level != "error" {
			t.Errorf("expected reloaded level error, got %q", cfg.Telemetry.Logging.Level)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch returned error: %v", err)
	}
}

func TestWatcher_InvalidEditIgnored(t *testing.T) {
	path := writeConfig(t, validConfig)

	w := NewWatcher(path, nil)
	called := false
	w.load = func(string) (*Config, error) { return nil, os.ErrInvalid }

	w.reload(func(*Config) { called = true })
	if called {
		t.Error("callback must not run for an invalid configuration")
	}
}
