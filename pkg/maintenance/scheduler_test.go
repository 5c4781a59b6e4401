package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"bizbridge/gateway/pkg/artifacts"
	"bizbridge/gateway/pkg/session"
)

func noop(context.Context) error { return nil }

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name        string
		schedule    string
		wantRunning bool
		wantError   bool
	}{
		{name: "valid daily schedule", schedule: "0 3 * * *", wantRunning: true},
		{name: "valid ten minute schedule", schedule: "*/10 * * * *", wantRunning: true},
		{name: "empty schedule - no error, not running", schedule: ""},
		{name: "invalid schedule", schedule: "invalid cron", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(nil)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			err := s.Add(Job{Name: "job", Schedule: tt.schedule, Run: noop})
			if (err != nil) != tt.wantError {
				t.Fatalf("Add() error = %v, wantError %v", err, tt.wantError)
			}
			if err := s.Start(ctx); err != nil {
				t.Fatalf("Start() error = %v", err)
			}
			defer s.Stop()

			if s.IsRunning() != tt.wantRunning {
				t.Errorf("IsRunning() = %v, want %v", s.IsRunning(), tt.wantRunning)
			}

			if tt.wantRunning {
				next := s.NextRun("job")
				if next == nil {
					t.Fatal("NextRun() returned nil for running scheduler")
				}
				if !next.After(time.Now()) {
					t.Errorf("NextRun() = %v, want a future time", next)
				}
			}
		})
	}
}

func TestScheduler_StopsOnContextCancel(t *testing.T) {
	s := NewScheduler(nil)
	if err := s.Add(Job{Name: "job", Schedule: "0 * * * *", Run: noop}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for s.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.IsRunning() {
		t.Error("scheduler still running after context cancel")
	}
}

func TestScheduler_AddRules(t *testing.T) {
	s := NewScheduler(nil)
	if err := s.Add(Job{Name: "a", Schedule: "0 * * * *", Run: noop}); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(Job{Name: "a", Schedule: "0 * * * *", Run: noop}); err == nil {
		t.Error("expected duplicate name error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer s.Stop()

	if err := s.Add(Job{Name: "b", Schedule: "0 * * * *", Run: noop}); err == nil {
		t.Error("expected error when adding after start")
	}
}

func TestScheduler_RunNow(t *testing.T) {
	s := NewScheduler(nil)
	called := 0
	boom := errors.New("boom")
	if err := s.Add(Job{Name: "count", Schedule: "0 3 * * *", Run: func(context.Context) error {
		called++
		return boom
	}}); err != nil {
		t.Fatal(err)
	}

	if err := s.RunNow(context.Background(), "count"); !errors.Is(err, boom) {
		t.Errorf("RunNow error = %v, want boom", err)
	}
	if called != 1 {
		t.Errorf("job ran %d times, want 1", called)
	}
	if err := s.RunNow(context.Background(), "missing"); err == nil {
		t.Error("expected error for unknown job")
	}
}

func TestSessionSweepJob(t *testing.T) {
	cache := session.NewCache(time.Nanosecond)
	cache.Store("a", session.Entry{SessionName: "s", CreatedAt: time.Now().Add(-time.Second)})
	cache.Store("b", session.Entry{SessionName: "s", CreatedAt: time.Now().Add(-time.Second)})

	job := SessionSweep(cache, "*/10 * * * *", nil)
	if job.Name != JobSessionSweep {
		t.Errorf("name = %q", job.Name)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("expected empty cache, len = %d", cache.Len())
	}
}

func TestArtifactRetentionJob(t *testing.T) {
	now := time.Unix(1700000000, 0)
	store, err := artifacts.NewStore(t.TempDir(), "http://gw", nil, artifacts.Options{
		Now: func() time.Time { return now },
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if _, err := store.Save(ctx, "chat", 1, "image/png", []byte("x")); err != nil {
		t.Fatal(err)
	}
	now = now.Add(48 * time.Hour)

	job := ArtifactRetention(store, "0 3 * * *", 24*time.Hour)
	if err := job.Run(ctx); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	records, _ := store.Catalog().OlderThan(ctx, now.Add(time.Hour))
	if len(records) != 0 {
		t.Errorf("expected all records pruned, got %d", len(records))
	}
}
