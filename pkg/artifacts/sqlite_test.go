package artifacts

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestSQLiteCatalog(t *testing.T) *SQLiteCatalog {
	t.Helper()
	c, err := NewSQLiteCatalog(SQLiteConfig{Path: filepath.Join(t.TempDir(), "db", "artifacts.db")})
	if err != nil {
		t.Fatalf("NewSQLiteCatalog failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestSQLiteCatalog_PutAndQuery(t *testing.T) {
	c := newTestSQLiteCatalog(t)
	ctx := context.Background()
	base := time.Unix(1700000000, 0)

	records := []*Record{
		{URL: "u2", Filename: "chat_2.png", MimeType: "image/png", Size: 20, ChatID: "chat", ImageIndex: 2, CreatedAt: base.Add(time.Minute)},
		{URL: "u1", Filename: "chat_1.png", MimeType: "image/png", Size: 10, ChatID: "chat", ImageIndex: 1, CreatedAt: base},
		{URL: "u3", Filename: "other_1.jpeg", MimeType: "image/jpeg", Size: 30, ChatID: "other", ImageIndex: 1, CreatedAt: base.Add(time.Hour)},
	}
	for _, r := range records {
		if err := c.Put(ctx, r); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
	}

	got, err := c.ByChat(ctx, "chat")
	if err != nil {
		t.Fatalf("ByChat failed: %v", err)
	}
	if len(got) != 2 || got[0].Filename != "chat_1.png" || got[1].Filename != "chat_2.png" {
		t.Fatalf("unexpected ByChat result: %+v", got)
	}
	if !got[0].CreatedAt.Equal(base) || got[0].Size != 10 || got[0].URL != "u1" {
		t.Errorf("record did not round-trip: %+v", got[0])
	}

	old, err := c.OlderThan(ctx, base.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("OlderThan failed: %v", err)
	}
	if len(old) != 2 {
		t.Errorf("OlderThan returned %d records, want 2", len(old))
	}

	if err := c.Delete(ctx, "chat_1.png"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := c.Delete(ctx, "missing.png"); err != nil {
		t.Errorf("deleting a missing record should not fail: %v", err)
	}
	got, _ = c.ByChat(ctx, "chat")
	if len(got) != 1 {
		t.Errorf("expected 1 record after delete, got %d", len(got))
	}
}

func TestSQLiteCatalog_PutReplaces(t *testing.T) {
	c := newTestSQLiteCatalog(t)
	ctx := context.Background()

	r := &Record{URL: "a", Filename: "x_1.png", ChatID: "x", ImageIndex: 1, CreatedAt: time.Now()}
	if err := c.Put(ctx, r); err != nil {
		t.Fatal(err)
	}
	r.URL = "b"
	if err := c.Put(ctx, r); err != nil {
		t.Fatal(err)
	}

	got, err := c.ByChat(ctx, "x")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].URL != "b" {
		t.Errorf("expected one replaced record, got %+v", got)
	}
}

func TestSQLiteCatalog_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.db")
	ctx := context.Background()

	c, err := NewSQLiteCatalog(SQLiteConfig{Path: path})
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put(ctx, &Record{Filename: "k_1.png", ChatID: "k", ImageIndex: 1, CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	c.Close()

	c, err = NewSQLiteCatalog(SQLiteConfig{Path: path})
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer c.Close()

	got, err := c.ByChat(ctx, "k")
	if err != nil || len(got) != 1 {
		t.Errorf("record not persisted: %v, %v", got, err)
	}
}

func TestNewSQLiteCatalog_EmptyPath(t *testing.T) {
	if _, err := NewSQLiteCatalog(SQLiteConfig{}); err == nil {
		t.Error("expected error for empty path")
	}
}
