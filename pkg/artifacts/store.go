package artifacts

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bizbridge/gateway/pkg/config"
	"bizbridge/gateway/pkg/telemetry/metrics"
)

// DefaultExtension is used when the mime type carries no usable subtype.
const DefaultExtension = "png"

// Options holds the optional collaborators of a Store.
type Options struct {
	Metrics *metrics.Collector
	Logger  *slog.Logger
	Now     func() time.Time
}

// Store writes generated files to disk and records them in a Catalog.
type Store struct {
	dir     string
	baseURL string
	catalog Catalog
	metrics *metrics.Collector
	logger  *slog.Logger
	now     func() time.Time
}

// NewStore creates the artifact directory if needed. URLs are built as
// baseURL + "/images/" + filename.
func NewStore(dir, baseURL string, catalog Catalog, opts Options) (*Store, error) {
	if dir == "" {
		return nil, NewStorageError("fs", "init", errors.New("artifact directory cannot be empty"))
	}
	if catalog == nil {
		catalog = NewMemoryCatalog()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, NewStorageError("fs", "mkdir", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Store{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		catalog: catalog,
		metrics: opts.Metrics,
		logger:  logger.With("component", "artifacts.store"),
		now:     now,
	}, nil
}

// OpenCatalog builds the catalog backend selected by cfg.
func OpenCatalog(cfg config.CatalogConfig) (Catalog, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryCatalog(), nil
	case "sqlite":
		return NewSQLiteCatalog(SQLiteConfig{Path: cfg.SQLitePath, BusyTimeout: cfg.BusyTimeout})
	default:
		return nil, fmt.Errorf("unsupported catalog backend: %s", cfg.Backend)
	}
}

// Dir returns the directory files are written to.
func (s *Store) Dir() string {
	return s.dir
}

// Catalog returns the record catalog.
func (s *Store) Catalog() Catalog {
	return s.catalog
}

// Save persists one downloaded file as <chatID>_<index>.<ext>. The content
// is base64-decoded when it decodes cleanly and written as-is otherwise.
func (s *Store) Save(ctx context.Context, chatID string, index int, mimeType string, content []byte) (*Record, error) {
	if len(content) == 0 {
		return nil, ErrEmptyContent
	}

	data := decodeContent(content)
	filename := fmt.Sprintf("%s_%d.%s", chatID, index, Extension(mimeType))
	path := filepath.Join(s.dir, filename)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, NewStorageError("fs", "write", err)
	}

	record := &Record{
		URL:        s.baseURL + "/images/" + filename,
		Filename:   filename,
		MimeType:   mimeType,
		Size:       len(data),
		ChatID:     chatID,
		ImageIndex: index,
		CreatedAt:  s.now(),
	}
	if err := s.catalog.Put(ctx, record); err != nil {
		// The file is already served; a missing record only exempts it
		// from retention.
		s.logger.WarnContext(ctx, "failed to catalog artifact", "filename", filename, "error", err)
	}

	s.metrics.RecordArtifactSaved(mimeType, len(data))
	s.logger.InfoContext(ctx, "artifact saved", "filename", filename, "mime_type", mimeType, "size", len(data))
	return record, nil
}

// Prune removes files whose records are older than maxAge and returns
// how many were removed. A non-positive maxAge disables pruning.
func (s *Store) Prune(ctx context.Context, maxAge time.Duration) (int, error) {
	if maxAge <= 0 {
		return 0, nil
	}

	records, err := s.catalog.OlderThan(ctx, s.now().Add(-maxAge))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		err := os.Remove(filepath.Join(s.dir, r.Filename))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.WarnContext(ctx, "failed to remove artifact", "filename", r.Filename, "error", err)
			continue
		}
		if err := s.catalog.Delete(ctx, r.Filename); err != nil {
			return removed, err
		}
		removed++
	}

	s.metrics.RecordArtifactsPruned(removed)
	return removed, nil
}

// Close closes the catalog.
func (s *Store) Close() error {
	return s.catalog.Close()
}

// Extension derives a file extension from a mime type's subtype,
// e.g. "image/jpeg" gives "jpeg" and "image/svg+xml" gives "svg".
func Extension(mimeType string) string {
	_, sub, ok := strings.Cut(mimeType, "/")
	if !ok {
		return DefaultExtension
	}
	sub, _, _ = strings.Cut(sub, ";")
	sub, _, _ = strings.Cut(sub, "+")

	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(sub)) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return DefaultExtension
	}
	return b.String()
}

func decodeContent(content []byte) []byte {
	trimmed := bytes.TrimSpace(content)
	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(trimmed)))
	n, err := base64.StdEncoding.Decode(decoded, trimmed)
	if err != nil || n == 0 {
		return content
	}
	return decoded[:n]
}
