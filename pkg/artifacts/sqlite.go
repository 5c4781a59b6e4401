package artifacts

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteConfig configures the SQLite catalog.
type SQLiteConfig struct {
	// Path is the database file path. Its directory is created if needed.
	Path string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// SQLiteCatalog keeps records in a SQLite database.
type SQLiteCatalog struct {
	db     *sql.DB
	logger *slog.Logger

	putStmt       *sql.Stmt
	byChatStmt    *sql.Stmt
	olderThanStmt *sql.Stmt
	deleteStmt    *sql.Stmt
}

// NewSQLiteCatalog opens or creates the catalog database.
func NewSQLiteCatalog(cfg SQLiteConfig) (*SQLiteCatalog, error) {
	if cfg.Path == "" {
		return nil, NewStorageError("sqlite", "open", fmt.Errorf("db path cannot be empty"))
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, NewStorageError("sqlite", "mkdir", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}

	c := &SQLiteCatalog{
		db:     db,
		logger: slog.Default().With("component", "artifacts.catalog.sqlite"),
	}
	if err := c.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	c.logger.Info("artifact catalog opened", "path", cfg.Path)
	return c, nil
}

func (c *SQLiteCatalog) initialize() error {
	if _, err := c.db.Exec(Schema); err != nil {
		return NewStorageError("sqlite", "create_schema", err)
	}
	if _, err := c.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	if err := c.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		return NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("expected schema version %d, got %d", SchemaVersion, version))
	}

	stmts := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&c.putStmt, `INSERT OR REPLACE INTO artifacts (filename, url, mime_type, size, chat_id, image_index, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`},
		{&c.byChatStmt, `SELECT filename, url, mime_type, size, chat_id, image_index, created_at FROM artifacts WHERE chat_id = ? ORDER BY image_index`},
		{&c.olderThanStmt, `SELECT filename, url, mime_type, size, chat_id, image_index, created_at FROM artifacts WHERE created_at < ?`},
		{&c.deleteStmt, `DELETE FROM artifacts WHERE filename = ?`},
	}
	for _, s := range stmts {
		stmt, err := c.db.Prepare(s.query)
		if err != nil {
			return NewStorageError("sqlite", "prepare", err)
		}
		*s.dst = stmt
	}
	return nil
}

// Put stores r.
func (c *SQLiteCatalog) Put(ctx context.Context, r *Record) error {
	_, err := c.putStmt.ExecContext(ctx,
		r.Filename, r.URL, r.MimeType, r.Size, r.ChatID, r.ImageIndex, r.CreatedAt.UnixNano())
	if err != nil {
		return NewStorageError("sqlite", "put", err)
	}
	return nil
}

// ByChat returns the records of chatID ordered by image index.
func (c *SQLiteCatalog) ByChat(ctx context.Context, chatID string) ([]*Record, error) {
	rows, err := c.byChatStmt.QueryContext(ctx, chatID)
	if err != nil {
		return nil, NewStorageError("sqlite", "by_chat", err)
	}
	return scanRecords(rows)
}

// OlderThan returns records created before cutoff.
func (c *SQLiteCatalog) OlderThan(ctx context.Context, cutoff time.Time) ([]*Record, error) {
	rows, err := c.olderThanStmt.QueryContext(ctx, cutoff.UnixNano())
	if err != nil {
		return nil, NewStorageError("sqlite", "older_than", err)
	}
	return scanRecords(rows)
}

// Delete removes the record for filename.
func (c *SQLiteCatalog) Delete(ctx context.Context, filename string) error {
	if _, err := c.deleteStmt.ExecContext(ctx, filename); err != nil {
		return NewStorageError("sqlite", "delete", err)
	}
	return nil
}

// Close closes prepared statements and the database.
func (c *SQLiteCatalog) Close() error {
	for _, s := range []*sql.Stmt{c.putStmt, c.byChatStmt, c.olderThanStmt, c.deleteStmt} {
		if s != nil {
			s.Close()
		}
	}
	return c.db.Close()
}

func scanRecords(rows *sql.Rows) ([]*Record, error) {
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var (
			r       Record
			created int64
		)
		if err := rows.Scan(&r.Filename, &r.URL, &r.MimeType, &r.Size, &r.ChatID, &r.ImageIndex, &created); err != nil {
			return nil, NewStorageError("sqlite", "scan", err)
		}
		r.CreatedAt = time.Unix(0, created)
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "scan", err)
	}
	return out, nil
}
