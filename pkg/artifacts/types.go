package artifacts

import (
	"context"
	"time"
)

// Record describes one saved file.
type Record struct {
	// URL is where clients fetch the file.
	URL string `json:"url"`

	// Filename is the file's name inside the artifact directory.
	Filename string `json:"filename"`

	// MimeType is the type reported by the backend.
	MimeType string `json:"mime_type"`

	// Size is the decoded size in bytes.
	Size int `json:"size"`

	// ChatID is the completion the file belongs to.
	ChatID string `json:"chat_id"`

	// ImageIndex is the 1-based position among the completion's files.
	ImageIndex int `json:"image_index"`

	// CreatedAt is when the file was written.
	CreatedAt time.Time `json:"created_at"`
}

// Catalog keeps artifact records. Implementations must be safe for
// concurrent use.
type Catalog interface {
	// Put stores r, replacing any record with the same filename.
	Put(ctx context.Context, r *Record) error

	// ByChat returns the records of chatID ordered by image index.
	ByChat(ctx context.Context, chatID string) ([]*Record, error)

	// OlderThan returns records created before cutoff.
	OlderThan(ctx context.Context, cutoff time.Time) ([]*Record, error)

	// Delete removes the record for filename. Missing records are ignored.
	Delete(ctx context.Context, filename string) error

	// Close releases backend resources.
	Close() error
}
