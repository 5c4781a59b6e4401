package artifacts

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryCatalog keeps records in a map. Records are lost on restart, so
// retention only covers files saved by the running process.
type MemoryCatalog struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryCatalog creates an empty in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{records: make(map[string]Record)}
}

// Put stores a copy of r.
func (c *MemoryCatalog) Put(_ context.Context, r *Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[r.Filename] = *r
	return nil
}

// ByChat returns copies of the records of chatID.
func (c *MemoryCatalog) ByChat(_ context.Context, chatID string) ([]*Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*Record
	for _, r := range c.records {
		if r.ChatID == chatID {
			out = append(out, &r)
		}
	}
	slices.SortFunc(out, func(a, b *Record) int { return a.ImageIndex - b.ImageIndex })
	return out, nil
}

// OlderThan returns copies of records created before cutoff.
func (c *MemoryCatalog) OlderThan(_ context.Context, cutoff time.Time) ([]*Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*Record
	for _, r := range c.records {
		if r.CreatedAt.Before(cutoff) {
			out = append(out, &r)
		}
	}
	return out, nil
}

// Delete removes the record for filename.
func (c *MemoryCatalog) Delete(_ context.Context, filename string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, filename)
	return nil
}

// Len returns the number of records.
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Close is a no-op.
func (c *MemoryCatalog) Close() error {
	return nil
}
