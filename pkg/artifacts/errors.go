package artifacts

import (
	"errors"
	"fmt"
)

// ErrEmptyContent is returned when there are no bytes to save.
var ErrEmptyContent = errors.New("artifact content is empty")

// StorageError represents a failure of a catalog backend or the file
// system.
type StorageError struct {
	Backend   string // "memory", "sqlite" or "fs"
	Operation string // operation that failed
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("artifact storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}
