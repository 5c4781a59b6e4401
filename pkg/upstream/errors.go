package upstream

import (
	"errors"
	"fmt"
)

// maxErrorBody bounds how much of an error response is kept in messages.
const maxErrorBody = 512

// ErrResponseTooLarge is returned when a response body exceeds the size
// bound. The body is discarded rather than returned cut short.
var ErrResponseTooLarge = errors.New("upstream response too large")

// SessionCreateError reports a failed widgetCreateSession call.
type SessionCreateError struct {
	// Account is the account the call was made as.
	Account string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Message describes the failure.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

// Error implements the error interface.
func (e *SessionCreateError) Error() string {
	return formatError("create session", e.Account, e.StatusCode, e.Message)
}

// Unwrap returns the underlying error.
func (e *SessionCreateError) Unwrap() error {
	return e.Cause
}

// FileUploadError reports a failed widgetAddContextFile call.
type FileUploadError struct {
	Account    string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *FileUploadError) Error() string {
	return formatError("upload file", e.Account, e.StatusCode, e.Message)
}

// Unwrap returns the underlying error.
func (e *FileUploadError) Unwrap() error {
	return e.Cause
}

// StreamError reports a failed or unparseable widgetStreamAssist call.
type StreamError struct {
	Account    string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	return formatError("stream answer", e.Account, e.StatusCode, e.Message)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Cause
}

func formatError(op, account string, status int, msg string) string {
	if status > 0 {
		return fmt.Sprintf("%s as %q failed (status %d): %s", op, account, status, msg)
	}
	return fmt.Sprintf("%s as %q failed: %s", op, account, msg)
}

func truncate(body []byte) string {
	if len(body) > maxErrorBody {
		return string(body[:maxErrorBody]) + "..."
	}
	return string(body)
}
