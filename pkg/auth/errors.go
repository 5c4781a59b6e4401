package auth

import "fmt"

// ConfigurationError reports an unusable credential. It is raised while
// accounts are being built and must stop the process from serving.
type ConfigurationError struct {
	// Account is the configured account name, if known.
	Account string

	// Field is the missing or malformed credential field.
	Field string

	// Message describes the problem.
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Account != "" {
		return fmt.Sprintf("account %q: %s: %s", e.Account, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// TokenRefreshError reports a failed call to the token bootstrap endpoint.
// The issuer never retries it; rotation is the caller's decision.
type TokenRefreshError struct {
	// Account is the account whose token could not be refreshed.
	Account string

	// StatusCode is the HTTP status code (0 if the request never completed).
	StatusCode int

	// Message is the error message.
	Message string

	// Cause is the underlying error (if any).
	Cause error
}

// Error implements the error interface.
func (e *TokenRefreshError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("account %q token refresh failed (status %d): %s", e.Account, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("account %q token refresh failed: %s", e.Account, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *TokenRefreshError) Unwrap() error {
	return e.Cause
}
