package orchestrator

import (
	"errors"
	"fmt"
)

// ErrSessionUnavailable is returned when no account could create an
// upstream session within the retry budget.
var ErrSessionUnavailable = errors.New("upstream session unavailable")

// ModelNotFoundError reports a model alias that is not configured.
type ModelNotFoundError struct {
	Model string
}

// Error implements the error interface.
func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("model '%s' not found", e.Model)
}
