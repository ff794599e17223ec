package incidents

import (
	"errors"
	"strings"
)

// Repository errors.
var (
	ErrIncidentNotFound = errors.New("incident not found")
)

// ValidationError reports every field rule the input violated. Callers get
// the full list so a form can be re-presented with all messages at once.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}
