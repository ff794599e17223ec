package incidents

import (
	"strings"

	"github.com/bissquit/incident-desk/internal/domain"
)

// Fields is the candidate field set checked before any write.
type Fields struct {
	Title    string
	Severity domain.Severity
	Status   domain.Status
	Category domain.Category
}

// ValidateFields evaluates every rule independently and returns all
// violations as human-readable messages. An empty slice means the fields are
// acceptable. It has no side effects; failing validation never touches the
// store.
func ValidateFields(f Fields) []string {
	var violations []string

	if len(strings.TrimSpace(f.Title)) < 3 {
		violations = append(violations, "title must be at least 3 characters")
	}
	if !f.Severity.IsValid() {
		violations = append(violations, "invalid severity")
	}
	if !f.Status.IsValid() {
		violations = append(violations, "invalid status")
	}
	if !f.Category.IsValid() {
		violations = append(violations, "invalid category")
	}

	return violations
}
