package incidents

import (
	"context"

	"github.com/bissquit/incident-desk/internal/domain"
	"github.com/jackc/pgx/v5"
)

// Repository defines the interface for incident storage.
type Repository interface {
	CreateIncident(ctx context.Context, incident *domain.Incident) error
	GetIncident(ctx context.Context, id int64) (*domain.Incident, error)
	ListIncidents(ctx context.Context, filters ListFilters) ([]*domain.Incident, error)
	GetStats(ctx context.Context) (*StoreStats, error)

	// Transaction support. GetIncidentForUpdateTx locks the row so a status
	// transition is a single atomic read-modify-write.
	BeginTx(ctx context.Context) (pgx.Tx, error)
	GetIncidentForUpdateTx(ctx context.Context, tx pgx.Tx, id int64) (*domain.Incident, error)
	UpdateIncidentTx(ctx context.Context, tx pgx.Tx, incident *domain.Incident) error
}

// ListFilters holds filter options for listing incidents. Nil enum filters
// match everything; Search matches a case-insensitive substring of title or
// description.
type ListFilters struct {
	Status   *domain.Status
	Severity *domain.Severity
	Search   string
}

// CategoryCount is a per-category incident count.
type CategoryCount struct {
	Category domain.Category `json:"category"`
	Count    int             `json:"count"`
}

// SeverityCount is a per-severity incident count.
type SeverityCount struct {
	Severity domain.Severity `json:"severity"`
	Count    int             `json:"count"`
}

// StoreStats holds the raw aggregates the repository computes in one pass.
// The compliance percentage is derived from these by the service.
type StoreStats struct {
	Total       int
	Open        int
	InProgress  int
	Resolved    int
	Critical    int
	SLABreached int
	Recent      []*domain.Incident
	ByCategory  []CategoryCount
	BySeverity  []SeverityCount
}
