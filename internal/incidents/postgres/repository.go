// Package postgres provides the PostgreSQL implementation of the incidents
// repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/incident-desk/internal/domain"
	"github.com/bissquit/incident-desk/internal/incidents"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is an interface for database operations that both *pgxpool.Pool and
// pgx.Tx implement.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const incidentColumns = `
	id, title, description, category, severity, status,
	reported_by, assigned_to, created_at, updated_at, resolved_at,
	downtime_minutes, root_cause, resolution, sla_target_hours, sla_breached
`

// Repository implements incidents.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateIncident inserts a new incident. Timestamps are supplied by the
// caller; only the identifier is database-assigned.
func (r *Repository) CreateIncident(ctx context.Context, incident *domain.Incident) error {
	query := `
		INSERT INTO incidents (
			title, description, category, severity, status,
			reported_by, assigned_to, created_at, updated_at,
			downtime_minutes, root_cause, resolution, sla_target_hours, sla_breached
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		incident.Title,
		incident.Description,
		incident.Category,
		incident.Severity,
		incident.Status,
		incident.ReportedBy,
		incident.AssignedTo,
		incident.CreatedAt,
		incident.UpdatedAt,
		incident.DowntimeMinutes,
		incident.RootCause,
		incident.Resolution,
		incident.SLATargetHours,
		incident.SLABreached,
	).Scan(&incident.ID)

	if err != nil {
		return fmt.Errorf("create incident: %w", err)
	}
	return nil
}

// GetIncident retrieves an incident by ID.
func (r *Repository) GetIncident(ctx context.Context, id int64) (*domain.Incident, error) {
	return getIncident(ctx, r.db, id, "")
}

// GetIncidentForUpdateTx retrieves an incident inside a transaction, locking
// the row until the transaction ends.
func (r *Repository) GetIncidentForUpdateTx(ctx context.Context, tx pgx.Tx, id int64) (*domain.Incident, error) {
	return getIncident(ctx, tx, id, " FOR UPDATE")
}

func getIncident(ctx context.Context, q querier, id int64, suffix string) (*domain.Incident, error) {
	query := `SELECT` + incidentColumns + `FROM incidents WHERE id = $1` + suffix

	incident, err := scanIncident(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("get incident: %w", err)
	}
	return incident, nil
}

// UpdateIncidentTx persists every editable field plus the lifecycle stamps.
// ReportedBy and CreatedAt are immutable and deliberately not written.
func (r *Repository) UpdateIncidentTx(ctx context.Context, tx pgx.Tx, incident *domain.Incident) error {
	query := `
		UPDATE incidents
		SET title = $2, description = $3, category = $4, severity = $5,
		    status = $6, assigned_to = $7, downtime_minutes = $8,
		    root_cause = $9, resolution = $10, sla_target_hours = $11,
		    updated_at = $12, resolved_at = $13, sla_breached = $14
		WHERE id = $1
	`
	result, err := tx.Exec(ctx, query,
		incident.ID,
		incident.Title,
		incident.Description,
		incident.Category,
		incident.Severity,
		incident.Status,
		incident.AssignedTo,
		incident.DowntimeMinutes,
		incident.RootCause,
		incident.Resolution,
		incident.SLATargetHours,
		incident.UpdatedAt,
		incident.ResolvedAt,
		incident.SLABreached,
	)
	if err != nil {
		return fmt.Errorf("update incident: %w", err)
	}

	if result.RowsAffected() == 0 {
		return incidents.ErrIncidentNotFound
	}
	return nil
}

// ListIncidents retrieves incidents with optional filters, newest first.
func (r *Repository) ListIncidents(ctx context.Context, filters incidents.ListFilters) ([]*domain.Incident, error) {
	query := `SELECT` + incidentColumns + `FROM incidents WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, *filters.Status)
		argNum++
	}

	if filters.Severity != nil {
		query += fmt.Sprintf(" AND severity = $%d", argNum)
		args = append(args, *filters.Severity)
		argNum++
	}

	if filters.Search != "" {
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", argNum, argNum)
		args = append(args, "%"+filters.Search+"%")
		argNum++
	}

	query += " ORDER BY created_at DESC, id DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	return collectIncidents(rows)
}

// GetStats computes the dashboard aggregates in three passes: one combined
// counts query, the five most recent incidents, and the two groupings.
func (r *Repository) GetStats(ctx context.Context) (*incidents.StoreStats, error) {
	stats := &incidents.StoreStats{}

	countsQuery := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'Open'),
			COUNT(*) FILTER (WHERE status = 'In Progress'),
			COUNT(*) FILTER (WHERE status IN ('Resolved', 'Closed')),
			COUNT(*) FILTER (WHERE severity = 'Critical' AND status NOT IN ('Resolved', 'Closed')),
			COUNT(*) FILTER (WHERE sla_breached)
		FROM incidents
	`
	err := r.db.QueryRow(ctx, countsQuery).Scan(
		&stats.Total,
		&stats.Open,
		&stats.InProgress,
		&stats.Resolved,
		&stats.Critical,
		&stats.SLABreached,
	)
	if err != nil {
		return nil, fmt.Errorf("count incidents: %w", err)
	}

	recentQuery := `SELECT` + incidentColumns + `FROM incidents ORDER BY created_at DESC, id DESC LIMIT 5`
	rows, err := r.db.Query(ctx, recentQuery)
	if err != nil {
		return nil, fmt.Errorf("recent incidents: %w", err)
	}
	defer rows.Close()

	stats.Recent, err = collectIncidents(rows)
	if err != nil {
		return nil, err
	}

	categoryQuery := `
		SELECT category, COUNT(*) AS count
		FROM incidents
		GROUP BY category
		ORDER BY count DESC, category
	`
	categoryRows, err := r.db.Query(ctx, categoryQuery)
	if err != nil {
		return nil, fmt.Errorf("group by category: %w", err)
	}
	defer categoryRows.Close()

	for categoryRows.Next() {
		var cc incidents.CategoryCount
		if err := categoryRows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		stats.ByCategory = append(stats.ByCategory, cc)
	}
	if err := categoryRows.Err(); err != nil {
		return nil, fmt.Errorf("group by category: %w", err)
	}

	severityQuery := `
		SELECT severity, COUNT(*) AS count
		FROM incidents
		GROUP BY severity
	`
	severityRows, err := r.db.Query(ctx, severityQuery)
	if err != nil {
		return nil, fmt.Errorf("group by severity: %w", err)
	}
	defer severityRows.Close()

	for severityRows.Next() {
		var sc incidents.SeverityCount
		if err := severityRows.Scan(&sc.Severity, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan severity count: %w", err)
		}
		stats.BySeverity = append(stats.BySeverity, sc)
	}
	if err := severityRows.Err(); err != nil {
		return nil, fmt.Errorf("group by severity: %w", err)
	}

	return stats, nil
}

// BeginTx starts a new transaction.
func (r *Repository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	return r.db.Begin(ctx)
}

func scanIncident(row pgx.Row) (*domain.Incident, error) {
	var incident domain.Incident
	err := row.Scan(
		&incident.ID,
		&incident.Title,
		&incident.Description,
		&incident.Category,
		&incident.Severity,
		&incident.Status,
		&incident.ReportedBy,
		&incident.AssignedTo,
		&incident.CreatedAt,
		&incident.UpdatedAt,
		&incident.ResolvedAt,
		&incident.DowntimeMinutes,
		&incident.RootCause,
		&incident.Resolution,
		&incident.SLATargetHours,
		&incident.SLABreached,
	)
	if err != nil {
		return nil, err
	}
	return &incident, nil
}

func collectIncidents(rows pgx.Rows) ([]*domain.Incident, error) {
	list := make([]*domain.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		list = append(list, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}
	return list, nil
}
