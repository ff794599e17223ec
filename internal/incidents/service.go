package incidents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/bissquit/incident-desk/internal/domain"
	"github.com/jackc/pgx/v5"
)

// Service implements the incident lifecycle and the read models built on it.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService creates a new incident service.
func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

// clock returns the current time at second granularity, matching how
// timestamps are stored.
func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Second)
}

// CreateInput holds caller-supplied fields for a new incident. Status is
// deliberately absent: new incidents always start Open.
type CreateInput struct {
	Title          string
	Description    string
	Category       domain.Category
	Severity       domain.Severity
	ReportedBy     string
	AssignedTo     string
	SLATargetHours int
}

// UpdateInput holds the full editable field set for a transition. ReportedBy
// and the creation timestamp are immutable and therefore absent.
type UpdateInput struct {
	Title           string
	Description     string
	Category        domain.Category
	Severity        domain.Severity
	Status          domain.Status
	AssignedTo      string
	DowntimeMinutes int
	RootCause       string
	Resolution      string
	SLATargetHours  int
}

// Create validates the input and inserts a new incident. The incident starts
// Open with no resolution timestamp and the breach flag unset, regardless of
// anything the caller supplied.
func (s *Service) Create(ctx context.Context, input CreateInput) (*domain.Incident, error) {
	if violations := ValidateFields(Fields{
		Title:    input.Title,
		Severity: input.Severity,
		Status:   domain.StatusOpen,
		Category: input.Category,
	}); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	target := input.SLATargetHours
	if target <= 0 {
		target = domain.DefaultSLATargetHours
	}

	now := s.clock()
	incident := &domain.Incident{
		Title:          strings.TrimSpace(input.Title),
		Description:    input.Description,
		Category:       input.Category,
		Severity:       input.Severity,
		Status:         domain.StatusOpen,
		ReportedBy:     input.ReportedBy,
		AssignedTo:     input.AssignedTo,
		CreatedAt:      now,
		UpdatedAt:      now,
		SLATargetHours: target,
	}

	if err := s.repo.CreateIncident(ctx, incident); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}

	incidentsCreatedTotal.WithLabelValues(string(incident.Severity)).Inc()

	return incident, nil
}

// Get retrieves an incident by ID.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Incident, error) {
	return s.repo.GetIncident(ctx, id)
}

// Update applies a full field update together with a status transition.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (*domain.Incident, error) {
	if violations := ValidateFields(Fields{
		Title:    input.Title,
		Severity: input.Severity,
		Status:   input.Status,
		Category: input.Category,
	}); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	return s.transition(ctx, id, input.Status, func(incident *domain.Incident) {
		incident.Title = strings.TrimSpace(input.Title)
		incident.Description = input.Description
		incident.Category = input.Category
		incident.Severity = input.Severity
		incident.AssignedTo = input.AssignedTo
		incident.DowntimeMinutes = input.DowntimeMinutes
		incident.RootCause = input.RootCause
		incident.Resolution = input.Resolution
		if input.SLATargetHours > 0 {
			incident.SLATargetHours = input.SLATargetHours
		}
	})
}

// SetStatus changes only the status of an incident, with the same
// resolved-detection and stamping as a full update.
func (s *Service) SetStatus(ctx context.Context, id int64, status domain.Status) (*domain.Incident, error) {
	if !status.IsValid() {
		return nil, &ValidationError{Violations: []string{"invalid status"}}
	}
	return s.transition(ctx, id, status, nil)
}

// transition applies a status change plus optional field edits as one atomic
// read-modify-write. The row stays locked for the duration of the
// transaction, so concurrent transitions on the same incident serialize
// instead of losing updates.
//
// The resolution timestamp and breach flag are stamped only when the status
// moves from a non-resolved into a resolved state. A later transition between
// resolved states, or a reopen, leaves both untouched.
func (s *Service) transition(ctx context.Context, id int64, newStatus domain.Status, apply func(*domain.Incident)) (*domain.Incident, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	incident, err := s.repo.GetIncidentForUpdateTx(ctx, tx, id)
	if err != nil {
		return nil, fmt.Errorf("get incident: %w", err)
	}

	now := s.clock()
	enteringResolved := newStatus.IsResolved() && !incident.Status.IsResolved()

	if enteringResolved {
		// The breach flag is judged against the target stored on the row; a
		// target edited in the same request only affects future evaluation.
		resolvedAt := now
		incident.ResolvedAt = &resolvedAt
		incident.SLABreached = incident.BreachesSLA(now)
	}

	if apply != nil {
		apply(incident)
	}
	incident.Status = newStatus
	incident.UpdatedAt = now

	if err := s.repo.UpdateIncidentTx(ctx, tx, incident); err != nil {
		return nil, fmt.Errorf("update incident: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if enteringResolved {
		incidentsResolvedTotal.WithLabelValues(string(incident.Severity)).Inc()
		if incident.SLABreached {
			slaBreachesTotal.Inc()
		}
	}

	return incident, nil
}

// List retrieves incidents ordered by creation time, newest first. Empty or
// invalid enum filter values are ignored rather than treated as errors; all
// supplied valid filters are ANDed.
func (s *Service) List(ctx context.Context, status, severity, search string) ([]*domain.Incident, error) {
	filters := ListFilters{Search: search}

	if st := domain.Status(status); status != "" && st.IsValid() {
		filters.Status = &st
	}
	if sev := domain.Severity(severity); severity != "" && sev.IsValid() {
		filters.Severity = &sev
	}

	return s.repo.ListIncidents(ctx, filters)
}

// Stats is the dashboard aggregate over the full incident set.
type Stats struct {
	Total            int                `json:"total"`
	Open             int                `json:"open"`
	InProgress       int                `json:"in_progress"`
	Resolved         int                `json:"resolved"`
	Critical         int                `json:"critical"`
	SLABreached      int                `json:"sla_breached"`
	SLACompliancePct float64            `json:"sla_compliance_pct"`
	Recent           []*domain.Incident `json:"recent"`
	ByCategory       []CategoryCount    `json:"by_category"`
	BySeverity       []SeverityCount    `json:"by_severity"`
}

// Stats computes the dashboard aggregate at request time.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	raw, err := s.repo.GetStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("get stats: %w", err)
	}

	compliance := 100.0
	if raw.Total > 0 {
		compliance = math.Round((1-float64(raw.SLABreached)/float64(raw.Total))*1000) / 10
	}

	return &Stats{
		Total:            raw.Total,
		Open:             raw.Open,
		InProgress:       raw.InProgress,
		Resolved:         raw.Resolved,
		Critical:         raw.Critical,
		SLABreached:      raw.SLABreached,
		SLACompliancePct: compliance,
		Recent:           raw.Recent,
		ByCategory:       raw.ByCategory,
		BySeverity:       raw.BySeverity,
	}, nil
}
