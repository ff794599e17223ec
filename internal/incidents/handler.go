// Package incidents implements the incident lifecycle, SLA evaluation and
// the dashboard read models, together with their HTTP surface.
package incidents

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bissquit/incident-desk/internal/domain"
	"github.com/bissquit/incident-desk/internal/pkg/ctxlog"
	"github.com/bissquit/incident-desk/internal/pkg/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Handler handles HTTP requests for the incidents module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new incidents handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers all HTTP routes for the incidents module.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/incidents", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Patch("/{id}/status", h.UpdateStatus)
	})

	r.Get("/dashboard", h.Dashboard)
	r.Get("/export/csv", h.ExportCSV)
}

// CreateIncidentRequest represents the request body for creating an incident.
// Status is not accepted: new incidents always start Open.
type CreateIncidentRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Category       string `json:"category"`
	Severity       string `json:"severity"`
	ReportedBy     string `json:"reported_by"`
	AssignedTo     string `json:"assigned_to"`
	SLATargetHours int    `json:"sla_target_hours" validate:"omitempty,min=1"`
}

// UpdateIncidentRequest represents the request body for a full update.
type UpdateIncidentRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Category        string `json:"category"`
	Severity        string `json:"severity"`
	Status          string `json:"status"`
	AssignedTo      string `json:"assigned_to"`
	DowntimeMinutes int    `json:"downtime_minutes" validate:"min=0"`
	RootCause       string `json:"root_cause"`
	Resolution      string `json:"resolution"`
	SLATargetHours  int    `json:"sla_target_hours" validate:"omitempty,min=1"`
}

// UpdateStatusRequest represents the request body for a status-only change.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// IncidentResponse wraps an incident with its live SLA evaluation. WithinSLA
// is recomputed from the stored timestamps on every read and may disagree
// with the persisted breach flag.
type IncidentResponse struct {
	*domain.Incident
	WithinSLA bool `json:"within_sla"`
}

// Create handles POST /incidents.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.Create(r.Context(), CreateInput{
		Title:          req.Title,
		Description:    req.Description,
		Category:       domain.Category(req.Category),
		Severity:       domain.Severity(req.Severity),
		ReportedBy:     req.ReportedBy,
		AssignedTo:     req.AssignedTo,
		SLATargetHours: req.SLATargetHours,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusCreated, incident)
}

// Get handles GET /incidents/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.incidentID(w, r)
	if !ok {
		return
	}

	incident, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, IncidentResponse{
		Incident:  incident,
		WithinSLA: incident.WithinSLA(time.Now()),
	})
}

// List handles GET /incidents with optional status, severity and search
// query parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	list, err := h.service.List(r.Context(), q.Get("status"), q.Get("severity"), q.Get("search"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, list)
}

// Update handles PUT /incidents/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.incidentID(w, r)
	if !ok {
		return
	}

	var req UpdateIncidentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		httputil.ValidationError(w, err)
		return
	}

	incident, err := h.service.Update(r.Context(), id, UpdateInput{
		Title:           req.Title,
		Description:     req.Description,
		Category:        domain.Category(req.Category),
		Severity:        domain.Severity(req.Severity),
		Status:          domain.Status(req.Status),
		AssignedTo:      req.AssignedTo,
		DowntimeMinutes: req.DowntimeMinutes,
		RootCause:       req.RootCause,
		Resolution:      req.Resolution,
		SLATargetHours:  req.SLATargetHours,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// UpdateStatus handles PATCH /incidents/{id}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.incidentID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return
	}

	incident, err := h.service.SetStatus(r.Context(), id, domain.Status(req.Status))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, incident)
}

// Dashboard handles GET /dashboard.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.Success(w, http.StatusOK, stats)
}

// ExportCSV handles GET /export/csv. The core produces plain rows; filename
// and transport headers are decided here.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.ExportRows(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	filename := fmt.Sprintf("incidents_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment;filename="+filename)

	writer := csv.NewWriter(w)
	if err := writer.WriteAll(rows); err != nil {
		ctxlog.FromContext(r.Context()).Error("failed to write csv export", "error", err)
	}
}

// incidentID parses the id path parameter, writing a 400 response on failure.
func (h *Handler) incidentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httputil.Error(w, http.StatusBadRequest, "invalid incident id")
		return 0, false
	}
	return id, true
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		httputil.ErrorDetails(w, http.StatusBadRequest, "validation error", verr.Violations)
		return
	}

	httputil.HandleError(r.Context(), w, err, []httputil.ErrorMapping{
		{Error: ErrIncidentNotFound, Status: http.StatusNotFound},
	})
}
