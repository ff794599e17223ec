//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/bissquit/incident-desk/internal/domain"
	"github.com/bissquit/incident-desk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncidentCreate_Defaults(t *testing.T) {
	client := newTestClient()

	incident := createTestIncident(t, client, "Printer on fire")

	assert.Positive(t, incident.ID)
	assert.Equal(t, domain.StatusOpen, incident.Status)
	assert.Equal(t, domain.DefaultSLATargetHours, incident.SLATargetHours)
	assert.Nil(t, incident.ResolvedAt)
	assert.False(t, incident.SLABreached)
	assert.Equal(t, incident.CreatedAt, incident.UpdatedAt)
}

func TestIncidentCreate_TrimsTitle(t *testing.T) {
	client := newTestClient()

	incident := createTestIncident(t, client, "   Spaced out title   ")

	assert.Equal(t, "Spaced out title", incident.Title)
}

func TestIncidentCreate_Validation(t *testing.T) {
	client := newTestClient()

	resp, err := client.POST("/api/v1/incidents", map[string]interface{}{
		"title":    "ab",
		"category": "Cloud",
		"severity": "Extreme",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var result errorEnvelope
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, "validation error", result.Error.Message)
	assert.Equal(t, []string{
		"title must be at least 3 characters",
		"invalid severity",
		"invalid category",
	}, result.Error.Details)
}

func TestIncidentGet_NotFound(t *testing.T) {
	client := newTestClient()

	resp, err := client.GET("/api/v1/incidents/999999")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestIncidentResolve_StampsResolution(t *testing.T) {
	client := newTestClient()
	created := createTestIncident(t, client, "Queue backlog growing", withSLATarget(48))

	resolved := setIncidentStatus(t, client, created.ID, "Resolved")

	assert.Equal(t, domain.StatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	assert.False(t, resolved.SLABreached, "resolved immediately, well inside a 48h target")

	// Persisted, not just echoed back.
	stored := getIncident(t, client, created.ID)
	require.NotNil(t, stored.ResolvedAt)
	assert.Equal(t, *resolved.ResolvedAt, *stored.ResolvedAt)
}

func TestIncidentResolve_SecondResolutionKeepsStamp(t *testing.T) {
	client := newTestClient()
	created := createTestIncident(t, client, "Flaky healthcheck")

	first := setIncidentStatus(t, client, created.ID, "Resolved")
	require.NotNil(t, first.ResolvedAt)

	time.Sleep(1100 * time.Millisecond)
	closed := setIncidentStatus(t, client, created.ID, "Closed")

	require.NotNil(t, closed.ResolvedAt)
	assert.Equal(t, *first.ResolvedAt, *closed.ResolvedAt,
		"moving Resolved to Closed must not move the resolution timestamp")
}

func TestIncidentReopen_ResolutionStampIsSticky(t *testing.T) {
	client := newTestClient()
	created := createTestIncident(t, client, "DNS misconfiguration")

	resolved := setIncidentStatus(t, client, created.ID, "Resolved")
	require.NotNil(t, resolved.ResolvedAt)

	reopened := setIncidentStatus(t, client, created.ID, "Open")

	assert.Equal(t, domain.StatusOpen, reopened.Status)
	require.NotNil(t, reopened.ResolvedAt, "reopening must not clear the resolution timestamp")
	assert.Equal(t, *resolved.ResolvedAt, *reopened.ResolvedAt)
}

func TestIncidentBreach_JudgedAgainstStoredTarget(t *testing.T) {
	client := newTestClient()
	created := createTestIncident(t, client, "Cert expiry missed", withSLATarget(1))

	// Backdate creation so the stored one hour target is already blown.
	_, err := testDB.Exec(context.Background(),
		"UPDATE incidents SET created_at = created_at - interval '2 hours' WHERE id = $1", created.ID)
	require.NoError(t, err)

	// The request widens the target while resolving; the breach decision
	// still uses the target that was stored on the row.
	resp, err := newTestClient().PUT(fmtIncidentPath(created.ID), map[string]interface{}{
		"title":            created.Title,
		"category":         "Software",
		"severity":         "Medium",
		"status":           "Resolved",
		"sla_target_hours": 100,
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result incidentEnvelope
	testutil.DecodeJSON(t, resp, &result)
	assert.True(t, result.Data.SLABreached)
	assert.Equal(t, 100, result.Data.SLATargetHours)
}

func TestIncidentUpdate_PreservesReporter(t *testing.T) {
	client := newTestClient()
	created := createTestIncident(t, client, "Stale cache entries")

	resp, err := client.PUT(fmtIncidentPath(created.ID), map[string]interface{}{
		"title":       "Stale cache entries",
		"category":    "Software",
		"severity":    "Low",
		"status":      "In Progress",
		"assigned_to": "dave",
		"reported_by": "mallory",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result incidentEnvelope
	testutil.DecodeJSON(t, resp, &result)
	assert.Equal(t, "integration", result.Data.ReportedBy, "reporter cannot be rewritten")
	assert.Equal(t, "dave", result.Data.AssignedTo)
}

func TestIncidentStatus_Invalid(t *testing.T) {
	client := newTestClient()
	created := createTestIncident(t, client, "Broken webhook")

	resp, err := client.PATCH(fmtIncidentPath(created.ID)+"/status", map[string]string{"status": "Reopened"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestIncidentResponses_AreNotCacheable(t *testing.T) {
	client := newTestClient()

	resp, err := client.GET("/api/v1/incidents")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Contains(t, resp.Header.Get("Cache-Control"), "no-store")
}
