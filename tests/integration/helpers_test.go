//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/bissquit/incident-desk/internal/domain"
	"github.com/bissquit/incident-desk/internal/testutil"
	"github.com/stretchr/testify/require"
)

type incidentEnvelope struct {
	Data domain.Incident `json:"data"`
}

type errorEnvelope struct {
	Error struct {
		Message string   `json:"message"`
		Details []string `json:"details"`
	} `json:"error"`
}

func fmtIncidentPath(id int64) string {
	return fmt.Sprintf("/api/v1/incidents/%d", id)
}

type incidentOption func(map[string]interface{})

func withSeverity(severity string) incidentOption {
	return func(m map[string]interface{}) {
		m["severity"] = severity
	}
}

func withCategory(category string) incidentOption {
	return func(m map[string]interface{}) {
		m["category"] = category
	}
}

func withSLATarget(hours int) incidentOption {
	return func(m map[string]interface{}) {
		m["sla_target_hours"] = hours
	}
}

// createTestIncident creates an incident and returns it.
func createTestIncident(t *testing.T, client *testutil.Client, title string, opts ...incidentOption) domain.Incident {
	t.Helper()

	payload := map[string]interface{}{
		"title":       title,
		"category":    "Software",
		"severity":    "Medium",
		"reported_by": "integration",
	}
	for _, opt := range opts {
		opt(payload)
	}

	resp, err := client.POST("/api/v1/incidents", payload)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result incidentEnvelope
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

// getIncident fetches an incident by id.
func getIncident(t *testing.T, client *testutil.Client, id int64) domain.Incident {
	t.Helper()

	resp, err := client.GET(fmtIncidentPath(id))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result incidentEnvelope
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}

// setIncidentStatus transitions an incident and returns the updated incident.
func setIncidentStatus(t *testing.T, client *testutil.Client, id int64, status string) domain.Incident {
	t.Helper()

	resp, err := client.PATCH(fmtIncidentPath(id)+"/status", map[string]string{"status": status})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result incidentEnvelope
	testutil.DecodeJSON(t, resp, &result)
	return result.Data
}
