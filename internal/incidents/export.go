package incidents

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bissquit/incident-desk/internal/domain"
)

// exportTimeFormat matches the second-granularity storage format.
const exportTimeFormat = "2006-01-02 15:04:05"

// ExportHeader is the fixed column order of the tabular export.
var ExportHeader = []string{
	"ID", "Title", "Description", "Category", "Severity", "Status",
	"Reported By", "Assigned To", "Created At", "Updated At",
	"Resolved At", "Downtime (min)", "Root Cause", "Resolution",
	"SLA Target (hrs)", "SLA Breached",
}

// ExportRows returns the header plus one row per incident, ordered the same
// as an unfiltered listing. The caller owns encoding, file naming and
// transport.
func (s *Service) ExportRows(ctx context.Context) ([][]string, error) {
	list, err := s.repo.ListIncidents(ctx, ListFilters{})
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}

	rows := make([][]string, 0, len(list)+1)
	rows = append(rows, ExportHeader)
	for _, incident := range list {
		rows = append(rows, exportRow(incident))
	}
	return rows, nil
}

func exportRow(incident *domain.Incident) []string {
	resolvedAt := ""
	if incident.ResolvedAt != nil {
		resolvedAt = incident.ResolvedAt.Format(exportTimeFormat)
	}

	breached := "No"
	if incident.SLABreached {
		breached = "Yes"
	}

	return []string{
		strconv.FormatInt(incident.ID, 10),
		incident.Title,
		incident.Description,
		string(incident.Category),
		string(incident.Severity),
		string(incident.Status),
		incident.ReportedBy,
		incident.AssignedTo,
		incident.CreatedAt.Format(exportTimeFormat),
		incident.UpdatedAt.Format(exportTimeFormat),
		resolvedAt,
		strconv.Itoa(incident.DowntimeMinutes),
		incident.RootCause,
		incident.Resolution,
		strconv.Itoa(incident.SLATargetHours),
		breached,
	}
}
