// Package domain contains the incident entity and the rules that govern it.
package domain

import "time"

// Status represents the lifecycle state of an incident.
type Status string

// Incident statuses.
const (
	StatusOpen       Status = "Open"
	StatusInProgress Status = "In Progress"
	StatusPending    Status = "Pending"
	StatusResolved   Status = "Resolved"
	StatusClosed     Status = "Closed"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusOpen, StatusInProgress, StatusPending, StatusResolved, StatusClosed}

// Severity represents the severity level of an incident.
type Severity string

// Severity levels.
const (
	SeverityLow      Severity = "Low"
	SeverityMedium   Severity = "Medium"
	SeverityHigh     Severity = "High"
	SeverityCritical Severity = "Critical"
)

// Severities lists every severity in ascending order.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Category classifies the affected area of an incident.
type Category string

// Incident categories.
const (
	CategoryHardware    Category = "Hardware"
	CategorySoftware    Category = "Software"
	CategoryNetwork     Category = "Network"
	CategorySecurity    Category = "Security"
	CategoryDatabase    Category = "Database"
	CategoryApplication Category = "Application"
	CategoryOther       Category = "Other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryHardware,
	CategorySoftware,
	CategoryNetwork,
	CategorySecurity,
	CategoryDatabase,
	CategoryApplication,
	CategoryOther,
}

// IsValid checks if the status is a member of the status enumeration.
func (s Status) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusPending, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// IsResolved checks if the status represents a resolved state.
// Both Resolved and Closed stop the SLA clock.
func (s Status) IsResolved() bool {
	return s == StatusResolved || s == StatusClosed
}

// IsValid checks if the severity is valid.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// IsValid checks if the category is valid.
func (c Category) IsValid() bool {
	switch c {
	case CategoryHardware, CategorySoftware, CategoryNetwork, CategorySecurity,
		CategoryDatabase, CategoryApplication, CategoryOther:
		return true
	}
	return false
}

// Incident is an operational incident tracked from creation to resolution.
//
// ResolvedAt is stamped on the first transition into a resolved status and is
// never cleared, even if the incident is later reopened. SLABreached is frozen
// at the same moment; later edits and transitions leave it untouched.
type Incident struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Category        Category   `json:"category"`
	Severity        Severity   `json:"severity"`
	Status          Status     `json:"status"`
	ReportedBy      string     `json:"reported_by"`
	AssignedTo      string     `json:"assigned_to"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ResolvedAt      *time.Time `json:"resolved_at"`
	DowntimeMinutes int        `json:"downtime_minutes"`
	RootCause       string     `json:"root_cause"`
	Resolution      string     `json:"resolution"`
	SLATargetHours  int        `json:"sla_target_hours"`
	SLABreached     bool       `json:"sla_breached"`
}
