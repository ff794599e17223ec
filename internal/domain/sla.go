package domain

import "time"

// DefaultSLATargetHours applies when an incident is created without an
// explicit target.
const DefaultSLATargetHours = 24

// WithinSLA reports whether the incident currently meets its SLA target.
//
// Resolved incidents are judged by their stored timestamps, so the answer can
// disagree with the SLABreached flag, which was frozen using the wall clock at
// resolution time. A resolved incident without a resolution timestamp is
// treated as within SLA.
func (i *Incident) WithinSLA(now time.Time) bool {
	if i.Status.IsResolved() {
		if i.ResolvedAt == nil {
			return true
		}
		return i.ResolvedAt.Sub(i.CreatedAt).Hours() <= float64(i.SLATargetHours)
	}
	return now.Sub(i.CreatedAt).Hours() <= float64(i.SLATargetHours)
}

// BreachesSLA reports whether resolving the incident at the given moment
// would exceed its SLA target.
func (i *Incident) BreachesSLA(now time.Time) bool {
	return now.Sub(i.CreatedAt).Hours() > float64(i.SLATargetHours)
}
