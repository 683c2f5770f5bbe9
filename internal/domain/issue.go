package domain

import "time"

// IssueStatus enumerates lifecycle states for civic issues. The declaration
// order is the canonical progression used for transition validation and for
// the progress display in clients.
type IssueStatus string

const (
	StatusSubmitted    IssueStatus = "Submitted"
	StatusAcknowledged IssueStatus = "Acknowledged"
	StatusAssigned     IssueStatus = "Assigned"
	StatusInProgress   IssueStatus = "In Progress"
	StatusResolved     IssueStatus = "Resolved"
	StatusClosed       IssueStatus = "Closed"
)

// StatusProgression is the canonical lifecycle sequence.
var StatusProgression = []IssueStatus{
	StatusSubmitted,
	StatusAcknowledged,
	StatusAssigned,
	StatusInProgress,
	StatusResolved,
	StatusClosed,
}

// ProgressionIndex returns the ordinal position of the status in the
// canonical sequence, or -1 for unknown values.
func (s IssueStatus) ProgressionIndex() int {
	for i, candidate := range StatusProgression {
		if candidate == s {
			return i
		}
	}
	return -1
}

// Valid reports whether the status is a known lifecycle state.
func (s IssueStatus) Valid() bool {
	return s.ProgressionIndex() >= 0
}

// Terminal reports whether the status ends SLA tracking.
func (s IssueStatus) Terminal() bool {
	return s == StatusResolved || s == StatusClosed
}

// IssuePriority enumerates SLA urgency with a strict total order
// Critical > High > Medium > Low.
type IssuePriority string

const (
	PriorityCritical IssuePriority = "Critical"
	PriorityHigh     IssuePriority = "High"
	PriorityMedium   IssuePriority = "Medium"
	PriorityLow      IssuePriority = "Low"
)

// Rank returns the urgency rank; higher means more urgent. Unknown
// priorities rank below Low.
func (p IssuePriority) Rank() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether the priority is a known value.
func (p IssuePriority) Valid() bool {
	return p.Rank() > 0
}

// Categories is the fixed set of report categories.
var Categories = []string{
	"Pothole",
	"Garbage Collection",
	"Street Light",
	"Sewer Issue",
	"Road Maintenance",
	"Public Safety",
	"Parks & Recreation",
	"Traffic Signal",
	"Other",
}

// ValidCategory reports whether the category is in the fixed set.
func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Severity bounds for citizen-supplied severity.
const (
	SeverityMin = 1
	SeverityMax = 5
)

// Location holds a free-text address and an optional coordinate pair.
type Location struct {
	Address   string
	Latitude  *float64
	Longitude *float64
}

// Issue is the aggregate for reported civic problems. Issues are never
// physically deleted; Closed is the terminal state, retained for audit.
type Issue struct {
	ID          string
	Title       string
	Description string
	Category    string
	Priority    IssuePriority
	Severity    int
	Status      IssueStatus
	Reporter    string
	Assignee    *string
	Location    Location
	Tags        []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	SLADeadline time.Time
	Escalated   bool
}

// Clone returns a deep copy, used by the store for snapshot isolation.
func (i *Issue) Clone() *Issue {
	cp := *i
	if i.Assignee != nil {
		assignee := *i.Assignee
		cp.Assignee = &assignee
	}
	if i.Location.Latitude != nil {
		lat := *i.Location.Latitude
		cp.Location.Latitude = &lat
	}
	if i.Location.Longitude != nil {
		lng := *i.Location.Longitude
		cp.Location.Longitude = &lng
	}
	if i.Tags != nil {
		cp.Tags = append([]string(nil), i.Tags...)
	}
	return &cp
}
