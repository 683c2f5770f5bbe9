package events

import (
	"time"

	"github.com/shreyansh2708-git/samadhan/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated         EventType = "issue_created"
	EventIssueStatusChanged   EventType = "issue_status_changed"
	EventIssuePriorityChanged EventType = "issue_priority_changed"
	EventIssueAssigned        EventType = "issue_assigned"
	EventIssueReopened        EventType = "issue_reopened"
	EventIssueEscalated       EventType = "issue_escalated"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID *string     `json:"user_id,omitempty"`
	Role   domain.Role `json:"role"`
	System bool        `json:"system,omitempty"`
}

// SystemActor marks events raised by background processes.
func SystemActor() Actor {
	return Actor{System: true}
}

// UserActor marks events raised by an authenticated caller.
func UserActor(userID string, role domain.Role) Actor {
	return Actor{UserID: &userID, Role: role}
}

// Event represents a domain event emitted by services. Each event is emitted
// at most once per distinct cause.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	Title    string               `json:"title"`
	Category string               `json:"category"`
	Priority domain.IssuePriority `json:"priority"`
	Severity int                  `json:"severity"`
}

// IssueStatusChangedPayload payload.
type IssueStatusChangedPayload struct {
	OldStatus domain.IssueStatus `json:"old_status"`
	NewStatus domain.IssueStatus `json:"new_status"`
	Comment   string             `json:"comment,omitempty"`
}

// IssuePriorityChangedPayload payload.
type IssuePriorityChangedPayload struct {
	OldPriority domain.IssuePriority `json:"old_priority"`
	NewPriority domain.IssuePriority `json:"new_priority"`
	SLADeadline time.Time            `json:"sla_deadline"`
}

// IssueAssignedPayload payload.
type IssueAssignedPayload struct {
	Assignee string `json:"assignee"`
}

// IssueReopenedPayload payload.
type IssueReopenedPayload struct {
	FromStatus domain.IssueStatus `json:"from_status"`
	Reason     string             `json:"reason"`
}

// IssueEscalatedPayload payload.
type IssueEscalatedPayload struct {
	Priority              domain.IssuePriority `json:"priority"`
	BreachDurationSeconds int64                `json:"breach_duration_seconds"`
}
