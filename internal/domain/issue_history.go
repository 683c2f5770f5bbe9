package domain

import "time"

// IssueChangeType captures what changed in a history entry.
type IssueChangeType string

const (
	ChangeTypeStatus   IssueChangeType = "STATUS_CHANGE"
	ChangeTypePriority IssueChangeType = "PRIORITY_CHANGE"
	ChangeTypeAssignee IssueChangeType = "ASSIGNEE_CHANGE"
	ChangeTypeReopen   IssueChangeType = "REOPEN"
	ChangeTypeDetails  IssueChangeType = "DETAILS_CHANGE"
)

// IssueHistory is an immutable audit trail entry.
type IssueHistory struct {
	ID         string
	IssueID    string
	ActorID    *string
	ActorRole  Role
	ChangeType IssueChangeType
	OldValue   map[string]any
	NewValue   map[string]any
	Reason     string
	CreatedAt  time.Time
}
