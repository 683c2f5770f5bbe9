package dto

import (
	"time"

	"github.com/shreyansh2708-git/samadhan/internal/domain"
)

// CreateIssueRequest is the citizen submission payload.
type CreateIssueRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority,omitempty"`
	Severity    int      `json:"severity"`
	Address     string   `json:"address"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// UpdateIssueRequest carries detail edits.
type UpdateIssueRequest struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Address     *string  `json:"address,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// TransitionRequest moves an issue's status.
type TransitionRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment,omitempty"`
}

// ReopenRequest reopens a resolved or closed issue.
type ReopenRequest struct {
	Reason string `json:"reason"`
}

// PriorityRequest changes priority.
type PriorityRequest struct {
	Priority string `json:"priority"`
}

// AssignRequest sets the responsible department or team.
type AssignRequest struct {
	Assignee string `json:"assignee"`
}

// IssueResponse is the read model returned to all views.
type IssueResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Priority    string     `json:"priority"`
	Severity    int        `json:"severity"`
	Status      string     `json:"status"`
	StatusIndex int        `json:"status_index"`
	Reporter    string     `json:"reporter"`
	Assignee    *string    `json:"assignee,omitempty"`
	Address     string     `json:"address"`
	Latitude    *float64   `json:"latitude,omitempty"`
	Longitude   *float64   `json:"longitude,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	SLADeadline time.Time  `json:"sla_deadline"`
	Escalated   bool       `json:"escalated"`
}

// IssueHistoryResponse is one audit trail entry.
type IssueHistoryResponse struct {
	ID         string         `json:"id"`
	ChangeType string         `json:"change_type"`
	ActorID    *string        `json:"actor_id,omitempty"`
	ActorRole  string         `json:"actor_role"`
	OldValue   map[string]any `json:"old_value,omitempty"`
	NewValue   map[string]any `json:"new_value,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// StatsResponse tallies the collection for dashboards.
type StatsResponse struct {
	Total      int            `json:"total"`
	Escalated  int            `json:"escalated"`
	ByStatus   map[string]int `json:"by_status"`
	ByPriority map[string]int `json:"by_priority"`
}

// FromIssue maps the domain aggregate onto the read model.
func FromIssue(issue *domain.Issue) IssueResponse {
	return IssueResponse{
		ID:          issue.ID,
		Title:       issue.Title,
		Description: issue.Description,
		Category:    issue.Category,
		Priority:    string(issue.Priority),
		Severity:    issue.Severity,
		Status:      string(issue.Status),
		StatusIndex: issue.Status.ProgressionIndex(),
		Reporter:    issue.Reporter,
		Assignee:    issue.Assignee,
		Address:     issue.Location.Address,
		Latitude:    issue.Location.Latitude,
		Longitude:   issue.Location.Longitude,
		Tags:        issue.Tags,
		CreatedAt:   issue.CreatedAt,
		UpdatedAt:   issue.UpdatedAt,
		SLADeadline: issue.SLADeadline,
		Escalated:   issue.Escalated,
	}
}

// FromHistory maps audit entries onto the read model.
func FromHistory(entries []domain.IssueHistory) []IssueHistoryResponse {
	resp := make([]IssueHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, IssueHistoryResponse{
			ID:         entry.ID,
			ChangeType: string(entry.ChangeType),
			ActorID:    entry.ActorID,
			ActorRole:  string(entry.ActorRole),
			OldValue:   entry.OldValue,
			NewValue:   entry.NewValue,
			Reason:     entry.Reason,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return resp
}
