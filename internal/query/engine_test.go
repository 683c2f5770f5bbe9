package query_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyansh2708-git/samadhan/internal/domain"
	"github.com/shreyansh2708-git/samadhan/internal/query"
)

func issueAt(id string, reporter string, status domain.IssueStatus, priority domain.IssuePriority, category string, createdAt time.Time) domain.Issue {
	return domain.Issue{
		ID:        id,
		Title:     "Issue " + id,
		Reporter:  reporter,
		Status:    status,
		Priority:  priority,
		Category:  category,
		CreatedAt: createdAt,
		Location:  domain.Location{Address: "Main Street"},
	}
}

func TestEvaluateConjunctiveFilters(t *testing.T) {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	issues := []domain.Issue{
		issueAt("CR-2024-001", "u-1", domain.StatusSubmitted, domain.PriorityHigh, "Pothole", base),
		issueAt("CR-2024-002", "u-1", domain.StatusResolved, domain.PriorityHigh, "Pothole", base.Add(time.Hour)),
		issueAt("CR-2024-003", "u-2", domain.StatusSubmitted, domain.PriorityHigh, "Pothole", base.Add(2*time.Hour)),
		issueAt("CR-2024-004", "u-1", domain.StatusSubmitted, domain.PriorityLow, "Street Light", base.Add(3*time.Hour)),
	}

	got := query.Evaluate(issues, query.Spec{
		Owner:    "u-1",
		Status:   "Submitted",
		Priority: "High",
		Category: "Pothole",
	})
	require.Len(t, got, 1)
	assert.Equal(t, "CR-2024-001", got[0].ID)
}

func TestEvaluateAllDisablesFilter(t *testing.T) {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	issues := []domain.Issue{
		issueAt("CR-2024-001", "u-1", domain.StatusSubmitted, domain.PriorityHigh, "Pothole", base),
		issueAt("CR-2024-002", "u-2", domain.StatusResolved, domain.PriorityLow, "Other", base.Add(time.Hour)),
	}
	got := query.Evaluate(issues, query.Spec{Owner: "all", Status: "all", Priority: "all", Category: "all"})
	assert.Len(t, got, 2)
}

func TestEvaluateSearchMatchesAnyField(t *testing.T) {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	issues := []domain.Issue{
		{ID: "CR-2024-001", Title: "Large pothole", Reporter: "u-1", Location: domain.Location{Address: "MG Road"}, CreatedAt: base},
		{ID: "CR-2024-002", Title: "Broken light", Reporter: "rakesh", Location: domain.Location{Address: "Park Lane"}, CreatedAt: base.Add(time.Hour)},
		{ID: "CR-2024-003", Title: "Overflowing bin", Reporter: "u-3", Location: domain.Location{Address: "Station Square"}, CreatedAt: base.Add(2 * time.Hour)},
	}

	tests := []struct {
		term string
		want []string
	}{
		{"POTHOLE", []string{"CR-2024-001"}},          // title, case-insensitive
		{"cr-2024-002", []string{"CR-2024-002"}},      // id
		{"mg road", []string{"CR-2024-001"}},          // location
		{"rakesh", []string{"CR-2024-002"}},           // reporter
		{"nothing-matches", []string{}},               // empty result is valid
	}
	for _, tt := range tests {
		got := query.Evaluate(issues, query.Spec{Search: tt.term, Sort: query.SortOldest})
		ids := make([]string, 0, len(got))
		for _, issue := range got {
			ids = append(ids, issue.ID)
		}
		assert.Equal(t, tt.want, ids, tt.term)
	}
}

func TestEvaluateSortPriorityWithCreatedAtTieBreak(t *testing.T) {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	issues := []domain.Issue{
		issueAt("medium", "u-1", domain.StatusSubmitted, domain.PriorityMedium, "Other", base),
		issueAt("critical-early", "u-1", domain.StatusSubmitted, domain.PriorityCritical, "Other", base.Add(time.Hour)),
		issueAt("high", "u-1", domain.StatusSubmitted, domain.PriorityHigh, "Other", base.Add(2*time.Hour)),
		issueAt("critical-late", "u-1", domain.StatusSubmitted, domain.PriorityCritical, "Other", base.Add(3*time.Hour)),
	}

	got := query.Evaluate(issues, query.Spec{Sort: query.SortPriority})
	require.Len(t, got, 4)
	assert.Equal(t, "critical-early", got[0].ID)
	assert.Equal(t, "critical-late", got[1].ID)
	assert.Equal(t, "high", got[2].ID)
	assert.Equal(t, "medium", got[3].ID)
}

func TestEvaluateSortNewestOldestStatus(t *testing.T) {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	issues := []domain.Issue{
		issueAt("a", "u-1", domain.StatusResolved, domain.PriorityLow, "Other", base),
		issueAt("b", "u-1", domain.StatusSubmitted, domain.PriorityLow, "Other", base.Add(time.Hour)),
		issueAt("c", "u-1", domain.StatusInProgress, domain.PriorityLow, "Other", base.Add(2*time.Hour)),
	}

	newest := query.Evaluate(issues, query.Spec{Sort: query.SortNewest})
	assert.Equal(t, []string{"c", "b", "a"}, ids(newest))

	oldest := query.Evaluate(issues, query.Spec{Sort: query.SortOldest})
	assert.Equal(t, []string{"a", "b", "c"}, ids(oldest))

	byStatus := query.Evaluate(issues, query.Spec{Sort: query.SortStatus})
	assert.Equal(t, []string{"b", "c", "a"}, ids(byStatus))
}

func TestEvaluateDeterministic(t *testing.T) {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	issues := []domain.Issue{
		issueAt("a", "u-1", domain.StatusSubmitted, domain.PriorityHigh, "Other", base),
		issueAt("b", "u-1", domain.StatusSubmitted, domain.PriorityHigh, "Other", base),
		issueAt("c", "u-1", domain.StatusSubmitted, domain.PriorityHigh, "Other", base),
	}
	spec := query.Spec{Sort: query.SortPriority}

	first := query.Evaluate(issues, spec)
	for i := 0; i < 10; i++ {
		assert.Equal(t, ids(first), ids(query.Evaluate(issues, spec)))
	}
}

func TestEvaluateScopeExcludesOtherOwners(t *testing.T) {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	issues := []domain.Issue{
		issueAt("mine", "u-1", domain.StatusSubmitted, domain.PriorityHigh, "Other", base),
		issueAt("theirs", "u-2", domain.StatusSubmitted, domain.PriorityHigh, "Other", base),
	}

	got := query.Evaluate(issues, query.Spec{Owner: "u-2"})
	require.Len(t, got, 1)
	assert.Equal(t, "theirs", got[0].ID)
	for _, issue := range got {
		assert.NotEqual(t, "u-1", issue.Reporter)
	}
}

func TestTally(t *testing.T) {
	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	issues := []domain.Issue{
		issueAt("a", "u-1", domain.StatusSubmitted, domain.PriorityHigh, "Other", base),
		issueAt("b", "u-1", domain.StatusSubmitted, domain.PriorityLow, "Other", base),
		issueAt("c", "u-2", domain.StatusResolved, domain.PriorityHigh, "Other", base),
	}
	issues[2].Escalated = true

	summary := query.Tally(issues)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Escalated)
	assert.Equal(t, 2, summary.ByStatus[domain.StatusSubmitted])
	assert.Equal(t, 1, summary.ByStatus[domain.StatusResolved])
	assert.Equal(t, 2, summary.ByPriority[domain.PriorityHigh])
}

func ids(issues []domain.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.ID)
	}
	return out
}
