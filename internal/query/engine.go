// Package query evaluates filter/sort/search specifications over an issue
// snapshot. Every list view, citizen or admin, goes through Evaluate so the
// dashboards cannot drift apart.
package query

import (
	"sort"
	"strings"

	"github.com/shreyansh2708-git/samadhan/internal/domain"
)

// SortKey selects the ordering of results.
type SortKey string

const (
	SortNewest   SortKey = "newest"
	SortOldest   SortKey = "oldest"
	SortPriority SortKey = "priority"
	SortStatus   SortKey = "status"
)

// ScopeAll widens owner scope to every reporter. Only admins may use it.
const ScopeAll = "all"

// Spec describes one list request. Zero values and "all" disable a filter.
type Spec struct {
	Status   string
	Priority string
	Category string
	Search   string
	Sort     SortKey
	Owner    string
}

// Evaluate filters and orders the snapshot. Filters are conjunctive; an
// issue passes only if it satisfies scope, status, priority, category and
// search together. The input slice is not modified.
func Evaluate(issues []domain.Issue, spec Spec) []domain.Issue {
	result := make([]domain.Issue, 0, len(issues))
	for _, issue := range issues {
		if matches(issue, spec) {
			result = append(result, issue)
		}
	}
	sortIssues(result, spec.Sort)
	return result
}

// Summary tallies a snapshot for dashboard headers.
type Summary struct {
	Total      int
	Escalated  int
	ByStatus   map[domain.IssueStatus]int
	ByPriority map[domain.IssuePriority]int
}

// Tally counts issues by status and priority.
func Tally(issues []domain.Issue) Summary {
	summary := Summary{
		ByStatus:   make(map[domain.IssueStatus]int),
		ByPriority: make(map[domain.IssuePriority]int),
	}
	for _, issue := range issues {
		summary.Total++
		if issue.Escalated {
			summary.Escalated++
		}
		summary.ByStatus[issue.Status]++
		summary.ByPriority[issue.Priority]++
	}
	return summary
}

func matches(issue domain.Issue, spec Spec) bool {
	if !filterDisabled(spec.Owner) && issue.Reporter != spec.Owner {
		return false
	}
	if !filterDisabled(spec.Status) && !strings.EqualFold(string(issue.Status), spec.Status) {
		return false
	}
	if !filterDisabled(spec.Priority) && !strings.EqualFold(string(issue.Priority), spec.Priority) {
		return false
	}
	if !filterDisabled(spec.Category) && !strings.EqualFold(issue.Category, spec.Category) {
		return false
	}
	return matchesSearch(issue, spec.Search)
}

func filterDisabled(value string) bool {
	return value == "" || strings.EqualFold(value, ScopeAll)
}

// matchesSearch matches the term case-insensitively as a substring against
// title, id, location and reporter; any single hit passes.
func matchesSearch(issue domain.Issue, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	fields := []string{
		issue.Title,
		issue.ID,
		issue.Location.Address,
		issue.Reporter,
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// sortIssues orders results deterministically. Stable sort keeps equal
// elements in input order, so identical snapshots always produce identical
// output.
func sortIssues(issues []domain.Issue, key SortKey) {
	switch key {
	case SortOldest:
		sort.SliceStable(issues, func(i, j int) bool {
			return issues[i].CreatedAt.Before(issues[j].CreatedAt)
		})
	case SortPriority:
		sort.SliceStable(issues, func(i, j int) bool {
			ri, rj := issues[i].Priority.Rank(), issues[j].Priority.Rank()
			if ri != rj {
				return ri > rj
			}
			return issues[i].CreatedAt.Before(issues[j].CreatedAt)
		})
	case SortStatus:
		sort.SliceStable(issues, func(i, j int) bool {
			return issues[i].Status.ProgressionIndex() < issues[j].Status.ProgressionIndex()
		})
	default: // SortNewest
		sort.SliceStable(issues, func(i, j int) bool {
			return issues[i].CreatedAt.After(issues[j].CreatedAt)
		})
	}
}
