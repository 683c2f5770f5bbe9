package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyansh2708-git/samadhan/internal/domain"
)

func TestStatusProgressionIndex(t *testing.T) {
	tests := []struct {
		status domain.IssueStatus
		index  int
	}{
		{domain.StatusSubmitted, 0},
		{domain.StatusAcknowledged, 1},
		{domain.StatusAssigned, 2},
		{domain.StatusInProgress, 3},
		{domain.StatusResolved, 4},
		{domain.StatusClosed, 5},
		{domain.IssueStatus("Bogus"), -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.index, tt.status.ProgressionIndex(), string(tt.status))
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.True(t, domain.StatusResolved.Terminal())
	assert.True(t, domain.StatusClosed.Terminal())
	assert.False(t, domain.StatusSubmitted.Terminal())
	assert.False(t, domain.StatusInProgress.Terminal())
}

func TestPriorityRankOrdering(t *testing.T) {
	assert.Greater(t, domain.PriorityCritical.Rank(), domain.PriorityHigh.Rank())
	assert.Greater(t, domain.PriorityHigh.Rank(), domain.PriorityMedium.Rank())
	assert.Greater(t, domain.PriorityMedium.Rank(), domain.PriorityLow.Rank())
	assert.False(t, domain.IssuePriority("Urgent").Valid())
}

func TestSLATableDeadline(t *testing.T) {
	table := domain.DefaultSLATable()
	createdAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.Equal(t, createdAt.Add(4*time.Hour), table.Deadline(createdAt, domain.PriorityCritical))
	assert.Equal(t, createdAt.Add(24*time.Hour), table.Deadline(createdAt, domain.PriorityHigh))
	assert.Equal(t, createdAt.Add(72*time.Hour), table.Deadline(createdAt, domain.PriorityMedium))
	assert.Equal(t, createdAt.Add(168*time.Hour), table.Deadline(createdAt, domain.PriorityLow))
}

func TestSLATableValidate(t *testing.T) {
	require.NoError(t, domain.DefaultSLATable().Validate())

	misordered := domain.SLATable{
		domain.PriorityCritical: 48 * time.Hour,
		domain.PriorityHigh:     24 * time.Hour,
		domain.PriorityMedium:   72 * time.Hour,
		domain.PriorityLow:      168 * time.Hour,
	}
	assert.Error(t, misordered.Validate())

	missing := domain.SLATable{
		domain.PriorityCritical: 4 * time.Hour,
	}
	assert.Error(t, missing.Validate())
}

func TestIssueCloneIsDeep(t *testing.T) {
	assignee := "Road Maintenance Team"
	lat := 28.61
	issue := &domain.Issue{
		ID:       "CR-2024-001",
		Assignee: &assignee,
		Location: domain.Location{Address: "MG Road", Latitude: &lat},
		Tags:     []string{"road"},
	}

	clone := issue.Clone()
	*clone.Assignee = "Parks Department"
	*clone.Location.Latitude = 0
	clone.Tags[0] = "water"

	assert.Equal(t, "Road Maintenance Team", *issue.Assignee)
	assert.Equal(t, 28.61, *issue.Location.Latitude)
	assert.Equal(t, "road", issue.Tags[0])
}
