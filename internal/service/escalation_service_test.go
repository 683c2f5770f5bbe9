package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyansh2708-git/samadhan/internal/domain"
	"github.com/shreyansh2708-git/samadhan/internal/events"
	"github.com/shreyansh2708-git/samadhan/internal/repository"
	"github.com/shreyansh2708-git/samadhan/internal/service"
)

type escalationFixture struct {
	svc        *service.EscalationService
	issues     repository.IssueRepository
	dispatcher *recordingDispatcher
	now        time.Time
}

func newEscalationFixture(t *testing.T) *escalationFixture {
	t.Helper()
	f := &escalationFixture{
		issues:     repository.NewMemoryIssueRepository(),
		dispatcher: &recordingDispatcher{},
		now:        time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC),
	}
	f.svc = service.NewEscalationService(service.EscalationDependencies{
		IssueRepo:  f.issues,
		Dispatcher: f.dispatcher,
		Clock:      func() time.Time { return f.now },
	})
	return f
}

func (f *escalationFixture) seed(t *testing.T, id string, priority domain.IssuePriority, status domain.IssueStatus, createdAt time.Time, deadline time.Time) {
	t.Helper()
	require.NoError(t, f.issues.Create(context.Background(), &domain.Issue{
		ID:          id,
		Title:       "Issue " + id,
		Description: "seeded",
		Category:    "Pothole",
		Priority:    priority,
		Severity:    3,
		Status:      status,
		Reporter:    "u-1",
		CreatedAt:   createdAt,
		SLADeadline: deadline,
	}))
}

func TestSweepEscalatesBreachedIssueOnce(t *testing.T) {
	f := newEscalationFixture(t)
	created := f.now.Add(-25 * time.Hour)
	// High priority, 24h window: breached one hour ago.
	f.seed(t, "CR-2024-001", domain.PriorityHigh, domain.StatusInProgress, created, created.Add(24*time.Hour))

	count, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	raised := f.dispatcher.byType(events.EventIssueEscalated)
	require.Len(t, raised, 1)
	payload := raised[0].Payload.(events.IssueEscalatedPayload)
	assert.Equal(t, domain.PriorityHigh, payload.Priority)
	assert.Equal(t, int64(3600), payload.BreachDurationSeconds)
	assert.True(t, raised[0].Actor.System)

	// The next tick sees the flag and raises nothing new.
	f.now = f.now.Add(time.Hour)
	count, err = f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Len(t, f.dispatcher.byType(events.EventIssueEscalated), 1)
}

func TestSweepIgnoresIssuesWithinSLA(t *testing.T) {
	f := newEscalationFixture(t)
	f.seed(t, "CR-2024-001", domain.PriorityLow, domain.StatusSubmitted, f.now.Add(-time.Hour), f.now.Add(167*time.Hour))

	count, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, f.dispatcher.byType(events.EventIssueEscalated))
}

func TestSweepNeverEscalatesTerminalIssues(t *testing.T) {
	f := newEscalationFixture(t)
	created := f.now.Add(-200 * time.Hour)
	f.seed(t, "CR-2024-001", domain.PriorityCritical, domain.StatusResolved, created, created.Add(4*time.Hour))
	f.seed(t, "CR-2024-002", domain.PriorityCritical, domain.StatusClosed, created, created.Add(4*time.Hour))

	count, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, f.dispatcher.byType(events.EventIssueEscalated))
}

func TestSweepFallbackWindowForMissingDeadline(t *testing.T) {
	f := newEscalationFixture(t)
	// No computed deadline: the 72h fallback window applies.
	f.seed(t, "CR-2024-001", domain.PriorityMedium, domain.StatusSubmitted, f.now.Add(-73*time.Hour), time.Time{})
	f.seed(t, "CR-2024-002", domain.PriorityMedium, domain.StatusSubmitted, f.now.Add(-71*time.Hour), time.Time{})

	count, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	raised := f.dispatcher.byType(events.EventIssueEscalated)
	require.Len(t, raised, 1)
	assert.Equal(t, "CR-2024-001", raised[0].IssueID)
}

// reprioritizingRepo changes an issue's priority right before the escalated
// flip, standing in for an admin reprioritize racing the sweep.
type reprioritizingRepo struct {
	repository.IssueRepository
	target   string
	priority domain.IssuePriority
}

func (r *reprioritizingRepo) MarkEscalated(ctx context.Context, id string, now time.Time) (bool, error) {
	if id == r.target {
		if issue, err := r.IssueRepository.GetByID(ctx, id); err == nil {
			issue.Priority = r.priority
			_ = r.IssueRepository.Update(ctx, issue, issue.UpdatedAt)
		}
	}
	return r.IssueRepository.MarkEscalated(ctx, id, now)
}

func TestSweepPublishesCommittedPriority(t *testing.T) {
	f := newEscalationFixture(t)
	created := f.now.Add(-25 * time.Hour)
	f.seed(t, "CR-2024-001", domain.PriorityHigh, domain.StatusInProgress, created, created.Add(24*time.Hour))

	wrapped := &reprioritizingRepo{
		IssueRepository: f.issues,
		target:          "CR-2024-001",
		priority:        domain.PriorityCritical,
	}
	svc := service.NewEscalationService(service.EscalationDependencies{
		IssueRepo:  wrapped,
		Dispatcher: f.dispatcher,
		Clock:      func() time.Time { return f.now },
	})

	count, err := svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	raised := f.dispatcher.byType(events.EventIssueEscalated)
	require.Len(t, raised, 1)
	payload := raised[0].Payload.(events.IssueEscalatedPayload)
	assert.Equal(t, domain.PriorityCritical, payload.Priority)
}

func TestSweepMultipleBreaches(t *testing.T) {
	f := newEscalationFixture(t)
	created := f.now.Add(-30 * time.Hour)
	f.seed(t, "CR-2024-001", domain.PriorityCritical, domain.StatusAcknowledged, created, created.Add(4*time.Hour))
	f.seed(t, "CR-2024-002", domain.PriorityHigh, domain.StatusAssigned, created, created.Add(24*time.Hour))
	f.seed(t, "CR-2024-003", domain.PriorityMedium, domain.StatusSubmitted, created, created.Add(72*time.Hour))

	count, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	got, err := f.issues.GetByID(context.Background(), "CR-2024-003")
	require.NoError(t, err)
	assert.False(t, got.Escalated)
}
