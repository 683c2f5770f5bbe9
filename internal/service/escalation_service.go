package service

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shreyansh2708-git/samadhan/internal/domain"
	"github.com/shreyansh2708-git/samadhan/internal/events"
	"github.com/shreyansh2708-git/samadhan/internal/repository"
)

// EscalationService scans for SLA breaches and raises each one exactly once.
// The flip of the escalated flag is a per-issue compare-and-set in the
// store; a race between two sweeps, or a sweep and a concurrent transition,
// resolves to a single winner.
type EscalationService struct {
	issues     repository.IssueRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger

	fallbackWindow time.Duration
	maxRetries     uint64
	clock          func() time.Time
}

// EscalationDependencies bundles collaborators for the monitor.
type EscalationDependencies struct {
	IssueRepo  repository.IssueRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	// FallbackWindow covers records without a computed deadline.
	FallbackWindow time.Duration
	MaxRetries     int
	Clock          func() time.Time
}

// NewEscalationService constructs the monitor.
func NewEscalationService(deps EscalationDependencies) *EscalationService {
	svc := &EscalationService{
		issues:         deps.IssueRepo,
		dispatcher:     deps.Dispatcher,
		logger:         deps.Logger,
		fallbackWindow: deps.FallbackWindow,
		maxRetries:     uint64(deps.MaxRetries),
		clock:          deps.Clock,
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	if svc.fallbackWindow <= 0 {
		svc.fallbackWindow = 72 * time.Hour
	}
	if deps.MaxRetries <= 0 {
		svc.maxRetries = 3
	}
	if svc.clock == nil {
		svc.clock = time.Now
	}
	return svc
}

// Sweep runs one scan cycle and returns the number of escalations raised.
// Transient store failures are retried with bounded backoff; a cycle that
// still fails is abandoned so the next tick is never blocked.
func (s *EscalationService) Sweep(ctx context.Context) (int, error) {
	now := s.clock()

	var candidates []domain.Issue
	listOp := func() error {
		var err error
		candidates, err = s.issues.ListBreachCandidates(ctx, now)
		return err
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.maxRetries), ctx)
	if err := backoff.Retry(listOp, policy); err != nil {
		return 0, err
	}

	escalated := 0
	for _, candidate := range candidates {
		deadline := candidate.SLADeadline
		if deadline.IsZero() {
			deadline = candidate.CreatedAt.Add(s.fallbackWindow)
		}
		if !now.After(deadline) {
			continue
		}

		flipped, err := s.issues.MarkEscalated(ctx, candidate.ID, now)
		if err != nil {
			s.logger.Warn("escalation flip failed; retrying next tick",
				zap.String("issue_id", candidate.ID), zap.Error(err))
			continue
		}
		if !flipped {
			// Lost the CAS: another sweep escalated it, or the issue
			// reached a terminal status since the scan started.
			continue
		}

		escalated++

		// Publish from the committed row: a reprioritize landing between
		// the scan and the flip would make the scanned priority stale.
		committed := candidate
		if current, err := s.issues.GetByID(ctx, candidate.ID); err == nil {
			committed = *current
		}
		s.publish(ctx, committed, now.Sub(deadline))
	}
	return escalated, nil
}

func (s *EscalationService) publish(ctx context.Context, issue domain.Issue, breach time.Duration) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventIssueEscalated,
		IssueID:   issue.ID,
		Actor:     events.SystemActor(),
		Timestamp: s.clock(),
		Payload: events.IssueEscalatedPayload{
			Priority:              issue.Priority,
			BreachDurationSeconds: int64(breach.Seconds()),
		},
	})
	s.logger.Info("issue escalated",
		zap.String("issue_id", issue.ID),
		zap.String("priority", string(issue.Priority)),
		zap.Duration("breach", breach),
	)
}
