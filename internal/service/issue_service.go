package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shreyansh2708-git/samadhan/internal/access"
	"github.com/shreyansh2708-git/samadhan/internal/domain"
	"github.com/shreyansh2708-git/samadhan/internal/events"
	"github.com/shreyansh2708-git/samadhan/internal/query"
	"github.com/shreyansh2708-git/samadhan/internal/repository"
	apperrors "github.com/shreyansh2708-git/samadhan/pkg/util"
)

// mutationRetries bounds the optimistic-concurrency retry loop.
const mutationRetries = 3

// IssueService coordinates issue workflows: creation, the status state
// machine, reprioritization, assignment and the shared query path.
type IssueService struct {
	issues     repository.IssueRepository
	history    repository.IssueHistoryRepository
	sequence   repository.IssueSequence
	dispatcher events.Dispatcher
	sla        domain.SLATable

	storeTimeout time.Duration
	clock        func() time.Time
}

// IssueDependencies bundles collaborators for the issue service.
type IssueDependencies struct {
	IssueRepo    repository.IssueRepository
	HistoryRepo  repository.IssueHistoryRepository
	Sequence     repository.IssueSequence
	Dispatcher   events.Dispatcher
	SLA          domain.SLATable
	StoreTimeout time.Duration
	Clock        func() time.Time
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	svc := &IssueService{
		issues:       deps.IssueRepo,
		history:      deps.HistoryRepo,
		sequence:     deps.Sequence,
		dispatcher:   deps.Dispatcher,
		sla:          deps.SLA,
		storeTimeout: deps.StoreTimeout,
		clock:        deps.Clock,
	}
	if svc.sla == nil {
		svc.sla = domain.DefaultSLATable()
	}
	if svc.storeTimeout <= 0 {
		svc.storeTimeout = 5 * time.Second
	}
	if svc.clock == nil {
		svc.clock = time.Now
	}
	return svc
}

// CreateIssueInput describes a citizen submission.
type CreateIssueInput struct {
	Title       string
	Description string
	Category    string
	Priority    domain.IssuePriority
	Severity    int
	Location    domain.Location
	Tags        []string
}

// UpdateIssueInput carries detail edits by the owner.
type UpdateIssueInput struct {
	Title       *string
	Description *string
	Location    *domain.Location
	Tags        []string
}

// CreateIssue registers a new issue for the calling citizen.
func (s *IssueService) CreateIssue(ctx context.Context, session access.Session, input CreateIssueInput) (*domain.Issue, error) {
	if err := denyError(access.Authorize(session, access.OpCreateIssue, nil)); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}
	if !domain.ValidCategory(input.Category) {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": input.Category})
	}
	if input.Severity < domain.SeverityMin || input.Severity > domain.SeverityMax {
		return nil, apperrors.NewValidationError("severity out of range", map[string]any{"severity": input.Severity})
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}

	now := s.clock()
	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	seq, err := s.sequence.Next(sctx, now.Year())
	if err != nil {
		return nil, s.mapStoreError(err, "issue")
	}

	issue := &domain.Issue{
		ID:          repository.FormatIssueID(now.Year(), seq),
		Title:       title,
		Description: description,
		Category:    input.Category,
		Priority:    priority,
		Severity:    input.Severity,
		Status:      domain.StatusSubmitted,
		Reporter:    session.UserID,
		Location:    input.Location,
		Tags:        input.Tags,
		CreatedAt:   now,
		SLADeadline: s.sla.Deadline(now, priority),
	}
	if err := s.issues.Create(sctx, issue); err != nil {
		return nil, s.mapStoreError(err, "issue")
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventIssueCreated,
		IssueID: issue.ID,
		Actor:   events.UserActor(session.UserID, session.Role),
		Payload: events.IssueCreatedPayload{
			Title:    issue.Title,
			Category: issue.Category,
			Priority: issue.Priority,
			Severity: issue.Severity,
		},
	})
	return issue, nil
}

// GetIssue fetches a single issue, enforcing ownership for citizens.
func (s *IssueService) GetIssue(ctx context.Context, session access.Session, id string) (*domain.Issue, error) {
	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	issue, err := s.issues.GetByID(sctx, id)
	if err != nil {
		return nil, s.mapStoreError(err, "issue")
	}
	if err := denyError(access.Authorize(session, access.OpReadIssue, issue)); err != nil {
		return nil, err
	}
	return issue, nil
}

// ListIssues evaluates the query spec over a consistent snapshot. Citizens
// are always scoped to their own issues, whatever the spec requests.
func (s *IssueService) ListIssues(ctx context.Context, session access.Session, spec query.Spec) ([]domain.Issue, error) {
	if err := denyError(access.Authorize(session, access.OpListIssues, nil)); err != nil {
		return nil, err
	}
	if session.Role != domain.RoleAdmin {
		spec.Owner = session.UserID
	}

	scope := spec.Owner
	if strings.EqualFold(scope, query.ScopeAll) {
		scope = ""
	}

	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	snapshot, err := s.issues.List(sctx, scope)
	if err != nil {
		return nil, s.mapStoreError(err, "issue")
	}
	return query.Evaluate(snapshot, spec), nil
}

// Stats tallies the full collection for admin dashboards.
func (s *IssueService) Stats(ctx context.Context, session access.Session) (query.Summary, error) {
	if err := denyError(access.Authorize(session, access.OpViewStats, nil)); err != nil {
		return query.Summary{}, err
	}
	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	snapshot, err := s.issues.List(sctx, "")
	if err != nil {
		return query.Summary{}, s.mapStoreError(err, "issue")
	}
	return query.Tally(snapshot), nil
}

// UpdateDetails lets the owning citizen (or an admin) edit descriptive
// fields. Lifecycle fields are untouchable here.
func (s *IssueService) UpdateDetails(ctx context.Context, session access.Session, id string, input UpdateIssueInput) (*domain.Issue, error) {
	return s.mutate(ctx, session, access.OpUpdateIssue, id, func(issue *domain.Issue) error {
		if input.Title != nil {
			title := strings.TrimSpace(*input.Title)
			if title == "" {
				return apperrors.NewValidationError("title cannot be empty", nil)
			}
			issue.Title = title
		}
		if input.Description != nil {
			issue.Description = strings.TrimSpace(*input.Description)
		}
		if input.Location != nil {
			issue.Location = *input.Location
		}
		if input.Tags != nil {
			issue.Tags = input.Tags
		}
		return nil
	}, func(old, updated *domain.Issue) {
		s.recordHistory(ctx, session, updated.ID, domain.ChangeTypeDetails, nil, nil, "")
	})
}

// Transition moves the status forward. Skipping intermediate states is
// allowed; the same or a lower index is rejected, reopen being the only way
// back.
func (s *IssueService) Transition(ctx context.Context, session access.Session, id string, target domain.IssueStatus, comment string) (*domain.Issue, error) {
	if !target.Valid() {
		return nil, apperrors.NewInvalidTransition("unknown status", map[string]any{"status": target})
	}
	var oldStatus domain.IssueStatus
	return s.mutate(ctx, session, access.OpTransitionIssue, id, func(issue *domain.Issue) error {
		current := issue.Status.ProgressionIndex()
		next := target.ProgressionIndex()
		if next <= current {
			return apperrors.NewInvalidTransition("status may only advance", map[string]any{
				"from": issue.Status,
				"to":   target,
			})
		}
		oldStatus = issue.Status
		issue.Status = target
		return nil
	}, func(old, updated *domain.Issue) {
		s.recordHistory(ctx, session, updated.ID, domain.ChangeTypeStatus,
			map[string]any{"status": oldStatus},
			map[string]any{"status": updated.Status},
			comment)
		s.publishEvent(ctx, events.Event{
			Type:    events.EventIssueStatusChanged,
			IssueID: updated.ID,
			Actor:   events.UserActor(session.UserID, session.Role),
			Payload: events.IssueStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: updated.Status,
				Comment:   comment,
			},
		})
	})
}

// Reopen moves a Resolved or Closed issue back to Assigned. A reason is
// required; the escalated flag is never reset.
func (s *IssueService) Reopen(ctx context.Context, session access.Session, id, reason string) (*domain.Issue, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("reopen reason required", nil)
	}
	var from domain.IssueStatus
	return s.mutate(ctx, session, access.OpReopenIssue, id, func(issue *domain.Issue) error {
		if !issue.Status.Terminal() {
			return apperrors.NewInvalidTransition("only resolved or closed issues can reopen", map[string]any{
				"status": issue.Status,
			})
		}
		from = issue.Status
		issue.Status = domain.StatusAssigned
		return nil
	}, func(old, updated *domain.Issue) {
		s.recordHistory(ctx, session, updated.ID, domain.ChangeTypeReopen,
			map[string]any{"status": from},
			map[string]any{"status": updated.Status},
			reason)
		s.publishEvent(ctx, events.Event{
			Type:    events.EventIssueReopened,
			IssueID: updated.ID,
			Actor:   events.UserActor(session.UserID, session.Role),
			Payload: events.IssueReopenedPayload{
				FromStatus: from,
				Reason:     reason,
			},
		})
	})
}

// Reprioritize changes the priority and recomputes the SLA deadline from the
// original creation time. A past breach stays escalated.
func (s *IssueService) Reprioritize(ctx context.Context, session access.Session, id string, priority domain.IssuePriority) (*domain.Issue, error) {
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}
	var oldPriority domain.IssuePriority
	return s.mutate(ctx, session, access.OpReprioritizeIssue, id, func(issue *domain.Issue) error {
		oldPriority = issue.Priority
		issue.Priority = priority
		issue.SLADeadline = s.sla.Deadline(issue.CreatedAt, priority)
		return nil
	}, func(old, updated *domain.Issue) {
		s.recordHistory(ctx, session, updated.ID, domain.ChangeTypePriority,
			map[string]any{"priority": oldPriority},
			map[string]any{"priority": updated.Priority},
			"")
		s.publishEvent(ctx, events.Event{
			Type:    events.EventIssuePriorityChanged,
			IssueID: updated.ID,
			Actor:   events.UserActor(session.UserID, session.Role),
			Payload: events.IssuePriorityChangedPayload{
				OldPriority: oldPriority,
				NewPriority: updated.Priority,
				SLADeadline: updated.SLADeadline,
			},
		})
	})
}

// Reassign sets the responsible department or team. Assigning an issue that
// has not yet reached Assigned advances it in the same mutation.
func (s *IssueService) Reassign(ctx context.Context, session access.Session, id, assignee string) (*domain.Issue, error) {
	assignee = strings.TrimSpace(assignee)
	if assignee == "" {
		return nil, apperrors.NewValidationError("assignee required", nil)
	}
	var oldStatus domain.IssueStatus
	return s.mutate(ctx, session, access.OpReassignIssue, id, func(issue *domain.Issue) error {
		oldStatus = issue.Status
		issue.Assignee = &assignee
		if issue.Status.ProgressionIndex() < domain.StatusAssigned.ProgressionIndex() {
			issue.Status = domain.StatusAssigned
		}
		return nil
	}, func(old, updated *domain.Issue) {
		s.recordHistory(ctx, session, updated.ID, domain.ChangeTypeAssignee,
			map[string]any{"assignee": old.Assignee},
			map[string]any{"assignee": assignee},
			"")
		s.publishEvent(ctx, events.Event{
			Type:    events.EventIssueAssigned,
			IssueID: updated.ID,
			Actor:   events.UserActor(session.UserID, session.Role),
			Payload: events.IssueAssignedPayload{Assignee: assignee},
		})
		if updated.Status != oldStatus {
			s.publishEvent(ctx, events.Event{
				Type:    events.EventIssueStatusChanged,
				IssueID: updated.ID,
				Actor:   events.UserActor(session.UserID, session.Role),
				Payload: events.IssueStatusChangedPayload{
					OldStatus: oldStatus,
					NewStatus: updated.Status,
					Comment:   "assigned",
				},
			})
		}
	})
}

// History lists audit entries for an issue, enforcing ownership for
// citizens.
func (s *IssueService) History(ctx context.Context, session access.Session, id string, limit, offset int) ([]domain.IssueHistory, error) {
	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	issue, err := s.issues.GetByID(sctx, id)
	if err != nil {
		return nil, s.mapStoreError(err, "issue")
	}
	if err := denyError(access.Authorize(session, access.OpReadHistory, issue)); err != nil {
		return nil, err
	}
	entries, err := s.history.ListByIssue(sctx, id, limit, offset)
	if err != nil {
		return nil, s.mapStoreError(err, "issue history")
	}
	return entries, nil
}

// mutate runs an authorize / read / apply / conditional-write cycle with a
// bounded retry on version conflicts. The full mutation commits or none of
// it does; onCommit runs only after a successful write.
func (s *IssueService) mutate(
	ctx context.Context,
	session access.Session,
	op access.Operation,
	id string,
	apply func(issue *domain.Issue) error,
	onCommit func(old, updated *domain.Issue),
) (*domain.Issue, error) {
	sctx, cancel := s.storeContext(ctx)
	defer cancel()

	for attempt := 0; attempt < mutationRetries; attempt++ {
		issue, err := s.issues.GetByID(sctx, id)
		if err != nil {
			return nil, s.mapStoreError(err, "issue")
		}
		if err := denyError(access.Authorize(session, op, issue)); err != nil {
			return nil, err
		}

		old := issue.Clone()
		expected := issue.UpdatedAt
		if err := apply(issue); err != nil {
			return nil, err
		}

		err = s.issues.Update(sctx, issue, expected)
		if errors.Is(err, repository.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, s.mapStoreError(err, "issue")
		}
		if onCommit != nil {
			onCommit(old, issue)
		}
		return issue, nil
	}
	return nil, apperrors.NewConflict("issue is being modified concurrently", map[string]any{"issue_id": id})
}

func (s *IssueService) recordHistory(ctx context.Context, session access.Session, issueID string, changeType domain.IssueChangeType, oldValue, newValue map[string]any, reason string) {
	if s.history == nil {
		return
	}
	actorID := session.UserID
	entry := &domain.IssueHistory{
		IssueID:    issueID,
		ActorID:    &actorID,
		ActorRole:  session.Role,
		ChangeType: changeType,
		OldValue:   oldValue,
		NewValue:   newValue,
		Reason:     reason,
	}
	_ = s.history.Create(ctx, entry)
}

func (s *IssueService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.clock()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *IssueService) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}

func (s *IssueService) mapStoreError(err error, resource string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrDuplicateID):
		return apperrors.NewConflict("id already exists", nil)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.NewStoreUnavailable(err)
	default:
		return apperrors.MapError(err)
	}
}

func denyError(decision access.Decision) error {
	if decision.Allowed {
		return nil
	}
	switch decision.Reason {
	case access.ReasonNotAuthenticated:
		return apperrors.NewUnauthorized("authentication required")
	case access.ReasonNotOwner:
		return apperrors.NewForbidden("not the issue owner")
	default:
		return apperrors.NewForbidden("insufficient role")
	}
}
