package repository

import (
	"context"
	"sync"
	"time"

	"github.com/shreyansh2708-git/samadhan/internal/domain"
)

// memoryIssueRepository is the in-memory IssueRepository used when no
// Postgres DSN is configured, and by tests. Reads return deep copies so an
// in-flight mutation is never half-visible; mutations serialize under one
// mutex with the same optimistic-concurrency contract as the SQL store.
type memoryIssueRepository struct {
	mu     sync.RWMutex
	issues map[string]*domain.Issue
}

// NewMemoryIssueRepository instantiates the in-memory store.
func NewMemoryIssueRepository() IssueRepository {
	return &memoryIssueRepository{issues: make(map[string]*domain.Issue)}
}

func (r *memoryIssueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.issues[issue.ID]; exists {
		return ErrDuplicateID
	}
	now := time.Now()
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = now
	}
	issue.UpdatedAt = issue.CreatedAt
	r.issues[issue.ID] = issue.Clone()
	return nil
}

func (r *memoryIssueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	issue, ok := r.issues[id]
	if !ok {
		return nil, ErrNotFound
	}
	return issue.Clone(), nil
}

func (r *memoryIssueRepository) List(ctx context.Context, reporter string) ([]domain.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]domain.Issue, 0, len(r.issues))
	for _, issue := range r.issues {
		if reporter != "" && issue.Reporter != reporter {
			continue
		}
		result = append(result, *issue.Clone())
	}
	return result, nil
}

func (r *memoryIssueRepository) Update(ctx context.Context, issue *domain.Issue, expected time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.issues[issue.ID]
	if !ok {
		return ErrNotFound
	}
	if !current.UpdatedAt.Equal(expected) {
		return ErrVersionConflict
	}
	issue.CreatedAt = current.CreatedAt
	issue.UpdatedAt = time.Now()
	if !issue.UpdatedAt.After(current.UpdatedAt) {
		// Clock granularity guard: updated_at doubles as the version.
		issue.UpdatedAt = current.UpdatedAt.Add(time.Nanosecond)
	}
	r.issues[issue.ID] = issue.Clone()
	return nil
}

func (r *memoryIssueRepository) ListBreachCandidates(ctx context.Context, now time.Time) ([]domain.Issue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []domain.Issue
	for _, issue := range r.issues {
		if issue.Escalated || issue.Status.Terminal() {
			continue
		}
		if issue.SLADeadline.Before(now) {
			result = append(result, *issue.Clone())
		}
	}
	return result, nil
}

func (r *memoryIssueRepository) MarkEscalated(ctx context.Context, id string, now time.Time) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[id]
	if !ok {
		return false, ErrNotFound
	}
	if issue.Escalated || issue.Status.Terminal() {
		return false, nil
	}
	issue.Escalated = true
	issue.UpdatedAt = now
	return true, nil
}
