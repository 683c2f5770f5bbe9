package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shreyansh2708-git/samadhan/internal/domain"
)

// IssueHistoryRepository stores the immutable audit trail.
type IssueHistoryRepository interface {
	Create(ctx context.Context, entry *domain.IssueHistory) error
	ListByIssue(ctx context.Context, issueID string, limit, offset int) ([]domain.IssueHistory, error)
}

type issueHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewIssueHistoryRepository instantiates a Postgres-backed repository.
func NewIssueHistoryRepository(pool *pgxpool.Pool) IssueHistoryRepository {
	return &issueHistoryRepository{pool: pool}
}

func (r *issueHistoryRepository) Create(ctx context.Context, entry *domain.IssueHistory) error {
	const query = `
        INSERT INTO issue_history (issue_id, actor_id, actor_role, change_type, old_value, new_value, reason)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query,
		entry.IssueID,
		entry.ActorID,
		entry.ActorRole,
		entry.ChangeType,
		entry.OldValue,
		entry.NewValue,
		entry.Reason,
	).Scan(&entry.ID, &entry.CreatedAt)
	return translateError(err)
}

func (r *issueHistoryRepository) ListByIssue(ctx context.Context, issueID string, limit, offset int) ([]domain.IssueHistory, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, issue_id, actor_id, actor_role, change_type, old_value, new_value, reason, created_at
        FROM issue_history WHERE issue_id=$1
        ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, issueID, limit, offset)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	var result []domain.IssueHistory
	for rows.Next() {
		var entry domain.IssueHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.IssueID,
			&entry.ActorID,
			&entry.ActorRole,
			&entry.ChangeType,
			&entry.OldValue,
			&entry.NewValue,
			&entry.Reason,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

// memoryIssueHistoryRepository backs the DSN-less mode and tests.
type memoryIssueHistoryRepository struct {
	mu      sync.RWMutex
	entries map[string][]domain.IssueHistory
}

// NewMemoryIssueHistoryRepository instantiates the in-memory implementation.
func NewMemoryIssueHistoryRepository() IssueHistoryRepository {
	return &memoryIssueHistoryRepository{entries: make(map[string][]domain.IssueHistory)}
}

func (r *memoryIssueHistoryRepository) Create(ctx context.Context, entry *domain.IssueHistory) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	r.entries[entry.IssueID] = append(r.entries[entry.IssueID], *entry)
	return nil
}

func (r *memoryIssueHistoryRepository) ListByIssue(ctx context.Context, issueID string, limit, offset int) ([]domain.IssueHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	r.mu.RLock()
	entries := append([]domain.IssueHistory(nil), r.entries[issueID]...)
	r.mu.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if offset >= len(entries) {
		return []domain.IssueHistory{}, nil
	}
	entries = entries[offset:]
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
