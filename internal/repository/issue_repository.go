package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shreyansh2708-git/samadhan/internal/domain"
)

// Sentinel errors shared by all store implementations.
var (
	// ErrNotFound signals an absent record.
	ErrNotFound = errors.New("record not found")
	// ErrVersionConflict signals a lost optimistic-concurrency race; the
	// caller should re-read and retry.
	ErrVersionConflict = errors.New("issue modified concurrently")
	// ErrDuplicateID signals an id collision at creation.
	ErrDuplicateID = errors.New("issue id already exists")
)

// IssueRepository encapsulates issue persistence. Mutations are per-record
// atomic: Update applies only when the stored updated_at matches the
// expected value, and MarkEscalated is a single compare-and-set.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	// List returns a consistent snapshot; reporter narrows scope when
	// non-empty.
	List(ctx context.Context, reporter string) ([]domain.Issue, error)
	// Update commits the full mutation or none of it. expected is the
	// updated_at observed on read; a mismatch yields ErrVersionConflict.
	Update(ctx context.Context, issue *domain.Issue, expected time.Time) error
	// ListBreachCandidates returns non-terminal, non-escalated issues whose
	// SLA deadline has passed.
	ListBreachCandidates(ctx context.Context, now time.Time) ([]domain.Issue, error)
	// MarkEscalated flips escalated false->true, rechecking terminal status
	// in the same atomic step. Returns true only for the flip that won.
	MarkEscalated(ctx context.Context, id string, now time.Time) (bool, error)
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates a Postgres-backed repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `id, title, description, category, priority, severity, status,
       reporter_id, assignee, address, latitude, longitude, tags,
       created_at, updated_at, sla_deadline, escalated`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (id, title, description, category, priority, severity, status,
            reporter_id, assignee, address, latitude, longitude, tags, sla_deadline, escalated)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        RETURNING created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		issue.ID,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Priority,
		issue.Severity,
		issue.Status,
		issue.Reporter,
		issue.Assignee,
		issue.Location.Address,
		issue.Location.Latitude,
		issue.Location.Longitude,
		issue.Tags,
		issue.SLADeadline,
		issue.Escalated,
	).Scan(&issue.CreatedAt, &issue.UpdatedAt)
	return translateError(err)
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE id=$1`
	var issue domain.Issue
	if err := r.pool.QueryRow(ctx, query, id).Scan(issueScanTargets(&issue)...); err != nil {
		return nil, translateError(err)
	}
	return &issue, nil
}

func (r *issueRepository) List(ctx context.Context, reporter string) ([]domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues`
	args := []any{}
	if reporter != "" {
		query += ` WHERE reporter_id=$1`
		args = append(args, reporter)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) Update(ctx context.Context, issue *domain.Issue, expected time.Time) error {
	const query = `
        UPDATE issues SET title=$1, description=$2, category=$3, priority=$4, severity=$5,
            status=$6, assignee=$7, address=$8, latitude=$9, longitude=$10, tags=$11,
            sla_deadline=$12, escalated=$13, updated_at=NOW()
        WHERE id=$14 AND updated_at=$15
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Priority,
		issue.Severity,
		issue.Status,
		issue.Assignee,
		issue.Location.Address,
		issue.Location.Latitude,
		issue.Location.Longitude,
		issue.Tags,
		issue.SLADeadline,
		issue.Escalated,
		issue.ID,
		expected,
	).Scan(&issue.UpdatedAt)
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		// Distinguish a missing record from a lost race.
		if _, getErr := r.GetByID(ctx, issue.ID); getErr != nil {
			return getErr
		}
		return ErrVersionConflict
	}
	return translateError(err)
}

func (r *issueRepository) ListBreachCandidates(ctx context.Context, now time.Time) ([]domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues
        WHERE escalated=false AND status NOT IN ($1,$2) AND sla_deadline < $3
        ORDER BY sla_deadline`
	rows, err := r.pool.Query(ctx, query, domain.StatusResolved, domain.StatusClosed, now)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) MarkEscalated(ctx context.Context, id string, now time.Time) (bool, error) {
	// Single-statement CAS: the terminal-status recheck and the flip happen
	// in the same atomic step.
	const query = `
        UPDATE issues SET escalated=true, updated_at=NOW()
        WHERE id=$1 AND escalated=false AND status NOT IN ($2,$3)`
	cmd, err := r.pool.Exec(ctx, query, id, domain.StatusResolved, domain.StatusClosed)
	if err != nil {
		return false, translateError(err)
	}
	return cmd.RowsAffected() == 1, nil
}

func issueScanTargets(issue *domain.Issue) []any {
	return []any{
		&issue.ID,
		&issue.Title,
		&issue.Description,
		&issue.Category,
		&issue.Priority,
		&issue.Severity,
		&issue.Status,
		&issue.Reporter,
		&issue.Assignee,
		&issue.Location.Address,
		&issue.Location.Latitude,
		&issue.Location.Longitude,
		&issue.Tags,
		&issue.CreatedAt,
		&issue.UpdatedAt,
		&issue.SLADeadline,
		&issue.Escalated,
	}
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	var result []domain.Issue
	for rows.Next() {
		var issue domain.Issue
		if err := rows.Scan(issueScanTargets(&issue)...); err != nil {
			return nil, err
		}
		result = append(result, issue)
	}
	return result, rows.Err()
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}
