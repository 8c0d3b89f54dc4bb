package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

// deadLetterStore implements driven.DeadLetterStore. Rows are append-only:
// there is no delete path, only the resolved flag.
type deadLetterStore struct {
	store *Store
}

var _ driven.DeadLetterStore = (*deadLetterStore)(nil)

// Insert appends a dead letter record.
func (s *deadLetterStore) Insert(ctx context.Context, job domain.DeadLetterJob) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO dead_letter_jobs (id, tenant_id, doc_id, correlation_id, job_type, failure_reason, retry_count, last_attempt, audit_hash, created_at, resolved, resolved_at, resolved_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.TenantID, job.DocID, job.CorrelationID, string(job.JobType),
		job.FailureReason, job.RetryCount, job.LastAttempt, job.AuditHash,
		job.CreatedAt, job.Resolved, nullTime(job.ResolvedAt), job.ResolvedBy)
	if err != nil {
		return fmt.Errorf("inserting dead letter: %w", err)
	}
	return nil
}

// Get retrieves a record by ID, scoped to the tenant.
func (s *deadLetterStore) Get(ctx context.Context, id, tenantID string) (*domain.DeadLetterJob, error) {
	row := s.store.db.QueryRowContext(ctx, deadLetterSelect+" WHERE id = ? AND tenant_id = ?", id, tenantID)
	job, err := scanDeadLetter(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// List returns the tenant's records newest first.
func (s *deadLetterStore) List(ctx context.Context, tenantID string, opts driven.DeadLetterListOptions) ([]domain.DeadLetterJob, error) {
	var sb strings.Builder
	sb.WriteString(deadLetterSelect)
	sb.WriteString(" WHERE tenant_id = ?")
	args := []any{tenantID}

	if opts.UnresolvedOnly {
		sb.WriteString(" AND resolved = 0")
	}
	sb.WriteString(" ORDER BY created_at DESC")
	if opts.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, opts.Limit)
	} else {
		sb.WriteString(" LIMIT -1")
	}
	if opts.Skip > 0 {
		sb.WriteString(" OFFSET ?")
		args = append(args, opts.Skip)
	}

	rows, err := s.store.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying dead letters: %w", err)
	}
	defer rows.Close()

	var jobs []domain.DeadLetterJob //nolint:prealloc // size unknown from query
	for rows.Next() {
		job, err := scanDeadLetter(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating dead letters: %w", err)
	}
	return jobs, nil
}

// MarkResolved flags a record as resolved.
func (s *deadLetterStore) MarkResolved(ctx context.Context, id, resolvedBy string, resolvedAt time.Time) error {
	result, err := s.store.db.ExecContext(ctx, `
		UPDATE dead_letter_jobs SET resolved = 1, resolved_by = ?, resolved_at = ? WHERE id = ?
	`, resolvedBy, resolvedAt, id)
	if err != nil {
		return fmt.Errorf("marking resolved: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

const deadLetterSelect = `
	SELECT id, tenant_id, doc_id, correlation_id, job_type, failure_reason, retry_count, last_attempt, audit_hash, created_at, resolved, resolved_at, resolved_by
	FROM dead_letter_jobs`

func scanDeadLetter(row rowScanner) (*domain.DeadLetterJob, error) {
	var job domain.DeadLetterJob
	var jobType string
	var lastAttempt, createdAt, resolvedAt sql.NullTime
	if err := row.Scan(&job.ID, &job.TenantID, &job.DocID, &job.CorrelationID,
		&jobType, &job.FailureReason, &job.RetryCount, &lastAttempt,
		&job.AuditHash, &createdAt, &job.Resolved, &resolvedAt, &job.ResolvedBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning dead letter: %w", err)
	}
	job.JobType = domain.JobType(jobType)
	if lastAttempt.Valid {
		job.LastAttempt = lastAttempt.Time
	}
	if createdAt.Valid {
		job.CreatedAt = createdAt.Time
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time
		job.ResolvedAt = &t
	}
	return &job, nil
}

// nullTime converts an optional time to its SQL representation.
func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
