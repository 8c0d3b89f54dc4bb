package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

// jobStore implements driven.IngestionJobStore.
type jobStore struct {
	store *Store
}

var _ driven.IngestionJobStore = (*jobStore)(nil)

// Save stores or replaces a job keyed by document ID.
func (s *jobStore) Save(ctx context.Context, job domain.IngestionJob) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO ingestion_jobs (doc_id, tenant_id, correlation_id, status, error, filename, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			tenant_id = excluded.tenant_id,
			correlation_id = excluded.correlation_id,
			status = excluded.status,
			error = excluded.error,
			filename = excluded.filename,
			updated_at = excluded.updated_at
	`, job.DocID, job.TenantID, job.CorrelationID, string(job.Status), job.Error,
		job.Filename, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("saving job: %w", err)
	}
	return nil
}

// Get retrieves a job by document ID.
func (s *jobStore) Get(ctx context.Context, docID string) (*domain.IngestionJob, error) {
	row := s.store.db.QueryRowContext(ctx, jobSelect+" WHERE doc_id = ?", docID)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// UpdateStatus sets a job's status and error message and bumps updated_at.
func (s *jobStore) UpdateStatus(ctx context.Context, docID string, status domain.IngestState, errMsg string) error {
	result, err := s.store.db.ExecContext(ctx, `
		UPDATE ingestion_jobs SET status = ?, error = ?, updated_at = ? WHERE doc_id = ?
	`, string(status), errMsg, time.Now().UTC(), docID)
	if err != nil {
		return fmt.Errorf("updating job status: %w", err)
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

// ListStaleProcessing returns PROCESSING jobs last updated before cutoff.
func (s *jobStore) ListStaleProcessing(ctx context.Context, cutoff time.Time) ([]domain.IngestionJob, error) {
	rows, err := s.store.db.QueryContext(ctx, jobSelect+" WHERE status = ? AND updated_at < ?",
		string(domain.StateProcessing), cutoff)
	if err != nil {
		return nil, fmt.Errorf("querying stale jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.IngestionJob //nolint:prealloc // size unknown from query
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating jobs: %w", err)
	}
	return jobs, nil
}

const jobSelect = `
	SELECT doc_id, tenant_id, correlation_id, status, error, filename, created_at, updated_at
	FROM ingestion_jobs`

func scanJob(row rowScanner) (*domain.IngestionJob, error) {
	var job domain.IngestionJob
	var status string
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&job.DocID, &job.TenantID, &job.CorrelationID, &status,
		&job.Error, &job.Filename, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning job: %w", err)
	}
	job.Status = domain.IngestState(status)
	if createdAt.Valid {
		job.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		job.UpdatedAt = updatedAt.Time
	}
	return &job, nil
}
