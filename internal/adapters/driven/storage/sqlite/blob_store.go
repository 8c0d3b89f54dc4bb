package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

// blobStore implements driven.BlobStore.
type blobStore struct {
	store *Store
}

var _ driven.BlobStore = (*blobStore)(nil)

// CreateOrReference atomically references an existing blob row or inserts
// the candidate. The transaction begins deferred, so a no-op write
// upgrades it to a write transaction up front and a concurrent upload of
// the same payload serialises behind it; the payload upload runs inside
// the transaction and only for the first writer.
func (s *blobStore) CreateOrReference(ctx context.Context, candidate domain.FileBlob, docID string, upload driven.UploadFunc) (*domain.FileBlob, bool, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, "UPDATE file_blobs SET md5 = md5 WHERE 0"); err != nil {
		return nil, false, fmt.Errorf("acquiring write lock: %w", err)
	}

	existing, err := scanBlob(tx.QueryRowContext(ctx, blobSelect+" WHERE md5 = ?", candidate.MD5))
	switch {
	case err == nil:
		existing.RefCount++
		if !existing.References(docID) {
			existing.ReferencingDocs = append(existing.ReferencingDocs, docID)
		}
		existing.LastAccessedAt = time.Now().UTC()

		docsJSON, err := json.Marshal(existing.ReferencingDocs)
		if err != nil {
			return nil, false, fmt.Errorf("marshalling referencing docs: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE file_blobs
			SET ref_count = ?, referencing_docs = ?, last_accessed_at = ?
			WHERE md5 = ?
		`, existing.RefCount, string(docsJSON), existing.LastAccessedAt, existing.MD5); err != nil {
			return nil, false, fmt.Errorf("updating blob reference: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("committing: %w", err)
		}
		return existing, true, nil

	case errors.Is(err, domain.ErrNotFound):
		// First writer: upload the payload, then insert the row.
		storageID, err := upload(ctx)
		if err != nil {
			return nil, false, err
		}

		candidate.StorageID = storageID
		candidate.RefCount = 1
		candidate.ReferencingDocs = []string{docID}
		docsJSON, err := json.Marshal(candidate.ReferencingDocs)
		if err != nil {
			return nil, false, fmt.Errorf("marshalling referencing docs: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO file_blobs (md5, id, sha256, size_bytes, mime_type, original_name, storage_id, ref_count, referencing_docs, created_at, last_accessed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, candidate.MD5, candidate.ID, candidate.SHA256, candidate.SizeBytes,
			candidate.MimeType, candidate.OriginalName, candidate.StorageID,
			candidate.RefCount, string(docsJSON), candidate.CreatedAt, candidate.LastAccessedAt); err != nil {
			return nil, false, fmt.Errorf("inserting blob: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("committing: %w", err)
		}
		out := candidate
		return &out, false, nil

	default:
		return nil, false, err
	}
}

// RemoveReference drops a document's reference. The row survives at zero
// references.
func (s *blobStore) RemoveReference(ctx context.Context, md5, docID string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	blob, err := scanBlob(tx.QueryRowContext(ctx, blobSelect+" WHERE md5 = ?", md5))
	if err != nil {
		return err
	}

	if blob.RefCount > 0 {
		blob.RefCount--
	}
	docs := blob.ReferencingDocs[:0]
	for _, id := range blob.ReferencingDocs {
		if id != docID {
			docs = append(docs, id)
		}
	}
	docsJSON, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshalling referencing docs: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE file_blobs SET ref_count = ?, referencing_docs = ? WHERE md5 = ?
	`, blob.RefCount, string(docsJSON), md5); err != nil {
		return fmt.Errorf("updating blob reference: %w", err)
	}
	return tx.Commit()
}

// Get retrieves a blob row by MD5.
func (s *blobStore) Get(ctx context.Context, md5 string) (*domain.FileBlob, error) {
	return scanBlob(s.store.db.QueryRowContext(ctx, blobSelect+" WHERE md5 = ?", md5))
}

// ListOrphaned returns rows with a zero reference count.
func (s *blobStore) ListOrphaned(ctx context.Context) ([]domain.FileBlob, error) {
	rows, err := s.store.db.QueryContext(ctx, blobSelect+" WHERE ref_count = 0")
	if err != nil {
		return nil, fmt.Errorf("querying orphaned blobs: %w", err)
	}
	defer rows.Close()

	var blobs []domain.FileBlob //nolint:prealloc // size unknown from query
	for rows.Next() {
		blob, err := scanBlobRow(rows)
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, *blob)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating blobs: %w", err)
	}
	return blobs, nil
}

// Delete removes a blob row.
func (s *blobStore) Delete(ctx context.Context, md5 string) error {
	result, err := s.store.db.ExecContext(ctx, "DELETE FROM file_blobs WHERE md5 = ?", md5)
	if err != nil {
		return fmt.Errorf("deleting blob: %w", err)
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

const blobSelect = `
	SELECT md5, id, sha256, size_bytes, mime_type, original_name, storage_id, ref_count, referencing_docs, created_at, last_accessed_at
	FROM file_blobs`

// rowScanner abstracts sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBlob(row *sql.Row) (*domain.FileBlob, error) {
	blob, err := scanBlobFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return blob, nil
}

func scanBlobRow(rows *sql.Rows) (*domain.FileBlob, error) {
	return scanBlobFrom(rows)
}

func scanBlobFrom(row rowScanner) (*domain.FileBlob, error) {
	var blob domain.FileBlob
	var docsJSON string
	var createdAt, lastAccessedAt sql.NullTime
	if err := row.Scan(&blob.MD5, &blob.ID, &blob.SHA256, &blob.SizeBytes,
		&blob.MimeType, &blob.OriginalName, &blob.StorageID, &blob.RefCount,
		&docsJSON, &createdAt, &lastAccessedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning blob: %w", err)
	}

	if docsJSON != "" && docsJSON != jsonNull {
		if err := json.Unmarshal([]byte(docsJSON), &blob.ReferencingDocs); err != nil {
			return nil, fmt.Errorf("unmarshaling referencing docs: %w", err)
		}
	}
	if createdAt.Valid {
		blob.CreatedAt = createdAt.Time
	}
	if lastAccessedAt.Valid {
		blob.LastAccessedAt = lastAccessedAt.Time
	}
	return &blob, nil
}
