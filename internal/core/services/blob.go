package services

import (
	"context"
	"crypto/md5" //nolint:gosec // content fingerprint, not a security boundary
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driving"
)

// Ensure BlobService implements the interface.
var _ driving.BlobService = (*BlobService)(nil)

// BlobService deduplicates file payloads by content digest. The MD5 is the
// dedup identity key; the SHA-256 travels alongside for integrity checks.
// Payload bytes only ever reach the object store when the digest is new.
type BlobService struct {
	blobs   driven.BlobStore
	objects driven.ObjectStore
	events  driven.EventLogger
}

// NewBlobService creates a new blob deduplication service.
func NewBlobService(blobs driven.BlobStore, objects driven.ObjectStore, events driven.EventLogger) *BlobService {
	return &BlobService{blobs: blobs, objects: objects, events: events}
}

// GetOrCreate deduplicates one payload. The reserve-then-upload ordering
// lives in the store: the payload upload runs inside the store's atomic
// scope so two concurrent uploads of the same bytes produce one stored
// object and one row with RefCount 2.
func (s *BlobService) GetOrCreate(ctx context.Context, tctx domain.TenantContext, docID string, data []byte, meta domain.BlobMetadata) (*domain.BlobResult, error) {
	if !tctx.Valid() {
		return nil, domain.NewValidationError("tenant", "tenant and correlation identifiers are required")
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", domain.ErrInvalidInput)
	}

	md5sum := md5.Sum(data) //nolint:gosec // content fingerprint, not a security boundary
	sha := sha256.Sum256(data)

	now := time.Now().UTC()
	candidate := domain.FileBlob{
		ID:             uuid.NewString(),
		MD5:            hex.EncodeToString(md5sum[:]),
		SHA256:         hex.EncodeToString(sha[:]),
		SizeBytes:      int64(len(data)),
		MimeType:       meta.MimeType,
		OriginalName:   meta.OriginalName,
		CreatedAt:      now,
		LastAccessedAt: now,
	}

	blob, deduplicated, err := s.blobs.CreateOrReference(ctx, candidate, docID, func(ctx context.Context) (string, error) {
		return s.objects.Upload(ctx, data, meta)
	})
	if err != nil {
		return nil, fmt.Errorf("create or reference blob: %w", err)
	}

	result := &domain.BlobResult{
		BlobID:       blob.ID,
		MD5:          blob.MD5,
		Deduplicated: deduplicated,
	}

	if deduplicated {
		result.SavedBytes = int64(len(data))
		s.events.Log(driven.Event{
			Level:         driven.LevelInfo,
			Source:        "BLOB_SERVICE",
			Action:        "BLOB_DEDUPLICATED",
			Message:       fmt.Sprintf("payload %s already stored, reference added", blob.MD5),
			CorrelationID: tctx.CorrelationID,
			TenantID:      tctx.TenantID,
			Details: map[string]any{
				"doc_id":      docID,
				"md5":         blob.MD5,
				"ref_count":   blob.RefCount,
				"saved_bytes": result.SavedBytes,
			},
		})
		return result, nil
	}

	s.events.Log(driven.Event{
		Level:         driven.LevelInfo,
		Source:        "BLOB_SERVICE",
		Action:        "BLOB_CREATED",
		Message:       fmt.Sprintf("payload %s stored (%d bytes)", blob.MD5, blob.SizeBytes),
		CorrelationID: tctx.CorrelationID,
		TenantID:      tctx.TenantID,
		Details: map[string]any{
			"doc_id":     docID,
			"md5":        blob.MD5,
			"sha256":     blob.SHA256,
			"size_bytes": blob.SizeBytes,
			"mime_type":  blob.MimeType,
		},
	})
	return result, nil
}

// RemoveReference drops a document's reference. The blob row and its
// payload survive at zero references until a garbage-collection sweep.
func (s *BlobService) RemoveReference(ctx context.Context, tctx domain.TenantContext, md5sum, docID string) error {
	if err := s.blobs.RemoveReference(ctx, md5sum, docID); err != nil {
		return fmt.Errorf("remove reference: %w", err)
	}

	s.events.Log(driven.Event{
		Level:         driven.LevelInfo,
		Source:        "BLOB_SERVICE",
		Action:        "BLOB_UNREFERENCED",
		Message:       fmt.Sprintf("reference %s removed from %s", docID, md5sum),
		CorrelationID: tctx.CorrelationID,
		TenantID:      tctx.TenantID,
		Details:       map[string]any{"doc_id": docID, "md5": md5sum},
	})
	return nil
}

// FindOrphaned lists blobs at zero references.
func (s *BlobService) FindOrphaned(ctx context.Context) ([]domain.FileBlob, error) {
	orphans, err := s.blobs.ListOrphaned(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orphaned: %w", err)
	}
	return orphans, nil
}

// DeleteOrphaned deletes one blob after re-verifying it is still at zero
// references. A blob that regained a reference between the candidate
// listing and this call returns domain.ErrBlobNotOrphaned.
func (s *BlobService) DeleteOrphaned(ctx context.Context, md5sum, correlationID string) error {
	blob, err := s.blobs.Get(ctx, md5sum)
	if err != nil {
		return fmt.Errorf("get blob: %w", err)
	}
	if blob.RefCount > 0 {
		return fmt.Errorf("%w: %s has %d references", domain.ErrBlobNotOrphaned, md5sum, blob.RefCount)
	}

	// Payload first. A dangling row is recoverable on the next sweep; a
	// dangling payload with no row is not.
	if blob.StorageID != "" {
		if err := s.objects.Delete(ctx, blob.StorageID); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete payload: %w", err)
		}
	}
	if err := s.blobs.Delete(ctx, md5sum); err != nil {
		return fmt.Errorf("delete blob row: %w", err)
	}

	s.events.Log(driven.Event{
		Level:         driven.LevelInfo,
		Source:        "BLOB_SERVICE",
		Action:        "BLOB_DELETED_GC",
		Message:       fmt.Sprintf("orphaned blob %s deleted (%d bytes freed)", md5sum, blob.SizeBytes),
		CorrelationID: correlationID,
		Details: map[string]any{
			"md5":        md5sum,
			"size_bytes": blob.SizeBytes,
			"storage_id": blob.StorageID,
		},
	})
	return nil
}

// RunGarbageCollection sweeps all orphaned blobs. Per-blob failures are
// counted and logged but never abort the sweep.
func (s *BlobService) RunGarbageCollection(ctx context.Context, correlationID string) (*driving.GCReport, error) {
	orphans, err := s.FindOrphaned(ctx)
	if err != nil {
		return nil, err
	}

	report := &driving.GCReport{Candidates: len(orphans)}
	for _, blob := range orphans {
		if err := s.DeleteOrphaned(ctx, blob.MD5, correlationID); err != nil {
			if errors.Is(err, domain.ErrBlobNotOrphaned) {
				report.Skipped++
				continue
			}
			report.Errors++
			s.events.Log(driven.Event{
				Level:         driven.LevelError,
				Source:        "BLOB_SERVICE",
				Action:        "BLOB_GC_FAILED",
				Message:       fmt.Sprintf("failed to delete orphaned blob %s: %v", blob.MD5, err),
				CorrelationID: correlationID,
				Details:       map[string]any{"md5": blob.MD5},
			})
			continue
		}
		report.Deleted++
		report.FreedBytes += blob.SizeBytes
	}

	s.events.Log(driven.Event{
		Level:         driven.LevelInfo,
		Source:        "BLOB_SERVICE",
		Action:        "BLOB_GC_COMPLETE",
		Message:       fmt.Sprintf("gc sweep: %d candidates, %d deleted, %d skipped, %d errors", report.Candidates, report.Deleted, report.Skipped, report.Errors),
		CorrelationID: correlationID,
		Details: map[string]any{
			"candidates":  report.Candidates,
			"deleted":     report.Deleted,
			"skipped":     report.Skipped,
			"errors":      report.Errors,
			"freed_bytes": report.FreedBytes,
		},
	})
	return report, nil
}
