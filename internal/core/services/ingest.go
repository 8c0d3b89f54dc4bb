package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driving"
)

// Ensure IngestOrchestrator implements the interface.
var _ driving.IngestOrchestrator = (*IngestOrchestrator)(nil)

// IngestOrchestrator runs the document pipeline: job creation, validated
// state transitions, payload deduplication, chunking, persistence. Every
// failure path lands the job in FAILED with a dead-letter entry; no job is
// ever abandoned in PROCESSING by this code path.
type IngestOrchestrator struct {
	jobs       driven.IngestionJobStore
	chunkStore driven.ChunkStore
	blobs      driving.BlobService
	chunking   driving.ChunkingService
	deadLetter driving.DeadLetterService
	validator  *StateTransitionValidator
	events     driven.EventLogger
}

// NewIngestOrchestrator creates a new ingestion orchestrator.
func NewIngestOrchestrator(
	jobs driven.IngestionJobStore,
	chunkStore driven.ChunkStore,
	blobs driving.BlobService,
	chunking driving.ChunkingService,
	deadLetter driving.DeadLetterService,
	validator *StateTransitionValidator,
	events driven.EventLogger,
) *IngestOrchestrator {
	return &IngestOrchestrator{
		jobs:       jobs,
		chunkStore: chunkStore,
		blobs:      blobs,
		chunking:   chunking,
		deadLetter: deadLetter,
		validator:  validator,
		events:     events,
	}
}

// Ingest processes one document buffer end to end.
func (o *IngestOrchestrator) Ingest(ctx context.Context, tctx domain.TenantContext, filename, mimeType string, data []byte, level string) (*driving.IngestReport, error) {
	if !tctx.Valid() {
		return nil, domain.NewValidationError("tenant", "tenant and correlation identifiers are required")
	}
	if filename == "" {
		return nil, domain.NewValidationError("filename", "filename is required")
	}
	if len(data) == 0 {
		return nil, domain.NewValidationError("data", "document payload must not be empty")
	}

	docID := uuid.NewString()
	now := time.Now().UTC()
	job := domain.IngestionJob{
		DocID:         docID,
		TenantID:      tctx.TenantID,
		CorrelationID: tctx.CorrelationID,
		Status:        domain.StatePending,
		Filename:      filename,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := o.jobs.Save(ctx, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	o.events.Log(driven.Event{
		Level:         driven.LevelInfo,
		Source:        "INGEST",
		Action:        "INGEST_STARTED",
		Message:       fmt.Sprintf("ingesting %s as job %s", filename, docID),
		CorrelationID: tctx.CorrelationID,
		TenantID:      tctx.TenantID,
		Details: map[string]any{
			"doc_id":     docID,
			"filename":   filename,
			"mime_type":  mimeType,
			"size_bytes": len(data),
			"level":      level,
		},
	})

	if err := o.transition(ctx, tctx, docID, domain.StatePending, domain.StateProcessing, ""); err != nil {
		return nil, err
	}

	report, err := o.process(ctx, tctx, docID, filename, mimeType, data, level)
	if err != nil {
		o.fail(ctx, tctx, docID, err)
		return nil, err
	}

	if err := o.transition(ctx, tctx, docID, domain.StateProcessing, domain.StateComplete, ""); err != nil {
		return nil, err
	}

	o.events.Log(driven.Event{
		Level:         driven.LevelInfo,
		Source:        "INGEST",
		Action:        "INGEST_COMPLETE",
		Message:       fmt.Sprintf("job %s complete: %d chunks", docID, report.ChunkCount),
		CorrelationID: tctx.CorrelationID,
		TenantID:      tctx.TenantID,
		Details: map[string]any{
			"doc_id":       docID,
			"chunk_count":  report.ChunkCount,
			"deduplicated": report.Blob.Deduplicated,
		},
	})
	return report, nil
}

// process runs the failable middle of the pipeline.
func (o *IngestOrchestrator) process(ctx context.Context, tctx domain.TenantContext, docID, filename, mimeType string, data []byte, level string) (*driving.IngestReport, error) {
	blobResult, err := o.blobs.GetOrCreate(ctx, tctx, docID, data, domain.BlobMetadata{
		MimeType:     mimeType,
		OriginalName: filename,
	})
	if err != nil {
		return nil, fmt.Errorf("store payload: %w", err)
	}

	normalised := domain.NormaliseLevel(level)
	chunks, err := o.chunking.Chunk(ctx, tctx, string(data), level, driving.ChunkingMetadata{Filename: filename})
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}

	for i := range chunks {
		chunks[i].DocID = docID
	}
	if err := o.chunkStore.SaveChunks(ctx, docID, chunks); err != nil {
		return nil, fmt.Errorf("persist chunks: %w", err)
	}

	return &driving.IngestReport{
		DocID:      docID,
		Blob:       *blobResult,
		ChunkCount: len(chunks),
		Level:      normalised,
	}, nil
}

// transition moves the job through the validator then writes the status.
func (o *IngestOrchestrator) transition(ctx context.Context, tctx domain.TenantContext, docID string, from, to domain.IngestState, errMsg string) error {
	if err := o.validator.Validate(tctx, docID, from, to); err != nil {
		return err
	}
	if err := o.jobs.UpdateStatus(ctx, docID, to, errMsg); err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	return nil
}

// fail lands the job in FAILED and dead-letters it. Failures inside this
// path are logged, not returned: the pipeline error the caller gets is
// the original one.
func (o *IngestOrchestrator) fail(ctx context.Context, tctx domain.TenantContext, docID string, cause error) {
	if err := o.transition(ctx, tctx, docID, domain.StateProcessing, domain.StateFailed, cause.Error()); err != nil {
		o.events.Log(driven.Event{
			Level:         driven.LevelError,
			Source:        "INGEST",
			Action:        "INGEST_FAIL_TRANSITION_ERROR",
			Message:       fmt.Sprintf("could not mark job %s failed: %v", docID, err),
			CorrelationID: tctx.CorrelationID,
			TenantID:      tctx.TenantID,
			Details:       map[string]any{"doc_id": docID},
		})
	}

	_ = o.deadLetter.Add(ctx, driving.DeadLetterInput{
		TenantID:      tctx.TenantID,
		DocID:         docID,
		CorrelationID: tctx.CorrelationID,
		JobType:       domain.JobTypeDocumentAnalysis,
		FailureReason: cause.Error(),
		RetryCount:    0,
	})
}
