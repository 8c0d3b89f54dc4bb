package services

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driving"
)

// DefaultStuckThreshold is how long a job may sit in PROCESSING before it
// is considered wedged. Normal documents finish in seconds; half an hour
// means the handler died without reaching a terminal state.
const DefaultStuckThreshold = 30 * time.Minute

// Ensure RecoveryService implements the interface.
var _ driving.RecoveryService = (*RecoveryService)(nil)

// RecoveryService finds jobs wedged in PROCESSING and forces them to
// FAILED through the transition validator, dead-lettering each one so the
// failure stays auditable.
type RecoveryService struct {
	jobs       driven.IngestionJobStore
	deadLetter driving.DeadLetterService
	validator  *StateTransitionValidator
	events     driven.EventLogger
	threshold  time.Duration
	clock      func() time.Time
}

// RecoveryOption configures a RecoveryService.
type RecoveryOption func(*RecoveryService)

// WithStuckThreshold overrides the staleness threshold.
func WithStuckThreshold(d time.Duration) RecoveryOption {
	return func(s *RecoveryService) {
		if d > 0 {
			s.threshold = d
		}
	}
}

// WithRecoveryClock overrides the clock. Test hook.
func WithRecoveryClock(clock func() time.Time) RecoveryOption {
	return func(s *RecoveryService) { s.clock = clock }
}

// NewRecoveryService creates a new stuck-job recovery service.
func NewRecoveryService(jobs driven.IngestionJobStore, deadLetter driving.DeadLetterService, validator *StateTransitionValidator, events driven.EventLogger, opts ...RecoveryOption) *RecoveryService {
	s := &RecoveryService{
		jobs:       jobs,
		deadLetter: deadLetter,
		validator:  validator,
		events:     events,
		threshold:  DefaultStuckThreshold,
		clock:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DetectStuckJobs lists jobs wedged in PROCESSING past the threshold.
// Each discovery is logged at WARN.
func (s *RecoveryService) DetectStuckJobs(ctx context.Context) ([]driving.StuckJobReport, error) {
	now := s.clock()
	stale, err := s.jobs.ListStaleProcessing(ctx, now.Add(-s.threshold))
	if err != nil {
		return nil, fmt.Errorf("list stale jobs: %w", err)
	}

	reports := make([]driving.StuckJobReport, 0, len(stale))
	for _, job := range stale {
		report := driving.StuckJobReport{
			DocID:         job.DocID,
			TenantID:      job.TenantID,
			CorrelationID: job.CorrelationID,
			Filename:      job.Filename,
			StuckDuration: now.Sub(job.UpdatedAt),
		}
		reports = append(reports, report)

		s.events.Log(driven.Event{
			Level:         driven.LevelWarn,
			Source:        "STUCK_DETECTOR",
			Action:        "STUCK_JOB_DETECTED",
			Message:       fmt.Sprintf("job %s stuck in PROCESSING for %s", job.DocID, report.StuckDuration.Round(time.Second)),
			CorrelationID: job.CorrelationID,
			TenantID:      job.TenantID,
			Details: map[string]any{
				"doc_id":         job.DocID,
				"filename":       job.Filename,
				"stuck_duration": report.StuckDuration.String(),
			},
		})
	}
	return reports, nil
}

// RecoverStuckJobs forces each stuck job to FAILED and dead-letters it.
// A failure on one job is counted and the sweep continues.
func (s *RecoveryService) RecoverStuckJobs(ctx context.Context) (*driving.RecoveryResult, error) {
	stuck, err := s.DetectStuckJobs(ctx)
	if err != nil {
		return nil, err
	}

	result := &driving.RecoveryResult{}
	for _, report := range stuck {
		if err := s.recoverOne(ctx, report); err != nil {
			result.Errors++
			s.events.Log(driven.Event{
				Level:         driven.LevelError,
				Source:        "STUCK_DETECTOR",
				Action:        "STUCK_RECOVERY_FAILED",
				Message:       fmt.Sprintf("could not recover job %s: %v", report.DocID, err),
				CorrelationID: report.CorrelationID,
				TenantID:      report.TenantID,
				Details:       map[string]any{"doc_id": report.DocID},
			})
			continue
		}
		result.Recovered++
	}
	return result, nil
}

func (s *RecoveryService) recoverOne(ctx context.Context, report driving.StuckJobReport) error {
	tctx := domain.TenantContext{
		TenantID:      report.TenantID,
		CorrelationID: report.CorrelationID,
		Actor:         "stuck-detector",
	}

	// Same gate as the ingestion pipeline, asserting the PROCESSING
	// state observed at detection. The gate does not re-read the row;
	// the staleness threshold is what keeps a detected job from racing
	// an active handler.
	if err := s.validator.Validate(tctx, report.DocID, domain.StateProcessing, domain.StateFailed); err != nil {
		return err
	}

	reason := fmt.Sprintf("recovered by stuck detector after %s in PROCESSING", report.StuckDuration.Round(time.Second))
	if err := s.jobs.UpdateStatus(ctx, report.DocID, domain.StateFailed, reason); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	return s.deadLetter.Add(ctx, driving.DeadLetterInput{
		TenantID:      report.TenantID,
		DocID:         report.DocID,
		CorrelationID: report.CorrelationID,
		JobType:       domain.JobTypeDocumentAnalysis,
		FailureReason: reason,
		RetryCount:    0,
	})
}

// RunPeriodicCheck is the scheduler entrypoint.
func (s *RecoveryService) RunPeriodicCheck(ctx context.Context) error {
	result, err := s.RecoverStuckJobs(ctx)
	if err != nil {
		return fmt.Errorf("recovery sweep: %w", err)
	}

	if result.Recovered > 0 || result.Errors > 0 {
		s.events.Log(driven.Event{
			Level:   driven.LevelInfo,
			Source:  "STUCK_DETECTOR",
			Action:  "STUCK_SWEEP_COMPLETE",
			Message: fmt.Sprintf("sweep recovered %d jobs, %d errors", result.Recovered, result.Errors),
			Details: map[string]any{
				"recovered": result.Recovered,
				"errors":    result.Errors,
			},
		})
	}
	return nil
}
