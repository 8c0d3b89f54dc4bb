package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpora-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

type recoveryFixture struct {
	svc      *RecoveryService
	jobs     *memory.IngestionJobStore
	dlqStore *memory.DeadLetterStore
	events   *recordingLogger
	now      time.Time
}

func newRecoveryFixture(t *testing.T) *recoveryFixture {
	t.Helper()

	jobs := memory.NewIngestionJobStore()
	dlqStore := memory.NewDeadLetterStore()
	events := &recordingLogger{}
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	dlq := NewDeadLetterService(dlqStore, events)
	svc := NewRecoveryService(jobs, dlq, NewStateTransitionValidator(events), events,
		WithRecoveryClock(func() time.Time { return now }))

	return &recoveryFixture{svc: svc, jobs: jobs, dlqStore: dlqStore, events: events, now: now}
}

func (f *recoveryFixture) addJob(t *testing.T, docID string, status domain.IngestState, age time.Duration) {
	t.Helper()
	require.NoError(t, f.jobs.Save(context.Background(), domain.IngestionJob{
		DocID:         docID,
		TenantID:      "tenant-1",
		CorrelationID: "corr-" + docID,
		Status:        status,
		Filename:      docID + ".pdf",
		CreatedAt:     f.now.Add(-age),
		UpdatedAt:     f.now.Add(-age),
	}))
}

func TestRecoveryService_DetectStuckJobs(t *testing.T) {
	f := newRecoveryFixture(t)
	f.addJob(t, "stuck", domain.StateProcessing, 45*time.Minute)
	f.addJob(t, "fresh", domain.StateProcessing, 5*time.Minute)
	f.addJob(t, "done", domain.StateComplete, 2*time.Hour)

	reports, err := f.svc.DetectStuckJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "stuck", reports[0].DocID)
	assert.Equal(t, "tenant-1", reports[0].TenantID)
	assert.Equal(t, 45*time.Minute, reports[0].StuckDuration)

	detected := f.events.byAction("STUCK_JOB_DETECTED")
	require.Len(t, detected, 1)
	assert.Equal(t, driven.LevelWarn, detected[0].Level)
}

func TestRecoveryService_RecoverStuckJobs(t *testing.T) {
	f := newRecoveryFixture(t)
	f.addJob(t, "stuck-1", domain.StateProcessing, 40*time.Minute)
	f.addJob(t, "stuck-2", domain.StateProcessing, 90*time.Minute)
	f.addJob(t, "fresh", domain.StateProcessing, time.Minute)
	ctx := context.Background()

	result, err := f.svc.RecoverStuckJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Recovered)
	assert.Equal(t, 0, result.Errors)

	for _, docID := range []string{"stuck-1", "stuck-2"} {
		job, err := f.jobs.Get(ctx, docID)
		require.NoError(t, err)
		assert.Equal(t, domain.StateFailed, job.Status)
		assert.Contains(t, job.Error, "stuck detector")
	}

	fresh, err := f.jobs.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.Equal(t, domain.StateProcessing, fresh.Status)

	entries, err := f.dlqStore.List(ctx, "tenant-1", driven.DeadLetterListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.Equal(t, domain.JobTypeDocumentAnalysis, entry.JobType)
		assert.Equal(t, 0, entry.RetryCount)
		assert.NotEmpty(t, entry.AuditHash)
	}
}

func TestRecoveryService_RacedJobNotRecoveredTwice(t *testing.T) {
	f := newRecoveryFixture(t)
	f.addJob(t, "stuck-1", domain.StateProcessing, 40*time.Minute)
	f.addJob(t, "stuck-2", domain.StateProcessing, 40*time.Minute)
	ctx := context.Background()

	// A job that reached a terminal state between sweeps must not be
	// touched again.
	require.NoError(t, f.jobs.UpdateStatus(ctx, "stuck-1", domain.StateFailed, "raced"))

	result, err := f.svc.RecoverStuckJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Recovered)
	assert.Equal(t, 0, result.Errors)

	raced, err := f.jobs.Get(ctx, "stuck-1")
	require.NoError(t, err)
	assert.Equal(t, "raced", raced.Error)

	job, err := f.jobs.Get(ctx, "stuck-2")
	require.NoError(t, err)
	assert.Equal(t, domain.StateFailed, job.Status)
}

func TestRecoveryService_CustomThreshold(t *testing.T) {
	jobs := memory.NewIngestionJobStore()
	events := &recordingLogger{}
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	svc := NewRecoveryService(jobs, NewDeadLetterService(memory.NewDeadLetterStore(), events), NewStateTransitionValidator(events), events,
		WithStuckThreshold(10*time.Minute),
		WithRecoveryClock(func() time.Time { return now }))

	require.NoError(t, jobs.Save(context.Background(), domain.IngestionJob{
		DocID: "doc-1", TenantID: "tenant-1", Status: domain.StateProcessing,
		UpdatedAt: now.Add(-15 * time.Minute),
	}))

	reports, err := svc.DetectStuckJobs(context.Background())
	require.NoError(t, err)
	assert.Len(t, reports, 1)
}

func TestRecoveryService_RunPeriodicCheck(t *testing.T) {
	f := newRecoveryFixture(t)
	f.addJob(t, "stuck", domain.StateProcessing, time.Hour)

	require.NoError(t, f.svc.RunPeriodicCheck(context.Background()))
	assert.Len(t, f.events.byAction("STUCK_SWEEP_COMPLETE"), 1)
}
