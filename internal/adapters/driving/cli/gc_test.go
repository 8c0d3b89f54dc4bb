package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driving"
)

// mockBlobService implements driving.BlobService for testing.
type mockBlobService struct {
	orphans []domain.FileBlob
	report  *driving.GCReport
	gcRuns  int
}

func (m *mockBlobService) GetOrCreate(_ context.Context, _ domain.TenantContext, _ string, _ []byte, _ domain.BlobMetadata) (*domain.BlobResult, error) {
	return nil, nil
}

func (m *mockBlobService) RemoveReference(_ context.Context, _ domain.TenantContext, _, _ string) error {
	return nil
}

func (m *mockBlobService) FindOrphaned(_ context.Context) ([]domain.FileBlob, error) {
	return m.orphans, nil
}

func (m *mockBlobService) DeleteOrphaned(_ context.Context, _, _ string) error {
	return nil
}

func (m *mockBlobService) RunGarbageCollection(_ context.Context, _ string) (*driving.GCReport, error) {
	m.gcRuns++
	return m.report, nil
}

func setupGCTest(mock *mockBlobService) func() {
	oldService := blobService
	blobService = mock
	return func() {
		blobService = oldService
		gcDryRun = false
	}
}

func TestGCCmd_RunsSweep(t *testing.T) {
	mock := &mockBlobService{
		report: &driving.GCReport{Candidates: 4, Deleted: 3, Skipped: 1, FreedBytes: 2048},
	}
	cleanup := setupGCTest(mock)
	defer cleanup()

	out, err := execute("gc")

	assert.NoError(t, err)
	assert.Equal(t, 1, mock.gcRuns)
	assert.Contains(t, out, "Deleted:    3")
	assert.Contains(t, out, "Skipped:    1")
	assert.Contains(t, out, "Freed:      2048 bytes")
}

func TestGCCmd_DryRunListsOrphans(t *testing.T) {
	mock := &mockBlobService{
		orphans: []domain.FileBlob{
			{MD5: "abc123", SizeBytes: 512, OriginalName: "report.pdf"},
		},
	}
	cleanup := setupGCTest(mock)
	defer cleanup()

	out, err := execute("gc", "--dry-run")

	assert.NoError(t, err)
	assert.Zero(t, mock.gcRuns)
	assert.Contains(t, out, "abc123")
	assert.Contains(t, out, "report.pdf")
}

func TestGCCmd_DryRunEmpty(t *testing.T) {
	cleanup := setupGCTest(&mockBlobService{})
	defer cleanup()

	out, err := execute("gc", "--dry-run")

	assert.NoError(t, err)
	assert.Contains(t, out, "No orphaned blobs.")
}
