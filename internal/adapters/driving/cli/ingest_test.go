package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driving"
)

// mockIngestOrchestrator implements driving.IngestOrchestrator for testing.
type mockIngestOrchestrator struct {
	report       *driving.IngestReport
	err          error
	lastFilename string
	lastLevel    string
	lastTenant   domain.TenantContext
}

func (m *mockIngestOrchestrator) Ingest(_ context.Context, tctx domain.TenantContext, filename, _ string, _ []byte, level string) (*driving.IngestReport, error) {
	m.lastTenant = tctx
	m.lastFilename = filename
	m.lastLevel = level
	return m.report, m.err
}

func setupIngestTest(mock *mockIngestOrchestrator) func() {
	oldService := ingestOrchestrator
	ingestOrchestrator = mock
	return func() {
		ingestOrchestrator = oldService
		tenantID = ""
		ingestLevel = "SIMPLE"
	}
}

func writeTempDoc(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "notes.md")
	require.NoError(t, os.WriteFile(path, []byte("# Title\n\nSome content.\n"), 0600))
	return path
}

func TestIngestCmd_IngestsFile(t *testing.T) {
	mock := &mockIngestOrchestrator{
		report: &driving.IngestReport{
			DocID:      "doc-1",
			ChunkCount: 3,
			Level:      domain.LevelSimple,
			Blob:       domain.BlobResult{MD5: "abc123"},
		},
	}
	cleanup := setupIngestTest(mock)
	defer cleanup()

	out, err := execute("ingest", writeTempDoc(t), "--tenant", "tenant-1")

	assert.NoError(t, err)
	assert.Equal(t, "notes.md", mock.lastFilename)
	assert.Equal(t, "SIMPLE", mock.lastLevel)
	assert.Equal(t, "tenant-1", mock.lastTenant.TenantID)
	assert.NotEmpty(t, mock.lastTenant.CorrelationID)
	assert.Contains(t, out, "doc-1")
	assert.Contains(t, out, "Chunks: 3")
	assert.Contains(t, out, "abc123 (new)")
}

func TestIngestCmd_ReportsDeduplication(t *testing.T) {
	mock := &mockIngestOrchestrator{
		report: &driving.IngestReport{
			DocID: "doc-2",
			Level: domain.LevelSemantic,
			Blob:  domain.BlobResult{MD5: "abc123", Deduplicated: true, SavedBytes: 1024},
		},
	}
	cleanup := setupIngestTest(mock)
	defer cleanup()

	out, err := execute("ingest", writeTempDoc(t), "--tenant", "tenant-1", "--level", "SEMANTIC")

	assert.NoError(t, err)
	assert.Equal(t, "SEMANTIC", mock.lastLevel)
	assert.Contains(t, out, "deduplicated, 1024 bytes saved")
}

func TestIngestCmd_RequiresTenant(t *testing.T) {
	cleanup := setupIngestTest(&mockIngestOrchestrator{})
	defer cleanup()

	_, err := execute("ingest", writeTempDoc(t))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "--tenant is required")
}

func TestIngestCmd_MissingFile(t *testing.T) {
	cleanup := setupIngestTest(&mockIngestOrchestrator{})
	defer cleanup()

	_, err := execute("ingest", "/nonexistent/file.md", "--tenant", "tenant-1")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}
