package cli

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a document into the knowledge base",
	Long: `Reads a file, deduplicates its content against existing blobs, chunks
it at the requested level, and records the ingestion job. A failed
pipeline stage moves the job to FAILED and dead-letters it.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

// ingestLevel selects the chunking strategy for the ingest command.
var ingestLevel string

func init() {
	ingestCmd.Flags().StringVarP(&ingestLevel, "level", "l", "SIMPLE", "Chunking level (SIMPLE, SEMANTIC, GENERATIVE)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestOrchestrator == nil {
		return errors.New("ingest service not configured")
	}
	if tenantID == "" {
		return errors.New("--tenant is required")
	}

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	filename := filepath.Base(path)
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	tctx := domain.TenantContext{
		TenantID:      tenantID,
		CorrelationID: uuid.NewString(),
		Actor:         "cli",
	}

	cmd.Printf("Ingesting %s (%d bytes)...\n", filename, len(data))

	report, err := ingestOrchestrator.Ingest(context.Background(), tctx, filename, mimeType, data, ingestLevel)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	cmd.Printf("\nDocument: %s\n", report.DocID)
	cmd.Printf("  Level:  %s\n", report.Level)
	cmd.Printf("  Chunks: %d\n", report.ChunkCount)
	if report.Blob.Deduplicated {
		cmd.Printf("  Blob:   %s (deduplicated, %d bytes saved)\n", report.Blob.MD5, report.Blob.SavedBytes)
	} else {
		cmd.Printf("  Blob:   %s (new)\n", report.Blob.MD5)
	}

	return nil
}
