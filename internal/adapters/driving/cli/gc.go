package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Garbage-collect orphaned blobs",
	Long: `Sweeps blobs whose reference count has dropped to zero, re-verifying
each one immediately before deletion. With --dry-run, lists the
candidates without deleting anything.`,
	RunE: runGC,
}

// gcDryRun lists orphan candidates without deleting.
var gcDryRun bool

func init() {
	gcCmd.Flags().BoolVar(&gcDryRun, "dry-run", false, "List orphaned blobs without deleting")
	rootCmd.AddCommand(gcCmd)
}

func runGC(cmd *cobra.Command, _ []string) error {
	if blobService == nil {
		return errors.New("blob service not configured")
	}

	ctx := context.Background()

	if gcDryRun {
		orphans, err := blobService.FindOrphaned(ctx)
		if err != nil {
			return fmt.Errorf("failed to list orphaned blobs: %w", err)
		}

		if len(orphans) == 0 {
			cmd.Println("No orphaned blobs.")
			return nil
		}

		cmd.Printf("Orphaned blobs (%d):\n\n", len(orphans))
		for i := range orphans {
			cmd.Printf("  %s\n", orphans[i].MD5)
			cmd.Printf("    Size:     %d bytes\n", orphans[i].SizeBytes)
			cmd.Printf("    Filename: %s\n", orphans[i].OriginalName)
			cmd.Println()
		}
		return nil
	}

	cmd.Println("Running garbage collection...")

	report, err := blobService.RunGarbageCollection(ctx, uuid.NewString())
	if err != nil {
		return fmt.Errorf("garbage collection failed: %w", err)
	}

	cmd.Printf("\nCandidates: %d\n", report.Candidates)
	cmd.Printf("Deleted:    %d\n", report.Deleted)
	cmd.Printf("Skipped:    %d\n", report.Skipped)
	cmd.Printf("Freed:      %d bytes\n", report.FreedBytes)
	if report.Errors > 0 {
		cmd.Printf("Errors:     %d\n", report.Errors)
	}

	return nil
}
