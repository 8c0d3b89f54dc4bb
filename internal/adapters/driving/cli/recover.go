package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Detect and recover stuck ingestion jobs",
	Long: `Finds jobs wedged in PROCESSING past the staleness threshold, forces
them to FAILED through the transition validator, and dead-letters each
one. With --detect-only, lists stuck jobs without recovering them.`,
	RunE: runRecover,
}

// recoverDetectOnly lists stuck jobs without forcing them to FAILED.
var recoverDetectOnly bool

func init() {
	recoverCmd.Flags().BoolVar(&recoverDetectOnly, "detect-only", false, "List stuck jobs without recovering")
	rootCmd.AddCommand(recoverCmd)
}

func runRecover(cmd *cobra.Command, _ []string) error {
	if recoveryService == nil {
		return errors.New("recovery service not configured")
	}

	ctx := context.Background()

	if recoverDetectOnly {
		stuck, err := recoveryService.DetectStuckJobs(ctx)
		if err != nil {
			return fmt.Errorf("failed to detect stuck jobs: %w", err)
		}

		if len(stuck) == 0 {
			cmd.Println("No stuck jobs.")
			return nil
		}

		cmd.Printf("Stuck jobs (%d):\n\n", len(stuck))
		for i := range stuck {
			cmd.Printf("  %s\n", stuck[i].DocID)
			cmd.Printf("    Tenant:   %s\n", stuck[i].TenantID)
			cmd.Printf("    Filename: %s\n", stuck[i].Filename)
			cmd.Printf("    Stuck:    %s\n", stuck[i].StuckDuration.Round(0))
			cmd.Println()
		}
		return nil
	}

	cmd.Println("Recovering stuck jobs...")

	result, err := recoveryService.RecoverStuckJobs(ctx)
	if err != nil {
		return fmt.Errorf("recovery failed: %w", err)
	}

	cmd.Printf("\nRecovered: %d\n", result.Recovered)
	if result.Errors > 0 {
		cmd.Printf("Errors:    %d\n", result.Errors)
	}

	return nil
}
