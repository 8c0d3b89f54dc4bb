package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

var dlqCmd = &cobra.Command{
	Use:   "dlq",
	Short: "Inspect and resolve dead-lettered jobs",
	Long: `The dead-letter queue holds jobs that could not complete: failed
pipeline stages and recoveries of stuck jobs. Entries are never
deleted; retrying marks them resolved.`,
}

var dlqListCmd = &cobra.Command{
	Use:   "list",
	Short: "List dead-lettered jobs for a tenant",
	RunE:  runDLQList,
}

var dlqRetryCmd = &cobra.Command{
	Use:   "retry [job-id]",
	Short: "Mark a dead-lettered job resolved for retry",
	Args:  cobra.ExactArgs(1),
	RunE:  runDLQRetry,
}

var dlqStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise a tenant's dead-letter queue",
	RunE:  runDLQStats,
}

var (
	dlqLimit      int
	dlqSkip       int
	dlqUnresolved bool
	dlqRetryBy    string
)

func init() {
	dlqListCmd.Flags().IntVar(&dlqLimit, "limit", 20, "Maximum entries to list")
	dlqListCmd.Flags().IntVar(&dlqSkip, "skip", 0, "Entries to skip from the newest")
	dlqListCmd.Flags().BoolVar(&dlqUnresolved, "unresolved", false, "Only show unresolved entries")
	dlqRetryCmd.Flags().StringVar(&dlqRetryBy, "by", "cli", "Operator identity recorded on the resolution")

	dlqCmd.AddCommand(dlqListCmd)
	dlqCmd.AddCommand(dlqRetryCmd)
	dlqCmd.AddCommand(dlqStatsCmd)
	rootCmd.AddCommand(dlqCmd)
}

func runDLQList(cmd *cobra.Command, _ []string) error {
	if deadLetterService == nil {
		return errors.New("dead-letter service not configured")
	}
	if tenantID == "" {
		return errors.New("--tenant is required")
	}

	jobs, err := deadLetterService.GetFailedJobs(context.Background(), tenantID, driven.DeadLetterListOptions{
		Limit:          dlqLimit,
		Skip:           dlqSkip,
		UnresolvedOnly: dlqUnresolved,
	})
	if err != nil {
		return fmt.Errorf("failed to list dead-letter jobs: %w", err)
	}

	if len(jobs) == 0 {
		cmd.Println("No dead-letter entries.")
		return nil
	}

	cmd.Printf("Dead-letter entries for tenant %s:\n\n", tenantID)
	for i := range jobs {
		status := "unresolved"
		if jobs[i].Resolved && jobs[i].ResolvedAt != nil {
			status = fmt.Sprintf("resolved by %s at %s", jobs[i].ResolvedBy, jobs[i].ResolvedAt.Format("2006-01-02 15:04:05"))
		}

		cmd.Printf("  %s\n", jobs[i].ID)
		cmd.Printf("    Document: %s\n", jobs[i].DocID)
		cmd.Printf("    Type:     %s\n", jobs[i].JobType)
		cmd.Printf("    Reason:   %s\n", jobs[i].FailureReason)
		cmd.Printf("    Created:  %s\n", jobs[i].CreatedAt.Format("2006-01-02 15:04:05"))
		cmd.Printf("    Status:   %s\n", status)
		cmd.Println()
	}

	cmd.Printf("Total: %d entries\n", len(jobs))
	return nil
}

func runDLQRetry(cmd *cobra.Command, args []string) error {
	if deadLetterService == nil {
		return errors.New("dead-letter service not configured")
	}
	if tenantID == "" {
		return errors.New("--tenant is required")
	}

	jobID := args[0]
	if err := deadLetterService.RetryJob(context.Background(), jobID, tenantID, dlqRetryBy); err != nil {
		return fmt.Errorf("failed to retry job: %w", err)
	}

	cmd.Printf("Job %s marked resolved. Re-ingest the document to retry.\n", jobID)
	return nil
}

func runDLQStats(cmd *cobra.Command, _ []string) error {
	if deadLetterService == nil {
		return errors.New("dead-letter service not configured")
	}
	if tenantID == "" {
		return errors.New("--tenant is required")
	}

	stats, err := deadLetterService.GetStats(context.Background(), tenantID)
	if err != nil {
		return fmt.Errorf("failed to get stats: %w", err)
	}

	cmd.Printf("Dead-letter queue for tenant %s:\n\n", tenantID)
	cmd.Printf("  Total:      %d\n", stats.Total)
	cmd.Printf("  Unresolved: %d\n", stats.Unresolved)
	if len(stats.ByJobType) > 0 {
		cmd.Println("\n  By job type:")
		for jobType, count := range stats.ByJobType {
			cmd.Printf("    %-22s %d\n", jobType, count)
		}
	}

	return nil
}
