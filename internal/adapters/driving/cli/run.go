package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// SchedulerRunner is the background maintenance loop started by the run
// command: periodic stuck-job sweeps and blob garbage collection.
type SchedulerRunner interface {
	Start(ctx context.Context) error
	Stop() error
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the background maintenance scheduler",
	Long: `Starts the periodic stuck-job sweep and blob garbage collection and
blocks until interrupted.`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runScheduler(cmd *cobra.Command, _ []string) error {
	if schedulerRunner == nil {
		return errors.New("scheduler not configured")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start blocks until Stop, so it runs in its own goroutine and the
	// command waits on either a signal or a startup failure.
	errCh := make(chan error, 1)
	go func() {
		errCh <- schedulerRunner.Start(ctx)
	}()

	cmd.Println("Scheduler running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("scheduler stopped unexpectedly: %w", err)
		}
		return nil
	case <-sigCh:
	}

	cmd.Println("\nStopping scheduler...")
	if err := schedulerRunner.Stop(); err != nil {
		return fmt.Errorf("failed to stop scheduler: %w", err)
	}

	cmd.Println("Scheduler stopped.")
	return nil
}
