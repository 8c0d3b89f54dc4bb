package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/corpora-cli/internal/core/ports/driving"
)

// version is set at wiring time from the build.
var version = "dev"

// Package-level service handles, injected by SetServices before Execute.
// Commands nil-check their service and fail with a clear message when the
// wiring step was skipped.
var (
	ingestOrchestrator driving.IngestOrchestrator
	blobService        driving.BlobService
	deadLetterService  driving.DeadLetterService
	evaluationService  driving.EvaluationService
	recoveryService    driving.RecoveryService
	schedulerRunner    SchedulerRunner
)

// tenantID scopes every command to one tenant.
var tenantID string

var rootCmd = &cobra.Command{
	Use:   "corpora",
	Short: "Multi-tenant knowledge base ingestion and quality pipeline",
	Long: `Corpora ingests documents into a tenant-scoped knowledge base with
content-addressable deduplication, multi-level chunking, validated job
state transitions, and an evaluation loop that judges generated answers.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&tenantID, "tenant", "t", "", "Tenant identifier scoping the operation")
}

// Services bundles the driving ports the CLI layer depends on.
type Services struct {
	Ingest     driving.IngestOrchestrator
	Blobs      driving.BlobService
	DeadLetter driving.DeadLetterService
	Evaluation driving.EvaluationService
	Recovery   driving.RecoveryService
	Scheduler  SchedulerRunner
}

// SetServices wires the service implementations into the command tree.
func SetServices(s Services) {
	ingestOrchestrator = s.Ingest
	blobService = s.Blobs
	deadLetterService = s.DeadLetter
	evaluationService = s.Evaluation
	recoveryService = s.Recovery
	schedulerRunner = s.Scheduler
}

// SetVersion records the build version printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
