package driving

import (
	"context"
	"time"
)

// StuckJobReport describes one job found wedged in PROCESSING.
type StuckJobReport struct {
	// DocID is the wedged document.
	DocID string

	// TenantID is the owning tenant.
	TenantID string

	// CorrelationID threads to the original ingestion, when known.
	CorrelationID string

	// Filename is the original upload name, when known.
	Filename string

	// StuckDuration is how long the job has been wedged.
	StuckDuration time.Duration
}

// RecoveryResult aggregates one recovery sweep.
type RecoveryResult struct {
	// Recovered is how many jobs were forced to FAILED and dead-lettered.
	Recovered int

	// Errors counts per-job recovery failures; they do not abort the
	// sweep of the remaining jobs.
	Errors int
}

// RecoveryService finds and recovers stuck ingestion jobs. It is designed
// to be invoked by an external scheduler and is idempotent: a job actively
// updated by its owning handler is never falsely recovered.
type RecoveryService interface {
	// DetectStuckJobs lists jobs wedged in PROCESSING past the
	// staleness threshold.
	DetectStuckJobs(ctx context.Context) ([]StuckJobReport, error)

	// RecoverStuckJobs forces each stuck job through the validator into
	// FAILED and enqueues a dead-letter entry per job.
	RecoverStuckJobs(ctx context.Context) (*RecoveryResult, error)

	// RunPeriodicCheck is the scheduler entrypoint: detect, recover, log.
	RunPeriodicCheck(ctx context.Context) error
}
