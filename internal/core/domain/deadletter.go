package domain

import "time"

// JobType classifies the pipeline stage that produced a dead-letter entry.
type JobType string

// Dead-letter job types.
const (
	JobTypeDocumentAnalysis    JobType = "document-analysis"
	JobTypeEmbeddingGeneration JobType = "embedding-generation"
	JobTypeModelExtraction     JobType = "model-extraction"
)

// DeadLetterJob is a durable record of a job that exhausted retries or was
// recovered from a stuck state. Entries are append-only: the only legal
// mutation is flipping Resolved, and rows are never physically deleted.
type DeadLetterJob struct {
	// ID is the unique identifier for the entry.
	ID string

	// TenantID is the owning tenant.
	TenantID string

	// DocID is the document whose job failed.
	DocID string

	// CorrelationID threads the failed operation through logs.
	CorrelationID string

	// JobType is the pipeline stage that failed.
	JobType JobType

	// FailureReason is the human-readable cause.
	FailureReason string

	// RetryCount is how many attempts preceded this entry. Zero for
	// stuck-detection recoveries, which are detection rather than an
	// exhausted retry.
	RetryCount int

	// LastAttempt is when the job last ran.
	LastAttempt time.Time

	// AuditHash is a one-way digest over the identifying fields plus the
	// creation timestamp, computed once and never recomputed. It is a
	// tamper-evidence seal, not a lookup or dedup key.
	AuditHash string

	// CreatedAt is when the entry was enqueued.
	CreatedAt time.Time

	// Resolved marks operator intent to retry. Flipping it does not
	// re-run the job; re-ingestion is triggered externally.
	Resolved bool

	// ResolvedAt and ResolvedBy record the manual resolution.
	// ResolvedAt is nil until the entry is resolved.
	ResolvedAt *time.Time
	ResolvedBy string
}

// DeadLetterStats summarises a tenant's dead-letter queue.
type DeadLetterStats struct {
	// Total is the number of entries for the tenant.
	Total int

	// ByJobType counts entries per job type.
	ByJobType map[JobType]int

	// Unresolved is the number of entries awaiting operator action.
	Unresolved int
}
