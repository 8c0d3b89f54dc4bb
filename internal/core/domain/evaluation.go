package domain

import "time"

// CauseID names the diagnosed root cause of a low-quality generation.
type CauseID string

// Causal analysis cause identifiers. Closed enumeration.
const (
	CauseMissingContext      CauseID = "MISSING_CONTEXT"
	CauseModelHallucination  CauseID = "MODEL_HALLUCINATION"
	CauseAmbiguousQuery      CauseID = "AMBIGUOUS_QUERY"
	CauseInstructionsIgnored CauseID = "INSTRUCTIONS_IGNORED"
	CausePoorReasoning       CauseID = "POOR_REASONING"
)

// ValidCause reports whether id is in the closed enumeration.
func ValidCause(id CauseID) bool {
	switch id {
	case CauseMissingContext, CauseModelHallucination, CauseAmbiguousQuery,
		CauseInstructionsIgnored, CausePoorReasoning:
		return true
	}
	return false
}

// EvaluationMetrics are the judge's three scores, each in [0,1].
type EvaluationMetrics struct {
	// Faithfulness scores whether the answer uses only information
	// present in the supplied context.
	Faithfulness float64

	// AnswerRelevance scores whether the answer addresses the query.
	AnswerRelevance float64

	// ContextPrecision scores what fraction of the supplied context
	// was actually useful.
	ContextPrecision float64
}

// CausalAnalysis is the judge's structured diagnosis, attached when any
// score falls below the correction threshold.
type CausalAnalysis struct {
	// CauseID is one of the closed cause enumeration.
	CauseID CauseID

	// FixStrategy is a concise natural-language instruction for the
	// generator to correct the error.
	FixStrategy string
}

// RagEvaluation is one judged answer. A self-correction pass creates a
// second, linked record rather than mutating the first, preserving the
// full audit history.
type RagEvaluation struct {
	// ID is the unique identifier for the record.
	ID string

	// TenantID is the owning tenant.
	TenantID string

	// CorrelationID links the evaluation to the serving request.
	CorrelationID string

	// Query is the user question.
	Query string

	// Generation is the answer text that was judged.
	Generation string

	// ContextChunks is the ordered list of context texts the answer was
	// synthesised from.
	ContextChunks []string

	// Metrics are the judge's scores.
	Metrics EvaluationMetrics

	// JudgeModel is the model that produced the scores, or "fallback"
	// when the judge call failed and a zero-score record was substituted.
	JudgeModel string

	// Feedback is the judge's free-text reasoning.
	Feedback string

	// CausalAnalysis is present when any score is below threshold.
	CausalAnalysis *CausalAnalysis

	// SelfCorrected is true on the second record of a correction pass.
	SelfCorrected bool

	// OriginalEvaluation snapshots the pre-correction metrics. Present
	// only when SelfCorrected.
	OriginalEvaluation *EvaluationMetrics

	// Timestamp is when the evaluation was persisted.
	Timestamp time.Time
}

// EvaluationSummary is the rolling aggregate over recent evaluations.
type EvaluationSummary struct {
	Faithfulness float64
	Relevance    float64
	Precision    float64
	Count        int
}

// TrendPoint is one day in the evaluation trend series.
type TrendPoint struct {
	// Date is the day, truncated to UTC midnight.
	Date time.Time

	// Faithfulness and Relevance are the day's averages.
	Faithfulness float64
	Relevance    float64
}

// EvaluationReport is the aggregate returned to the dashboard layer.
type EvaluationReport struct {
	Summary EvaluationSummary
	Trends  []TrendPoint
}
