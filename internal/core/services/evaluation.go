package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driving"
)

const (
	// CorrectionThreshold is the judge score below which a
	// self-correction pass is attempted.
	CorrectionThreshold = 0.8

	// metricsWindow is how many recent evaluations feed the rolling
	// aggregate.
	metricsWindow = 100

	// fallbackJudgeModel marks records persisted when the judge itself
	// failed. Their zero scores drag the aggregate down on purpose: a
	// broken judge must surface in the dashboard, not hide.
	fallbackJudgeModel = "fallback"
)

// Ensure EvaluationService implements the interface.
var _ driving.EvaluationService = (*EvaluationService)(nil)

// EvaluationService judges generated answers against their retrieval
// context and runs at most one self-correction pass per query.
type EvaluationService struct {
	llm    driven.LLMService
	store  driven.EvaluationStore
	events driven.EventLogger
	clock  func() time.Time
}

// NewEvaluationService creates a new evaluation service.
func NewEvaluationService(llm driven.LLMService, store driven.EvaluationStore, events driven.EventLogger) *EvaluationService {
	return &EvaluationService{
		llm:    llm,
		store:  store,
		events: events,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// judgeVerdict is the judge model's JSON response shape.
type judgeVerdict struct {
	Faithfulness     float64 `json:"faithfulness"`
	AnswerRelevance  float64 `json:"answer_relevance"`
	ContextPrecision float64 `json:"context_precision"`
	Reasoning        string  `json:"reasoning"`
	CausalAnalysis   *struct {
		CauseID     string `json:"cause_id"`
		FixStrategy string `json:"fix_strategy"`
	} `json:"causal_analysis"`
}

// EvaluateQuery judges one answer. Judge failure never fails the caller:
// a zero-score record is persisted instead so the gap stays visible.
func (s *EvaluationService) EvaluateQuery(ctx context.Context, tctx domain.TenantContext, query, generation string, contexts []string) (*domain.RagEvaluation, error) {
	if !tctx.Valid() {
		return nil, domain.NewValidationError("tenant", "tenant and correlation identifiers are required")
	}
	if strings.TrimSpace(query) == "" {
		return nil, domain.NewValidationError("query", "query must not be empty")
	}

	first := s.judge(ctx, tctx, query, generation, contexts)
	if err := s.persist(ctx, first); err != nil {
		return nil, err
	}

	if !s.shouldCorrect(first) {
		return first, nil
	}

	corrected, err := s.selfCorrect(ctx, tctx, query, contexts, first)
	if err != nil {
		// The first record is already persisted; a failed correction
		// pass is logged and the original verdict stands.
		s.events.Log(driven.Event{
			Level:         driven.LevelWarn,
			Source:        "EVALUATION",
			Action:        "SELF_CORRECTION_FAILED",
			Message:       fmt.Sprintf("self-correction failed: %v", err),
			CorrelationID: tctx.CorrelationID,
			TenantID:      tctx.TenantID,
			Details:       map[string]any{"evaluation_id": first.ID},
		})
		return first, nil
	}

	if err := s.persist(ctx, corrected); err != nil {
		return nil, err
	}
	return corrected, nil
}

// judge runs one judge call and shapes the result into a record. On any
// judge failure it returns the zero-score fallback record.
func (s *EvaluationService) judge(ctx context.Context, tctx domain.TenantContext, query, generation string, contexts []string) *domain.RagEvaluation {
	record := &domain.RagEvaluation{
		ID:            uuid.NewString(),
		TenantID:      tctx.TenantID,
		CorrelationID: tctx.CorrelationID,
		Query:         query,
		Generation:    generation,
		ContextChunks: contexts,
		Timestamp:     s.clock(),
	}

	if s.llm == nil {
		return s.fallbackRecord(record, "no judge model configured")
	}

	raw, err := s.llm.Generate(ctx, buildJudgePrompt(query, generation, contexts), driven.GenerateOptions{
		MaxTokens:   512,
		Temperature: 0,
	})
	if err != nil {
		return s.fallbackRecord(record, fmt.Sprintf("judge call failed: %v", err))
	}

	verdict, err := parseVerdict(raw)
	if err != nil {
		return s.fallbackRecord(record, fmt.Sprintf("judge response unparseable: %v", err))
	}

	record.JudgeModel = s.llm.ModelName()
	record.Feedback = verdict.Reasoning
	record.Metrics = domain.EvaluationMetrics{
		Faithfulness:     clampScore(verdict.Faithfulness),
		AnswerRelevance:  clampScore(verdict.AnswerRelevance),
		ContextPrecision: clampScore(verdict.ContextPrecision),
	}
	if verdict.CausalAnalysis != nil {
		cause := domain.CauseID(strings.ToUpper(strings.TrimSpace(verdict.CausalAnalysis.CauseID)))
		if domain.ValidCause(cause) && verdict.CausalAnalysis.FixStrategy != "" {
			record.CausalAnalysis = &domain.CausalAnalysis{
				CauseID:     cause,
				FixStrategy: verdict.CausalAnalysis.FixStrategy,
			}
		}
	}
	return record
}

// fallbackRecord fills a record with zero scores and logs why.
func (s *EvaluationService) fallbackRecord(record *domain.RagEvaluation, reason string) *domain.RagEvaluation {
	record.JudgeModel = fallbackJudgeModel
	record.Metrics = domain.EvaluationMetrics{}
	record.Feedback = reason

	s.events.Log(driven.Event{
		Level:         driven.LevelError,
		Source:        "EVALUATION",
		Action:        "JUDGE_FALLBACK",
		Message:       reason,
		CorrelationID: record.CorrelationID,
		TenantID:      record.TenantID,
		Details:       map[string]any{"evaluation_id": record.ID},
	})
	return record
}

// shouldCorrect decides whether a correction pass runs: a below-threshold
// faithfulness or relevance score, plus an actionable fix strategy. A
// fallback record never triggers correction since its zero scores carry
// no diagnosis.
func (s *EvaluationService) shouldCorrect(record *domain.RagEvaluation) bool {
	if record.JudgeModel == fallbackJudgeModel || record.CausalAnalysis == nil || record.CausalAnalysis.FixStrategy == "" {
		return false
	}
	return record.Metrics.Faithfulness < CorrectionThreshold || record.Metrics.AnswerRelevance < CorrectionThreshold
}

// selfCorrect regenerates the answer once, guided by the fix strategy,
// and judges the new answer. The returned record links back to the
// original metrics.
func (s *EvaluationService) selfCorrect(ctx context.Context, tctx domain.TenantContext, query string, contexts []string, original *domain.RagEvaluation) (*domain.RagEvaluation, error) {
	s.events.Log(driven.Event{
		Level:         driven.LevelInfo,
		Source:        "EVALUATION",
		Action:        "SELF_CORRECTION_STARTED",
		Message:       fmt.Sprintf("regenerating answer, cause %s", original.CausalAnalysis.CauseID),
		CorrelationID: tctx.CorrelationID,
		TenantID:      tctx.TenantID,
		Details: map[string]any{
			"evaluation_id": original.ID,
			"cause_id":      string(original.CausalAnalysis.CauseID),
			"fix_strategy":  original.CausalAnalysis.FixStrategy,
		},
	})

	regenerated, err := s.llm.Generate(ctx, buildCorrectionPrompt(query, original.CausalAnalysis.FixStrategy, contexts), driven.GenerateOptions{
		MaxTokens:   1024,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("regenerate answer: %w", err)
	}

	corrected := s.judge(ctx, tctx, query, regenerated, contexts)
	corrected.SelfCorrected = true
	originalMetrics := original.Metrics
	corrected.OriginalEvaluation = &originalMetrics
	return corrected, nil
}

func (s *EvaluationService) persist(ctx context.Context, record *domain.RagEvaluation) error {
	if err := s.store.Insert(ctx, *record); err != nil {
		return fmt.Errorf("persist evaluation: %w", err)
	}
	return nil
}

// parseVerdict extracts the judge's JSON object from a raw completion,
// tolerating markdown fences and surrounding prose.
func parseVerdict(raw string) (*judgeVerdict, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.IndexByte(cleaned, '{')
	if start < 0 {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var verdict judgeVerdict
	dec := json.NewDecoder(strings.NewReader(cleaned[start:]))
	if err := dec.Decode(&verdict); err != nil {
		return nil, fmt.Errorf("decode verdict: %w", err)
	}
	return &verdict, nil
}

// clampScore forces a judge score into [0,1].
func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ListEvaluations returns a tenant's recent evaluations newest first.
func (s *EvaluationService) ListEvaluations(ctx context.Context, tenantID string, limit int) ([]domain.RagEvaluation, error) {
	if tenantID == "" {
		return nil, domain.NewValidationError("tenantID", "tenant is required")
	}
	if limit <= 0 {
		limit = 50
	}
	evals, err := s.store.List(ctx, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return evals, nil
}

// GetMetrics aggregates rolling averages and a daily trend series over the
// most recent evaluations.
func (s *EvaluationService) GetMetrics(ctx context.Context, tenantID string) (*domain.EvaluationReport, error) {
	evals, err := s.ListEvaluations(ctx, tenantID, metricsWindow)
	if err != nil {
		return nil, err
	}

	report := &domain.EvaluationReport{}
	if len(evals) == 0 {
		return report, nil
	}

	type dayAccum struct {
		faithfulness float64
		relevance    float64
		count        int
	}
	days := make(map[time.Time]*dayAccum)

	for _, eval := range evals {
		report.Summary.Faithfulness += eval.Metrics.Faithfulness
		report.Summary.Relevance += eval.Metrics.AnswerRelevance
		report.Summary.Precision += eval.Metrics.ContextPrecision

		day := eval.Timestamp.UTC().Truncate(24 * time.Hour)
		accum, ok := days[day]
		if !ok {
			accum = &dayAccum{}
			days[day] = accum
		}
		accum.faithfulness += eval.Metrics.Faithfulness
		accum.relevance += eval.Metrics.AnswerRelevance
		accum.count++
	}

	n := float64(len(evals))
	report.Summary.Faithfulness /= n
	report.Summary.Relevance /= n
	report.Summary.Precision /= n
	report.Summary.Count = len(evals)

	for day, accum := range days {
		report.Trends = append(report.Trends, domain.TrendPoint{
			Date:         day,
			Faithfulness: accum.faithfulness / float64(accum.count),
			Relevance:    accum.relevance / float64(accum.count),
		})
	}
	sort.Slice(report.Trends, func(i, j int) bool {
		return report.Trends[i].Date.Before(report.Trends[j].Date)
	})
	return report, nil
}
