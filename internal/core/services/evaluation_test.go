package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/corpora-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

// scriptedLLM returns canned responses in order, then errors.
type scriptedLLM struct {
	responses []string
	err       error
	prompts   []string
}

func (f *scriptedLLM) Generate(_ context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no scripted response left")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func (f *scriptedLLM) ModelName() string            { return "judge-test" }
func (f *scriptedLLM) Ping(_ context.Context) error { return nil }
func (f *scriptedLLM) Close() error                 { return nil }

const goodVerdict = `{
	"faithfulness": 0.95,
	"answer_relevance": 0.9,
	"context_precision": 0.7,
	"reasoning": "well grounded"
}`

const poorVerdict = `{
	"faithfulness": 0.4,
	"answer_relevance": 0.85,
	"context_precision": 0.6,
	"reasoning": "claims not in context",
	"causal_analysis": {"cause_id": "MODEL_HALLUCINATION", "fix_strategy": "only state facts present in the context"}
}`

func newEvalFixture(llm driven.LLMService) (*EvaluationService, *memory.EvaluationStore, *recordingLogger) {
	store := memory.NewEvaluationStore()
	events := &recordingLogger{}
	return NewEvaluationService(llm, store, events), store, events
}

func TestEvaluationService_GoodAnswerNoCorrection(t *testing.T) {
	llm := &scriptedLLM{responses: []string{goodVerdict}}
	svc, store, _ := newEvalFixture(llm)
	ctx := context.Background()

	record, err := svc.EvaluateQuery(ctx, testTenant(), "what is the refund policy?", "30 days.", []string{"Refunds within 30 days."})
	require.NoError(t, err)
	assert.InDelta(t, 0.95, record.Metrics.Faithfulness, 1e-9)
	assert.InDelta(t, 0.9, record.Metrics.AnswerRelevance, 1e-9)
	assert.Equal(t, "judge-test", record.JudgeModel)
	assert.Equal(t, "well grounded", record.Feedback)
	assert.False(t, record.SelfCorrected)
	assert.Nil(t, record.CausalAnalysis)

	// Exactly one record, one judge call.
	stored, err := store.List(ctx, "tenant-1", 10)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Len(t, llm.prompts, 1)
}

func TestEvaluationService_SelfCorrection(t *testing.T) {
	correctedVerdict := `{"faithfulness": 0.9, "answer_relevance": 0.9, "context_precision": 0.6, "reasoning": "now grounded"}`
	llm := &scriptedLLM{responses: []string{poorVerdict, "The corrected answer.", correctedVerdict}}
	svc, store, events := newEvalFixture(llm)
	ctx := context.Background()

	record, err := svc.EvaluateQuery(ctx, testTenant(), "query", "hallucinated answer", []string{"context"})
	require.NoError(t, err)

	// The returned record is the corrected one, linked to the original
	// metrics.
	assert.True(t, record.SelfCorrected)
	assert.Equal(t, "The corrected answer.", record.Generation)
	assert.InDelta(t, 0.9, record.Metrics.Faithfulness, 1e-9)
	require.NotNil(t, record.OriginalEvaluation)
	assert.InDelta(t, 0.4, record.OriginalEvaluation.Faithfulness, 1e-9)

	stored, err := store.List(ctx, "tenant-1", 10)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	// Regeneration prompt carries the fix strategy.
	require.Len(t, llm.prompts, 3)
	assert.Contains(t, llm.prompts[1], "only state facts present in the context")
	assert.Len(t, events.byAction("SELF_CORRECTION_STARTED"), 1)
}

func TestEvaluationService_NoFixStrategyNoCorrection(t *testing.T) {
	verdict := `{"faithfulness": 0.3, "answer_relevance": 0.5, "context_precision": 0.2, "reasoning": "poor"}`
	llm := &scriptedLLM{responses: []string{verdict}}
	svc, store, _ := newEvalFixture(llm)

	record, err := svc.EvaluateQuery(context.Background(), testTenant(), "query", "answer", nil)
	require.NoError(t, err)
	assert.False(t, record.SelfCorrected)

	stored, err := store.List(context.Background(), "tenant-1", 10)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Len(t, llm.prompts, 1)
}

func TestEvaluationService_JudgeErrorFallsBack(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("model unavailable")}
	svc, store, events := newEvalFixture(llm)

	record, err := svc.EvaluateQuery(context.Background(), testTenant(), "query", "answer", nil)
	require.NoError(t, err)
	assert.Equal(t, "fallback", record.JudgeModel)
	assert.Zero(t, record.Metrics.Faithfulness)
	assert.Zero(t, record.Metrics.AnswerRelevance)
	assert.Zero(t, record.Metrics.ContextPrecision)
	assert.False(t, record.SelfCorrected)

	stored, err := store.List(context.Background(), "tenant-1", 10)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Len(t, events.byAction("JUDGE_FALLBACK"), 1)
}

func TestEvaluationService_MalformedVerdictFallsBack(t *testing.T) {
	llm := &scriptedLLM{responses: []string{"I think the answer is pretty good overall!"}}
	svc, _, _ := newEvalFixture(llm)

	record, err := svc.EvaluateQuery(context.Background(), testTenant(), "query", "answer", nil)
	require.NoError(t, err)
	assert.Equal(t, "fallback", record.JudgeModel)
}

func TestEvaluationService_VerdictWithFencesAndClamping(t *testing.T) {
	fenced := "```json\n{\"faithfulness\": 1.4, \"answer_relevance\": -0.2, \"context_precision\": 0.5, \"reasoning\": \"odd scores\"}\n```"
	llm := &scriptedLLM{responses: []string{fenced}}
	svc, _, _ := newEvalFixture(llm)

	record, err := svc.EvaluateQuery(context.Background(), testTenant(), "query", "answer", nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, record.Metrics.Faithfulness)
	assert.Equal(t, 0.0, record.Metrics.AnswerRelevance)
}

func TestEvaluationService_EmptyQueryRejected(t *testing.T) {
	svc, _, _ := newEvalFixture(&scriptedLLM{})

	_, err := svc.EvaluateQuery(context.Background(), testTenant(), "  ", "answer", nil)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestEvaluationService_GetMetrics(t *testing.T) {
	svc, store, _ := newEvalFixture(&scriptedLLM{})
	ctx := context.Background()

	day1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	records := []domain.RagEvaluation{
		{ID: "e1", TenantID: "tenant-1", Metrics: domain.EvaluationMetrics{Faithfulness: 0.8, AnswerRelevance: 0.6, ContextPrecision: 0.4}, Timestamp: day1},
		{ID: "e2", TenantID: "tenant-1", Metrics: domain.EvaluationMetrics{Faithfulness: 0.6, AnswerRelevance: 0.8, ContextPrecision: 0.6}, Timestamp: day1.Add(time.Hour)},
		{ID: "e3", TenantID: "tenant-1", Metrics: domain.EvaluationMetrics{Faithfulness: 1.0, AnswerRelevance: 1.0, ContextPrecision: 1.0}, Timestamp: day2},
		{ID: "e4", TenantID: "tenant-2", Metrics: domain.EvaluationMetrics{Faithfulness: 0.1, AnswerRelevance: 0.1, ContextPrecision: 0.1}, Timestamp: day2},
	}
	for _, r := range records {
		require.NoError(t, store.Insert(ctx, r))
	}

	report, err := svc.GetMetrics(ctx, "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Summary.Count)
	assert.InDelta(t, 0.8, report.Summary.Faithfulness, 1e-9)
	assert.InDelta(t, 0.8, report.Summary.Relevance, 1e-9)
	assert.InDelta(t, (0.4+0.6+1.0)/3, report.Summary.Precision, 1e-9)

	require.Len(t, report.Trends, 2)
	assert.Equal(t, day1.Truncate(24*time.Hour), report.Trends[0].Date)
	assert.InDelta(t, 0.7, report.Trends[0].Faithfulness, 1e-9)
	assert.InDelta(t, 1.0, report.Trends[1].Faithfulness, 1e-9)
}

func TestEvaluationService_GetMetrics_Empty(t *testing.T) {
	svc, _, _ := newEvalFixture(&scriptedLLM{})

	report, err := svc.GetMetrics(context.Background(), "tenant-1")
	require.NoError(t, err)
	assert.Equal(t, 0, report.Summary.Count)
	assert.Empty(t, report.Trends)
}

func TestBuildJudgePrompt_DiagnosisCoversAllScores(t *testing.T) {
	prompt := buildJudgePrompt("what is the policy?", "The policy is X.", []string{"ctx one", "ctx two"})

	// Diagnosis is requested whenever any metric falls below threshold,
	// context_precision included.
	assert.Contains(t, prompt, "any of the three scores is below 0.8")
	assert.Contains(t, prompt, "all three scores are 0.8 or above")
	assert.Contains(t, prompt, "what is the policy?")
	assert.Contains(t, prompt, "[1] ctx one")
	assert.Contains(t, prompt, "[2] ctx two")
	assert.Contains(t, prompt, "The policy is X.")
}
