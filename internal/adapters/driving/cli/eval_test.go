package cli

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
)

// mockEvaluationService implements driving.EvaluationService for testing.
type mockEvaluationService struct {
	evals  []domain.RagEvaluation
	report *domain.EvaluationReport
}

func (m *mockEvaluationService) EvaluateQuery(_ context.Context, _ domain.TenantContext, _, _ string, _ []string) (*domain.RagEvaluation, error) {
	return nil, nil
}

func (m *mockEvaluationService) ListEvaluations(_ context.Context, _ string, _ int) ([]domain.RagEvaluation, error) {
	return m.evals, nil
}

func (m *mockEvaluationService) GetMetrics(_ context.Context, _ string) (*domain.EvaluationReport, error) {
	return m.report, nil
}

func setupEvalTest(mock *mockEvaluationService) func() {
	oldService := evaluationService
	evaluationService = mock
	return func() {
		evaluationService = oldService
		tenantID = ""
		evalLimit = 20
	}
}

func TestEvalListCmd_ListsEvaluations(t *testing.T) {
	original := domain.EvaluationMetrics{Faithfulness: 0.4, AnswerRelevance: 0.5, ContextPrecision: 0.6}
	mock := &mockEvaluationService{
		evals: []domain.RagEvaluation{
			{
				ID:                 "eval-2",
				Query:              "what is the refund policy?",
				Metrics:            domain.EvaluationMetrics{Faithfulness: 0.95, AnswerRelevance: 0.9, ContextPrecision: 0.8},
				JudgeModel:         "gpt-4o-mini",
				SelfCorrected:      true,
				OriginalEvaluation: &original,
				Timestamp:          time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
			},
		},
	}
	cleanup := setupEvalTest(mock)
	defer cleanup()

	out, err := execute("eval", "list", "--tenant", "tenant-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "eval-2")
	assert.Contains(t, out, "refund policy")
	assert.Contains(t, out, "Faithfulness: 0.95")
	assert.Contains(t, out, "Corrected from: faithfulness 0.40")
}

func TestEvalListCmd_RequiresTenant(t *testing.T) {
	cleanup := setupEvalTest(&mockEvaluationService{})
	defer cleanup()

	_, err := execute("eval", "list")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "--tenant is required")
}

func TestEvalMetricsCmd_PrintsReport(t *testing.T) {
	mock := &mockEvaluationService{
		report: &domain.EvaluationReport{
			Summary: domain.EvaluationSummary{Faithfulness: 0.91, Relevance: 0.88, Precision: 0.75, Count: 42},
			Trends: []domain.TrendPoint{
				{Date: time.Date(2026, 3, 13, 0, 0, 0, 0, time.UTC), Faithfulness: 0.9, Relevance: 0.85},
			},
		},
	}
	cleanup := setupEvalTest(mock)
	defer cleanup()

	out, err := execute("eval", "metrics", "--tenant", "tenant-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "last 42 evaluations")
	assert.Contains(t, out, "Faithfulness:      0.910")
	assert.Contains(t, out, "2026-03-13")
}

func TestEvalMetricsCmd_NoData(t *testing.T) {
	mock := &mockEvaluationService{report: &domain.EvaluationReport{}}
	cleanup := setupEvalTest(mock)
	defer cleanup()

	out, err := execute("eval", "metrics", "--tenant", "tenant-1")

	assert.NoError(t, err)
	assert.Contains(t, out, "No evaluations recorded.")
}
