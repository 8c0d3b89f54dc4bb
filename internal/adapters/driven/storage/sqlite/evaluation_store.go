package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/custodia-labs/corpora-cli/internal/core/domain"
	"github.com/custodia-labs/corpora-cli/internal/core/ports/driven"
)

// evaluationStore implements driven.EvaluationStore.
type evaluationStore struct {
	store *Store
}

var _ driven.EvaluationStore = (*evaluationStore)(nil)

// Insert appends an evaluation record.
func (s *evaluationStore) Insert(ctx context.Context, eval domain.RagEvaluation) error {
	contextsJSON, err := json.Marshal(eval.ContextChunks)
	if err != nil {
		return fmt.Errorf("marshalling context chunks: %w", err)
	}

	var causalJSON any
	if eval.CausalAnalysis != nil {
		buf, err := json.Marshal(eval.CausalAnalysis)
		if err != nil {
			return fmt.Errorf("marshalling causal analysis: %w", err)
		}
		causalJSON = string(buf)
	}

	var originalJSON any
	if eval.OriginalEvaluation != nil {
		buf, err := json.Marshal(eval.OriginalEvaluation)
		if err != nil {
			return fmt.Errorf("marshalling original evaluation: %w", err)
		}
		originalJSON = string(buf)
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO rag_evaluations (id, tenant_id, correlation_id, query, generation, context_chunks, faithfulness, answer_relevance, context_precision, judge_model, feedback, causal_analysis, self_corrected, original_evaluation, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, eval.ID, eval.TenantID, eval.CorrelationID, eval.Query, eval.Generation,
		string(contextsJSON), eval.Metrics.Faithfulness, eval.Metrics.AnswerRelevance,
		eval.Metrics.ContextPrecision, eval.JudgeModel, eval.Feedback,
		causalJSON, eval.SelfCorrected, originalJSON, eval.Timestamp)
	if err != nil {
		return fmt.Errorf("inserting evaluation: %w", err)
	}
	return nil
}

// List returns the tenant's evaluations newest first, capped at limit.
func (s *evaluationStore) List(ctx context.Context, tenantID string, limit int) ([]domain.RagEvaluation, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, tenant_id, correlation_id, query, generation, context_chunks, faithfulness, answer_relevance, context_precision, judge_model, feedback, causal_analysis, self_corrected, original_evaluation, timestamp
		FROM rag_evaluations WHERE tenant_id = ?
		ORDER BY timestamp DESC LIMIT ?
	`, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying evaluations: %w", err)
	}
	defer rows.Close()

	var evals []domain.RagEvaluation //nolint:prealloc // size unknown from query
	for rows.Next() {
		var eval domain.RagEvaluation
		var contextsJSON string
		var causalJSON, originalJSON sql.NullString
		var ts sql.NullTime
		if err := rows.Scan(&eval.ID, &eval.TenantID, &eval.CorrelationID, &eval.Query,
			&eval.Generation, &contextsJSON, &eval.Metrics.Faithfulness,
			&eval.Metrics.AnswerRelevance, &eval.Metrics.ContextPrecision,
			&eval.JudgeModel, &eval.Feedback, &causalJSON, &eval.SelfCorrected,
			&originalJSON, &ts); err != nil {
			return nil, fmt.Errorf("scanning evaluation: %w", err)
		}

		if contextsJSON != "" && contextsJSON != jsonNull {
			if err := json.Unmarshal([]byte(contextsJSON), &eval.ContextChunks); err != nil {
				return nil, fmt.Errorf("unmarshaling context chunks: %w", err)
			}
		}
		if causalJSON.Valid && causalJSON.String != jsonNull {
			var causal domain.CausalAnalysis
			if err := json.Unmarshal([]byte(causalJSON.String), &causal); err != nil {
				return nil, fmt.Errorf("unmarshaling causal analysis: %w", err)
			}
			eval.CausalAnalysis = &causal
		}
		if originalJSON.Valid && originalJSON.String != jsonNull {
			var original domain.EvaluationMetrics
			if err := json.Unmarshal([]byte(originalJSON.String), &original); err != nil {
				return nil, fmt.Errorf("unmarshaling original evaluation: %w", err)
			}
			eval.OriginalEvaluation = &original
		}
		if ts.Valid {
			eval.Timestamp = ts.Time
		}
		evals = append(evals, eval)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating evaluations: %w", err)
	}
	return evals, nil
}
