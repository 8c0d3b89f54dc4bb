package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Inspect answer quality evaluations",
	Long: `Lists judged answers and aggregate quality metrics for a tenant.
Self-corrected answers appear as a second record linked to the
original scores.`,
}

var evalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent evaluations for a tenant",
	RunE:  runEvalList,
}

var evalMetricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show aggregate quality metrics for a tenant",
	RunE:  runEvalMetrics,
}

// evalLimit caps the number of listed evaluations.
var evalLimit int

func init() {
	evalListCmd.Flags().IntVar(&evalLimit, "limit", 20, "Maximum evaluations to list")

	evalCmd.AddCommand(evalListCmd)
	evalCmd.AddCommand(evalMetricsCmd)
	rootCmd.AddCommand(evalCmd)
}

func runEvalList(cmd *cobra.Command, _ []string) error {
	if evaluationService == nil {
		return errors.New("evaluation service not configured")
	}
	if tenantID == "" {
		return errors.New("--tenant is required")
	}

	evals, err := evaluationService.ListEvaluations(context.Background(), tenantID, evalLimit)
	if err != nil {
		return fmt.Errorf("failed to list evaluations: %w", err)
	}

	if len(evals) == 0 {
		cmd.Println("No evaluations recorded.")
		return nil
	}

	cmd.Printf("Evaluations for tenant %s:\n\n", tenantID)
	for i := range evals {
		e := &evals[i]
		cmd.Printf("  %s  %s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.ID)
		cmd.Printf("    Query:        %s\n", e.Query)
		cmd.Printf("    Faithfulness: %.2f  Relevance: %.2f  Precision: %.2f\n",
			e.Metrics.Faithfulness, e.Metrics.AnswerRelevance, e.Metrics.ContextPrecision)
		cmd.Printf("    Judge:        %s\n", e.JudgeModel)
		if e.SelfCorrected && e.OriginalEvaluation != nil {
			cmd.Printf("    Corrected from: faithfulness %.2f, relevance %.2f\n",
				e.OriginalEvaluation.Faithfulness, e.OriginalEvaluation.AnswerRelevance)
		}
		if e.CausalAnalysis != nil {
			cmd.Printf("    Cause:        %s\n", e.CausalAnalysis.CauseID)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d evaluations\n", len(evals))
	return nil
}

func runEvalMetrics(cmd *cobra.Command, _ []string) error {
	if evaluationService == nil {
		return errors.New("evaluation service not configured")
	}
	if tenantID == "" {
		return errors.New("--tenant is required")
	}

	report, err := evaluationService.GetMetrics(context.Background(), tenantID)
	if err != nil {
		return fmt.Errorf("failed to get metrics: %w", err)
	}

	if report.Summary.Count == 0 {
		cmd.Println("No evaluations recorded.")
		return nil
	}

	cmd.Printf("Quality metrics for tenant %s (last %d evaluations):\n\n", tenantID, report.Summary.Count)
	cmd.Printf("  Faithfulness:      %.3f\n", report.Summary.Faithfulness)
	cmd.Printf("  Answer relevance:  %.3f\n", report.Summary.Relevance)
	cmd.Printf("  Context precision: %.3f\n", report.Summary.Precision)

	if len(report.Trends) > 0 {
		cmd.Println("\n  Daily trend:")
		for _, point := range report.Trends {
			cmd.Printf("    %s  faithfulness %.3f  relevance %.3f\n",
				point.Date.Format("2006-01-02"), point.Faithfulness, point.Relevance)
		}
	}

	return nil
}
