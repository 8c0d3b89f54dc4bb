package services

import (
	"fmt"
	"strings"
)

// judgePromptTemplate instructs the judge model to score an answer and,
// when quality is poor, diagnose the failure. The model must answer with
// a single JSON object so the response can be parsed mechanically.
const judgePromptTemplate = `You are a strict evaluator of retrieval-augmented answers.

Score the ANSWER against the QUESTION and the CONTEXT on three metrics,
each a number between 0.0 and 1.0:
- faithfulness: is every claim in the answer supported by the context?
- answer_relevance: does the answer actually address the question?
- context_precision: how much of the context was relevant to the question?

If any of the three scores is below 0.8, also diagnose the root cause.
Pick exactly one cause_id from:
MISSING_CONTEXT, MODEL_HALLUCINATION, AMBIGUOUS_QUERY, INSTRUCTIONS_IGNORED, POOR_REASONING
and write a fix_strategy: a concrete instruction that would let the model
produce a better answer on a second attempt.

Respond with ONLY a JSON object in this exact shape:
{
  "faithfulness": 0.0,
  "answer_relevance": 0.0,
  "context_precision": 0.0,
  "reasoning": "one or two sentences",
  "causal_analysis": {"cause_id": "...", "fix_strategy": "..."}
}
Omit causal_analysis entirely when all three scores are 0.8 or above.

QUESTION:
%s

CONTEXT:
%s

ANSWER:
%s`

// correctionPromptTemplate regenerates an answer guided by the judge's
// fix strategy. The context is repeated verbatim so the second attempt
// works from the same evidence as the first.
const correctionPromptTemplate = `Answer the question using ONLY the provided context.

A previous attempt at this answer was judged inadequate. Apply this
correction strategy: %s

QUESTION:
%s

CONTEXT:
%s

Write the corrected answer only, with no preamble.`

// buildJudgePrompt renders the evaluation prompt for one answer.
func buildJudgePrompt(query, generation string, contexts []string) string {
	return fmt.Sprintf(judgePromptTemplate, query, joinContexts(contexts), generation)
}

// buildCorrectionPrompt renders the one-shot self-correction prompt.
func buildCorrectionPrompt(query, fixStrategy string, contexts []string) string {
	return fmt.Sprintf(correctionPromptTemplate, fixStrategy, query, joinContexts(contexts))
}

func joinContexts(contexts []string) string {
	if len(contexts) == 0 {
		return "(no context retrieved)"
	}
	var b strings.Builder
	for i, c := range contexts {
		fmt.Fprintf(&b, "[%d] %s\n", i+1, c)
	}
	return strings.TrimRight(b.String(), "\n")
}
