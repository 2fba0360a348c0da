// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package planner decomposes a research query into focused sub-questions
// via one structured chat-completion call.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/deepresearch/internal/llm"
	"github.com/pdiddy/deepresearch/pkg/types"
)

const (
	// minSubQuestions and maxSubQuestions bound the decomposition. A plan
	// under the minimum is rejected rather than silently degraded to a
	// single-question run.
	minSubQuestions = 2
	maxSubQuestions = 5
)

// systemPrompt instructs the model to decompose the query and reply with a
// JSON object.
const systemPrompt = `You are a research planning expert. Your job is to break down complex queries into focused, answerable sub-questions.

Guidelines:
1. Generate 2-5 sub-questions that together thoroughly address the original query
2. Each sub-question should be specific and independently answerable
3. Order questions logically (foundational -> specific)
4. Avoid redundant questions
5. Consider different angles: definitions, mechanisms, applications, comparisons, etc.

Return your response in this JSON format:
{
    "sub_questions": ["question 1", "question 2", ...],
    "reasoning": "Brief explanation of why these questions cover the query"
}`

// ChatClient is the chat-completion capability the planner needs.
// *llm.Client satisfies it; tests supply a stub.
type ChatClient interface {
	Complete(ctx context.Context, r llm.Request) (string, error)
}

// Planner produces research plans.
type Planner struct {
	chat   ChatClient
	logger *zap.Logger
}

// New builds a Planner. A nil logger falls back to zap.NewNop().
func New(chat ChatClient, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{chat: chat, logger: logger}
}

// planResponse is the structured response expected from the model.
type planResponse struct {
	SubQuestions []string `json:"sub_questions"`
	Reasoning    string   `json:"reasoning"`
}

// Plan decomposes query into an ordered list of 2-5 sub-questions. Model
// order is preserved verbatim; a surplus is truncated to 5 and a shortfall
// (or an unparseable response) fails with planning_failed.
func (p *Planner) Plan(ctx context.Context, query string) (types.ResearchPlan, error) {
	content, err := p.chat.Complete(ctx, llm.Request{
		System:     systemPrompt,
		User:       fmt.Sprintf("Original query: %s\n\nDecompose this into focused sub-questions.", query),
		JSONObject: true,
	})
	if err != nil {
		return types.ResearchPlan{}, types.WrapError(types.KindPlanningFailed, fmt.Errorf("planning call: %w", err))
	}

	var parsed planResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return types.ResearchPlan{}, types.WrapError(types.KindPlanningFailed,
			fmt.Errorf("parsing plan response: %w", err))
	}

	subQuestions := make([]string, 0, len(parsed.SubQuestions))
	for i, q := range parsed.SubQuestions {
		q = strings.TrimSpace(q)
		if q == "" {
			return types.ResearchPlan{}, types.Errorf(types.KindPlanningFailed,
				"plan response contains empty sub-question at index %d", i)
		}
		subQuestions = append(subQuestions, q)
	}

	if len(subQuestions) < minSubQuestions {
		return types.ResearchPlan{}, types.Errorf(types.KindPlanningFailed,
			"plan has %d sub-questions, need at least %d", len(subQuestions), minSubQuestions)
	}
	if len(subQuestions) > maxSubQuestions {
		subQuestions = subQuestions[:maxSubQuestions]
	}

	reasoning := parsed.Reasoning
	if reasoning == "" {
		reasoning = "No reasoning provided"
	}

	p.logger.Debug("plan created", zap.Int("sub_questions", len(subQuestions)))
	return types.ResearchPlan{
		OriginalQuery: query,
		SubQuestions:  subQuestions,
		Reasoning:     reasoning,
	}, nil
}
