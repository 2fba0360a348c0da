// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deepresearch/internal/llm"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// stubChat returns a canned response or error.
type stubChat struct {
	content string
	err     error
	gotReq  llm.Request
}

func (s *stubChat) Complete(_ context.Context, r llm.Request) (string, error) {
	s.gotReq = r
	return s.content, s.err
}

func TestPlanDecomposesQuery(t *testing.T) {
	chat := &stubChat{content: `{
		"sub_questions": [
			"What is photosynthesis?",
			"What are the stages of photosynthesis?",
			"Why is photosynthesis important?"
		],
		"reasoning": "Definition, process, and significance."
	}`}

	p := New(chat, nil)
	plan, err := p.Plan(context.Background(), "Explain photosynthesis and its importance")
	require.NoError(t, err)

	assert.Equal(t, "Explain photosynthesis and its importance", plan.OriginalQuery)
	require.Len(t, plan.SubQuestions, 3)
	// Model order preserved verbatim.
	assert.Equal(t, "What is photosynthesis?", plan.SubQuestions[0])
	assert.Equal(t, "What are the stages of photosynthesis?", plan.SubQuestions[1])
	assert.Equal(t, "Definition, process, and significance.", plan.Reasoning)
	assert.True(t, chat.gotReq.JSONObject)
}

func TestPlanTruncatesSurplus(t *testing.T) {
	chat := &stubChat{content: `{"sub_questions": ["q1","q2","q3","q4","q5","q6","q7"], "reasoning": "r"}`}

	p := New(chat, nil)
	plan, err := p.Plan(context.Background(), "big question")
	require.NoError(t, err)

	require.Len(t, plan.SubQuestions, 5)
	assert.Equal(t, []string{"q1", "q2", "q3", "q4", "q5"}, plan.SubQuestions)
}

func TestPlanRejectsShortfall(t *testing.T) {
	chat := &stubChat{content: `{"sub_questions": ["only one"], "reasoning": "r"}`}

	p := New(chat, nil)
	_, err := p.Plan(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindPlanningFailed))
}

func TestPlanRejectsEmptySubQuestion(t *testing.T) {
	chat := &stubChat{content: `{"sub_questions": ["q1", "  ", "q3"], "reasoning": "r"}`}

	p := New(chat, nil)
	_, err := p.Plan(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindPlanningFailed))
}

func TestPlanRejectsUnparseableResponse(t *testing.T) {
	chat := &stubChat{content: `the model ignored the format`}

	p := New(chat, nil)
	_, err := p.Plan(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindPlanningFailed))
}

func TestPlanWrapsChatError(t *testing.T) {
	chat := &stubChat{err: errors.New("provider down")}

	p := New(chat, nil)
	_, err := p.Plan(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindPlanningFailed))
}

func TestPlanDefaultReasoning(t *testing.T) {
	chat := &stubChat{content: `{"sub_questions": ["q1", "q2"]}`}

	p := New(chat, nil)
	plan, err := p.Plan(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, "No reasoning provided", plan.Reasoning)
}
