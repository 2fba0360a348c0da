// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deepresearch/internal/llm"
	"github.com/pdiddy/deepresearch/pkg/types"
)

type stubChat struct {
	content string
	err     error
	gotReq  llm.Request
	calls   int
}

func (s *stubChat) Complete(_ context.Context, r llm.Request) (string, error) {
	s.calls++
	s.gotReq = r
	return s.content, s.err
}

func subResults() []types.SubResult {
	return []types.SubResult{
		{
			Question: "What does RAG stand for?",
			Answer:   "Retrieval-Augmented Generation.",
			Sources:  []types.SourceRecord{{URL: "https://a.example"}},
		},
		{
			Question: "How does RAG work?",
			Answer:   "It retrieves documents and conditions generation on them.",
			Sources:  []types.SourceRecord{{URL: "https://b.example"}},
		},
	}
}

func TestSynthesize(t *testing.T) {
	chat := &stubChat{content: "comprehensive final answer"}

	s := New(chat, nil)
	out, err := s.Synthesize(context.Background(), "What is RAG?", subResults())
	require.NoError(t, err)

	assert.Equal(t, "comprehensive final answer", out)
	// Every finding and its sources appear in the prompt.
	assert.Contains(t, chat.gotReq.User, "What does RAG stand for?")
	assert.Contains(t, chat.gotReq.User, "How does RAG work?")
	assert.Contains(t, chat.gotReq.User, "https://a.example")
	assert.Contains(t, chat.gotReq.User, "https://b.example")
	assert.Contains(t, chat.gotReq.User, "Original query: What is RAG?")
}

func TestSynthesizeSkipsDegraded(t *testing.T) {
	chat := &stubChat{content: "final"}
	results := append(subResults(), types.SubResult{Question: "failed one"})

	s := New(chat, nil)
	_, err := s.Synthesize(context.Background(), "q", results)
	require.NoError(t, err)
	assert.NotContains(t, chat.gotReq.User, "failed one")
}

func TestSynthesizeNoUsableSubResults(t *testing.T) {
	chat := &stubChat{content: "never called"}

	s := New(chat, nil)
	_, err := s.Synthesize(context.Background(), "q", []types.SubResult{
		{Question: "a"}, {Question: "b"},
	})
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindSynthesisFailed))
	assert.Zero(t, chat.calls)
}

func TestSynthesizeEmptyInput(t *testing.T) {
	s := New(&stubChat{}, nil)
	_, err := s.Synthesize(context.Background(), "q", nil)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindSynthesisFailed))
}

func TestSynthesizeWrapsChatError(t *testing.T) {
	chat := &stubChat{err: errors.New("model down")}

	s := New(chat, nil)
	_, err := s.Synthesize(context.Background(), "q", subResults())
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindSynthesisFailed))
}

func TestSynthesizeEmptyModelAnswer(t *testing.T) {
	chat := &stubChat{content: "   "}

	s := New(chat, nil)
	_, err := s.Synthesize(context.Background(), "q", subResults())
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindSynthesisFailed))
}
