// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package researcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deepresearch/internal/llm"
	"github.com/pdiddy/deepresearch/pkg/types"
)

type stubSearch struct {
	records []types.SourceRecord
	err     error
	calls   int
}

func (s *stubSearch) Search(_ context.Context, _ string, _ int) ([]types.SourceRecord, error) {
	s.calls++
	return s.records, s.err
}

type stubChat struct {
	content string
	err     error
	gotReq  llm.Request
}

func (s *stubChat) Complete(_ context.Context, r llm.Request) (string, error) {
	s.gotReq = r
	return s.content, s.err
}

func records(urls ...string) []types.SourceRecord {
	out := make([]types.SourceRecord, 0, len(urls))
	for _, u := range urls {
		out = append(out, types.SourceRecord{URL: u, Title: "t " + u, Snippet: "s " + u})
	}
	return out
}

func TestResearchGroundedAnswer(t *testing.T) {
	search := &stubSearch{records: records("https://a", "https://b", "https://c")}
	chat := &stubChat{content: `{"answer": "grounded answer", "citations": ["https://c", "https://a"]}`}

	r := New(search, chat, 5, nil)
	result, err := r.Research(context.Background(), "How does RAG work?")
	require.NoError(t, err)

	assert.Equal(t, "How does RAG work?", result.Question)
	assert.Equal(t, "grounded answer", result.Answer)
	// Citations filtered to the retrieved set, in retrieved order.
	require.Len(t, result.Sources, 2)
	assert.Equal(t, "https://a", result.Sources[0].URL)
	assert.Equal(t, "https://c", result.Sources[1].URL)

	// The prompt carries every retrieved snippet.
	assert.Contains(t, chat.gotReq.User, "URL: https://b")
	assert.Contains(t, chat.gotReq.User, "s https://b")
}

func TestResearchDropsFabricatedCitations(t *testing.T) {
	search := &stubSearch{records: records("https://real")}
	chat := &stubChat{content: `{"answer": "a", "citations": ["https://real", "https://fabricated.example"]}`}

	r := New(search, chat, 5, nil)
	result, err := r.Research(context.Background(), "q")
	require.NoError(t, err)

	require.Len(t, result.Sources, 1)
	assert.Equal(t, "https://real", result.Sources[0].URL)
}

func TestResearchEmptyCitationsFallBackToRetrieved(t *testing.T) {
	search := &stubSearch{records: records("https://a", "https://b")}
	chat := &stubChat{content: `{"answer": "a", "citations": []}`}

	r := New(search, chat, 5, nil)
	result, err := r.Research(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, result.Sources, 2)
}

func TestResearchZeroSearchResults(t *testing.T) {
	search := &stubSearch{}
	chat := &stubChat{content: `{"answer": "answered without sources", "citations": []}`}

	r := New(search, chat, 5, nil)
	result, err := r.Research(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, "answered without sources", result.Answer)
	assert.Empty(t, result.Sources)
	assert.Contains(t, chat.gotReq.User, "No sources were found")
}

func TestResearchSearchFailureStillAnswers(t *testing.T) {
	search := &stubSearch{err: types.Errorf(types.KindSearchUnavailable, "provider down")}
	chat := &stubChat{content: `{"answer": "best effort", "citations": []}`}

	r := New(search, chat, 5, nil)
	result, err := r.Research(context.Background(), "q")
	require.NoError(t, err)

	// Partial result: answer present, zero sources. Not an error.
	assert.Equal(t, "best effort", result.Answer)
	assert.Empty(t, result.Sources)
}

func TestResearchBothUnusable(t *testing.T) {
	search := &stubSearch{err: types.Errorf(types.KindSearchUnavailable, "provider down")}
	chat := &stubChat{err: errors.New("model down")}

	r := New(search, chat, 5, nil)
	_, err := r.Research(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindResearchFailed))
}

func TestResearchChatFailure(t *testing.T) {
	search := &stubSearch{records: records("https://a")}
	chat := &stubChat{err: errors.New("model down")}

	r := New(search, chat, 5, nil)
	_, err := r.Research(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindResearchFailed))
}

func TestResearchToleratesUnstructuredResponse(t *testing.T) {
	search := &stubSearch{records: records("https://a")}
	chat := &stubChat{content: "plain prose answer, format ignored"}

	r := New(search, chat, 5, nil)
	result, err := r.Research(context.Background(), "q")
	require.NoError(t, err)

	assert.Equal(t, "plain prose answer, format ignored", result.Answer)
	// No citation list: all retrieved sources kept.
	assert.Len(t, result.Sources, 1)
}

func TestResearchEmptyAnswer(t *testing.T) {
	search := &stubSearch{records: records("https://a")}
	chat := &stubChat{content: `{"answer": "", "citations": []}`}

	r := New(search, chat, 5, nil)
	_, err := r.Research(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindResearchFailed))
}
