// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupeSources(t *testing.T) {
	a := []SourceRecord{
		{URL: "https://a.example/1", Title: "one"},
		{URL: "https://a.example/2", Title: "two"},
	}
	b := []SourceRecord{
		{URL: "https://a.example/2", Title: "two again"},
		{URL: "https://b.example/3", Title: "three"},
		{URL: ""},
	}

	union := DedupeSources(a, b)

	require.Len(t, union, 3)
	// First-seen order, first-seen record wins.
	assert.Equal(t, "https://a.example/1", union[0].URL)
	assert.Equal(t, "https://a.example/2", union[1].URL)
	assert.Equal(t, "two", union[1].Title)
	assert.Equal(t, "https://b.example/3", union[2].URL)
}

func TestDedupeSourcesEmpty(t *testing.T) {
	assert.Nil(t, DedupeSources())
	assert.Nil(t, DedupeSources(nil, []SourceRecord{}))
}

func TestSubResultDegraded(t *testing.T) {
	assert.True(t, SubResult{Question: "q"}.Degraded())
	assert.False(t, SubResult{Question: "q", Answer: "a"}.Degraded())
	assert.False(t, SubResult{Question: "q", Sources: []SourceRecord{{URL: "u"}}}.Degraded())
}

func TestEventMarshalFlattensPayload(t *testing.T) {
	ev := Event{Name: EventQuestion, Payload: QuestionPayload{Index: 2, Question: "How does RAG work?", Total: 3}}

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var frame map[string]any
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "question", frame["type"])
	assert.Equal(t, float64(2), frame["index"])
	assert.Equal(t, "How does RAG work?", frame["question"])
	assert.Equal(t, float64(3), frame["total"])
}

func TestEventMarshalErrorFrame(t *testing.T) {
	ev := Event{Name: EventError, Payload: ErrorPayload{Kind: KindSynthesisFailed, Message: "no usable sub-results"}}

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var frame map[string]any
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, "error", frame["type"])
	assert.Equal(t, "synthesis_failed", frame["kind"])
	assert.Equal(t, "no usable sub-results", frame["message"])
}

func TestKindOf(t *testing.T) {
	base := errors.New("boom")
	wrapped := WrapError(KindPlanningFailed, base)

	assert.Equal(t, KindPlanningFailed, KindOf(wrapped))
	assert.Equal(t, KindPlanningFailed, KindOf(fmt.Errorf("outer: %w", wrapped)))
	assert.Equal(t, KindResearchFailed, KindOf(base))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
	assert.True(t, IsKind(wrapped, KindPlanningFailed))
	assert.False(t, IsKind(base, KindPlanningFailed))
	assert.ErrorIs(t, wrapped, base)
}

func TestWrapErrorNil(t *testing.T) {
	assert.NoError(t, WrapError(KindSearchUnavailable, nil))
}

func TestDefaults(t *testing.T) {
	var cfg PipelineConfig
	cfg.Defaults()

	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, 3, cfg.Search.MaxRetries)
	assert.Equal(t, "https://api.openai.com/v1", cfg.AI.BaseURL)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "deepresearch.db", cfg.History.Path)
}
