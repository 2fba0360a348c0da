// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package researcher answers a single sub-question: it retrieves web
// sources and asks the model for an answer grounded in the retrieved
// snippets, citing only URLs from that set.
package researcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/deepresearch/internal/llm"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// systemPrompt instructs the model to ground its answer in the supplied
// context and to cite only supplied URLs.
const systemPrompt = `You are a research assistant. Answer the question accurately using the provided web search context. Be factual and concise.

Cite only URLs that appear in the provided context. Do not invent sources.

Return your response in this JSON format:
{
    "answer": "your grounded answer",
    "citations": ["url 1", "url 2", ...]
}`

// noSourcesNote replaces the context when search returned nothing, so the
// model answers from general knowledge and the result carries no sources.
const noSourcesNote = "No sources were found for this question. Answer from general knowledge, note the lack of sources, and cite nothing."

// SearchClient is the web-search capability the researcher needs.
// *websearch.Client satisfies it; tests supply a stub.
type SearchClient interface {
	Search(ctx context.Context, query string, maxResults int) ([]types.SourceRecord, error)
}

// ChatClient is the chat-completion capability the researcher needs.
type ChatClient interface {
	Complete(ctx context.Context, r llm.Request) (string, error)
}

// Researcher answers sub-questions.
type Researcher struct {
	search     SearchClient
	chat       ChatClient
	maxSources int
	logger     *zap.Logger
}

// New builds a Researcher. maxSources of zero or less defaults to 5; a nil
// logger falls back to zap.NewNop().
func New(search SearchClient, chat ChatClient, maxSources int, logger *zap.Logger) *Researcher {
	if maxSources <= 0 {
		maxSources = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Researcher{search: search, chat: chat, maxSources: maxSources, logger: logger}
}

// answerResponse is the structured response expected from the model.
type answerResponse struct {
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
}

// Research answers subQuestion. Search and synthesis each tolerate the
// other's failure: zero or failed search still produces an answer with no
// sources, and only when both search and the model are unusable does the
// call fail with research_failed. Cited URLs outside the retrieved set are
// dropped; an empty citation list falls back to the full retrieved set.
func (r *Researcher) Research(ctx context.Context, subQuestion string) (types.SubResult, error) {
	records, searchErr := r.search.Search(ctx, subQuestion, r.maxSources)
	if searchErr != nil {
		r.logger.Warn("search failed, answering without sources",
			zap.String("question", subQuestion),
			zap.Error(searchErr))
		records = nil
	}

	content, err := r.chat.Complete(ctx, llm.Request{
		System:     systemPrompt,
		User:       fmt.Sprintf("Question: %s\n\nContext:\n%s", subQuestion, formatContext(records)),
		JSONObject: true,
	})
	if err != nil {
		if searchErr != nil {
			return types.SubResult{}, types.WrapError(types.KindResearchFailed,
				fmt.Errorf("search and synthesis both failed: search: %v; synthesis: %w", searchErr, err))
		}
		return types.SubResult{}, types.WrapError(types.KindResearchFailed,
			fmt.Errorf("synthesizing answer: %w", err))
	}

	answer, cited := parseAnswer(content)
	if strings.TrimSpace(answer) == "" {
		return types.SubResult{}, types.Errorf(types.KindResearchFailed, "model returned empty answer")
	}

	return types.SubResult{
		Question: subQuestion,
		Answer:   answer,
		Sources:  filterCitations(records, cited),
	}, nil
}

// formatContext renders retrieved records for the prompt, one block per
// source in the original format: title, URL, content.
func formatContext(records []types.SourceRecord) string {
	if len(records) == 0 {
		return noSourcesNote
	}
	var b strings.Builder
	for _, rec := range records {
		fmt.Fprintf(&b, "# %s\nURL: %s\nContent: %s\n---\n",
			strings.TrimSpace(rec.Title), strings.TrimSpace(rec.URL), strings.TrimSpace(rec.Snippet))
	}
	return strings.TrimSpace(b.String())
}

// parseAnswer decodes the structured response. A model that ignored the
// format still yields a usable answer: the raw content, with no citations.
func parseAnswer(content string) (answer string, citations []string) {
	var parsed answerResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return content, nil
	}
	return parsed.Answer, parsed.Citations
}

// filterCitations keeps only cited URLs present in the retrieved set, in
// retrieved order. An empty intersection falls back to the full retrieved
// set, so a grounded answer never loses its provenance to a model that
// skipped the citation list.
func filterCitations(records []types.SourceRecord, citations []string) []types.SourceRecord {
	if len(records) == 0 {
		return nil
	}

	cited := make(map[string]bool, len(citations))
	for _, u := range citations {
		cited[strings.TrimSpace(u)] = true
	}

	var sources []types.SourceRecord
	for _, rec := range records {
		if cited[rec.URL] {
			sources = append(sources, rec)
		}
	}
	if len(sources) == 0 {
		return records
	}
	return sources
}
