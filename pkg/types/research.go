// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the deepresearch pipeline:
// the research entities, the streaming event vocabulary, configuration, and
// error kinds.
package types

import "time"

// SourceRecord is one web-search hit. Records are treated as values and
// deduplicated by exact URL across a run.
type SourceRecord struct {
	// URL is the source location. Always non-empty.
	URL string `json:"url" yaml:"url"`

	// Title is the page title as returned by the search provider.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Snippet is the provider's content excerpt used for grounding.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`
}

// ResearchPlan is the Planner's decomposition of the original query.
// SubQuestions is ordered foundational-to-specific and holds 2 to 5 entries;
// the plan is produced once per run and immutable thereafter.
type ResearchPlan struct {
	OriginalQuery string   `json:"original_query" yaml:"original_query"`
	SubQuestions  []string `json:"sub_questions" yaml:"sub_questions"`
	Reasoning     string   `json:"reasoning" yaml:"reasoning"`
}

// SubResult is the outcome of researching one sub-question. A degraded
// result (failed research task) has an empty answer and no sources.
type SubResult struct {
	Question string         `json:"question" yaml:"question"`
	Answer   string         `json:"answer" yaml:"answer"`
	Sources  []SourceRecord `json:"sources" yaml:"sources"`
}

// Degraded reports whether this result came from a failed research task.
func (r SubResult) Degraded() bool {
	return r.Answer == "" && len(r.Sources) == 0
}

// ResearchResult is the full outcome of one pipeline run. It is assembled
// incrementally by the coordinator and immutable once the run terminates.
type ResearchResult struct {
	// ID identifies the run (UUID assigned at run start).
	ID string `json:"id" yaml:"id"`

	Query       string         `json:"query" yaml:"query"`
	Plan        ResearchPlan   `json:"plan" yaml:"plan"`
	SubResults  []SubResult    `json:"sub_results" yaml:"sub_results"`
	FinalAnswer string         `json:"final_answer" yaml:"final_answer"`

	// AllSources is the deduplicated union of every SubResult's sources,
	// in first-seen order.
	AllSources []SourceRecord `json:"all_sources" yaml:"all_sources"`

	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
}

// DedupeSources returns the union of the given source lists with duplicate
// URLs removed, preserving first-seen order.
func DedupeSources(lists ...[]SourceRecord) []SourceRecord {
	seen := make(map[string]bool)
	var union []SourceRecord
	for _, list := range lists {
		for _, s := range list {
			if s.URL == "" || seen[s.URL] {
				continue
			}
			seen[s.URL] = true
			union = append(union, s)
		}
	}
	return union
}
