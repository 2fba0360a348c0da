// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
)

// EventName identifies one frame in the streaming vocabulary.
type EventName string

const (
	EventProgress   EventName = "progress"
	EventPlan       EventName = "plan"
	EventQuestion   EventName = "question"
	EventSources    EventName = "sources"
	EventAnswer     EventName = "answer"
	EventAllSources EventName = "all_sources"
	EventFinal      EventName = "final"
	EventComplete   EventName = "complete"
	EventError      EventName = "error"
)

// Event is one typed frame pushed to a streaming client. Frames for two
// different sub-questions are unordered relative to each other; within one
// sub-question the order is always question, sources, answer. A stream ends
// after a complete or an error frame, never both.
type Event struct {
	Name    EventName
	Payload any
}

// MarshalJSON flattens the payload fields into a single object with the
// event name under "type", matching the on-wire frame shape.
func (e Event) MarshalJSON() ([]byte, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s payload: %w", e.Name, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return nil, fmt.Errorf("event %s payload is not an object: %w", e.Name, err)
	}
	if fields == nil {
		fields = make(map[string]json.RawMessage)
	}
	fields["type"] = json.RawMessage(fmt.Sprintf("%q", e.Name))

	return json.Marshal(fields)
}

// ProgressPayload announces a state transition.
type ProgressPayload struct {
	Message string `json:"message"`
}

// PlanPayload carries the research plan.
type PlanPayload struct {
	OriginalQuery string   `json:"original_query"`
	SubQuestions  []string `json:"sub_questions"`
	Reasoning     string   `json:"reasoning"`
	Total         int      `json:"total"`
}

// QuestionPayload announces that a sub-question's research task finished
// and its frames follow. Index is the 1-based plan position.
type QuestionPayload struct {
	Index    int    `json:"index"`
	Question string `json:"question"`
	Total    int    `json:"total"`
}

// SourcesPayload carries the sources retrieved for one sub-question.
type SourcesPayload struct {
	Index   int            `json:"index"`
	Sources []SourceRecord `json:"sources"`
}

// AnswerPayload carries one sub-question's grounded answer.
type AnswerPayload struct {
	Index  int    `json:"index"`
	Answer string `json:"answer"`
}

// AllSourcesPayload carries the deduplicated union of all collected sources
// in first-seen order.
type AllSourcesPayload struct {
	Sources []SourceRecord `json:"sources"`
	Total   int            `json:"total"`
}

// FinalPayload carries the synthesized answer.
type FinalPayload struct {
	Answer string `json:"answer"`
}

// CompletePayload carries the full research result and terminates the stream.
type CompletePayload struct {
	Result ResearchResult `json:"result"`
}

// ErrorPayload carries the terminal error kind and message.
type ErrorPayload struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}
