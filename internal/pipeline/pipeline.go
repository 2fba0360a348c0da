// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline coordinates one research run: plan the query, research
// every sub-question concurrently, synthesize the final answer, and emit
// progress events along the way.
//
// The run moves through Planning -> Researching -> Synthesizing -> Complete,
// with Failed reachable from any non-terminal state. Researching fans out
// one task per sub-question; task results are funneled back over a channel
// and only the coordinator touches the accumulating result, so no locks are
// needed. Event frames for two different sub-questions arrive in completion
// order; within one sub-question the order is always question, sources,
// answer.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/deepresearch/pkg/types"
)

// State names one coordinator phase, used for logging.
type State string

const (
	StateIdle         State = "idle"
	StatePlanning     State = "planning"
	StateResearching  State = "researching"
	StateSynthesizing State = "synthesizing"
	StateComplete     State = "complete"
	StateFailed       State = "failed"
)

// Planner produces a research plan for a query.
type Planner interface {
	Plan(ctx context.Context, query string) (types.ResearchPlan, error)
}

// Researcher answers one sub-question.
type Researcher interface {
	Research(ctx context.Context, subQuestion string) (types.SubResult, error)
}

// Synthesizer combines sub-results into a final answer.
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, subResults []types.SubResult) (string, error)
}

// EmitFunc receives event frames as the run progresses. It is called only
// from the coordinator goroutine, in frame order, and never after the
// terminal complete or error frame.
type EmitFunc func(types.Event)

// Pipeline runs research queries. Runs are stateless and independent, so
// one Pipeline serves any number of concurrent runs.
type Pipeline struct {
	planner     Planner
	researcher  Researcher
	synthesizer Synthesizer
	logger      *zap.Logger
}

// New builds a Pipeline. A nil logger falls back to zap.NewNop().
func New(planner Planner, researcher Researcher, synthesizer Synthesizer, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{planner: planner, researcher: researcher, synthesizer: synthesizer, logger: logger}
}

// taskResult carries one research task's outcome back to the coordinator.
type taskResult struct {
	idx int
	res types.SubResult
	err error
}

// Run executes one research run for query, emitting frames to emit (which
// may be nil for callers that only want the final result). On success the
// returned ResearchResult is complete and immutable; on failure a single
// error frame is emitted and the error carries the run's ErrorKind.
//
// Cancelling ctx stops emission and returns ctx.Err(); in-flight research
// tasks drain in the background and their results are discarded.
func (p *Pipeline) Run(ctx context.Context, query string, emit EmitFunc) (*types.ResearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, types.Errorf(types.KindValidation, "query must not be empty")
	}
	if emit == nil {
		emit = func(types.Event) {}
	}

	result := &types.ResearchResult{
		ID:        uuid.NewString(),
		Query:     query,
		StartedAt: time.Now().UTC(),
	}
	log := p.logger.With(zap.String("run_id", result.ID))
	log.Info("run started", zap.String("state", string(StatePlanning)))

	emit(types.Event{Name: types.EventProgress, Payload: types.ProgressPayload{Message: "Planning research strategy..."}})

	plan, err := p.planner.Plan(ctx, query)
	if err != nil {
		return nil, p.fail(log, emit, err)
	}
	result.Plan = plan
	total := len(plan.SubQuestions)

	emit(types.Event{Name: types.EventPlan, Payload: types.PlanPayload{
		OriginalQuery: plan.OriginalQuery,
		SubQuestions:  plan.SubQuestions,
		Reasoning:     plan.Reasoning,
		Total:         total,
	}})

	log.Info("researching", zap.String("state", string(StateResearching)), zap.Int("sub_questions", total))

	// Fan out one task per sub-question. The buffered channel lets tasks
	// finish even after the coordinator abandons a cancelled run.
	ch := make(chan taskResult, total)
	for i, q := range plan.SubQuestions {
		go func(idx int, subQuestion string) {
			res, err := p.researcher.Research(ctx, subQuestion)
			ch <- taskResult{idx: idx, res: res, err: err}
		}(i, q)
	}

	// Join in completion order. Sub-results keep plan order in the final
	// result; only event emission follows completion order.
	result.SubResults = make([]types.SubResult, total)
	succeeded := 0
	for done := 0; done < total; done++ {
		var tr taskResult
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case tr = <-ch:
		}

		q := plan.SubQuestions[tr.idx]
		if tr.err != nil {
			log.Warn("sub-question failed",
				zap.String("question", q),
				zap.Error(tr.err))
			tr.res = types.SubResult{Question: q}
		} else {
			succeeded++
		}
		result.SubResults[tr.idx] = tr.res

		emit(types.Event{Name: types.EventQuestion, Payload: types.QuestionPayload{Index: tr.idx + 1, Question: q, Total: total}})
		emit(types.Event{Name: types.EventSources, Payload: types.SourcesPayload{Index: tr.idx + 1, Sources: tr.res.Sources}})
		emit(types.Event{Name: types.EventAnswer, Payload: types.AnswerPayload{Index: tr.idx + 1, Answer: tr.res.Answer}})
	}

	if succeeded == 0 {
		return nil, p.fail(log, emit, types.Errorf(types.KindResearchFailed, "all %d sub-questions failed", total))
	}

	// Union in plan order so all_sources is deterministic for a given set
	// of sub-results.
	sourceLists := make([][]types.SourceRecord, 0, total)
	for _, r := range result.SubResults {
		sourceLists = append(sourceLists, r.Sources)
	}
	result.AllSources = types.DedupeSources(sourceLists...)

	emit(types.Event{Name: types.EventAllSources, Payload: types.AllSourcesPayload{
		Sources: result.AllSources,
		Total:   len(result.AllSources),
	}})
	emit(types.Event{Name: types.EventProgress, Payload: types.ProgressPayload{Message: "Synthesizing final answer..."}})

	log.Info("synthesizing", zap.String("state", string(StateSynthesizing)), zap.Int("succeeded", succeeded))

	final, err := p.synthesizer.Synthesize(ctx, query, result.SubResults)
	if err != nil {
		return nil, p.fail(log, emit, err)
	}
	result.FinalAnswer = final
	result.CompletedAt = time.Now().UTC()

	emit(types.Event{Name: types.EventFinal, Payload: types.FinalPayload{Answer: final}})
	emit(types.Event{Name: types.EventComplete, Payload: types.CompletePayload{Result: *result}})

	log.Info("run complete",
		zap.String("state", string(StateComplete)),
		zap.Duration("elapsed", result.CompletedAt.Sub(result.StartedAt)),
		zap.Int("sources", len(result.AllSources)))
	return result, nil
}

// fail emits the single terminal error frame and returns err unchanged.
func (p *Pipeline) fail(log *zap.Logger, emit EmitFunc, err error) error {
	kind := types.KindOf(err)
	log.Error("run failed", zap.String("state", string(StateFailed)), zap.String("kind", string(kind)), zap.Error(err))
	emit(types.Event{Name: types.EventError, Payload: types.ErrorPayload{
		Kind:    kind,
		Message: fmt.Sprintf("%v", err),
	}})
	return err
}
