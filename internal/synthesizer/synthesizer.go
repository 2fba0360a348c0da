// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesizer combines sub-question findings into one comprehensive
// final answer with one chat-completion call.
package synthesizer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/deepresearch/internal/llm"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// systemPrompt binds the final answer to the collected findings. Keeping
// citations inside the union of sub-result sources is a prompt contract,
// verified at test time rather than enforced mechanically.
const systemPrompt = `You are a research synthesizer. Combine findings into a comprehensive, well-structured answer.

Reference findings from every sub-question. Cite only the source URLs listed in the findings; do not introduce new sources.`

// ChatClient is the chat-completion capability the synthesizer needs.
type ChatClient interface {
	Complete(ctx context.Context, r llm.Request) (string, error)
}

// Synthesizer produces final answers.
type Synthesizer struct {
	chat   ChatClient
	logger *zap.Logger
}

// New builds a Synthesizer. A nil logger falls back to zap.NewNop().
func New(chat ChatClient, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{chat: chat, logger: logger}
}

// Synthesize combines subResults into one answer to the original query.
// It requires at least one sub-result with a non-empty answer; otherwise it
// fails with synthesis_failed. Degraded sub-results are skipped.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, subResults []types.SubResult) (string, error) {
	usable := 0
	var b strings.Builder
	for _, r := range subResults {
		if r.Answer == "" {
			continue
		}
		usable++
		fmt.Fprintf(&b, "Q: %s\nA: %s\n", r.Question, r.Answer)
		if len(r.Sources) > 0 {
			b.WriteString("Sources:\n")
			for _, src := range r.Sources {
				fmt.Fprintf(&b, "- %s\n", src.URL)
			}
		}
		b.WriteString("\n")
	}

	if usable == 0 {
		return "", types.Errorf(types.KindSynthesisFailed, "no usable sub-results to synthesize")
	}

	content, err := s.chat.Complete(ctx, llm.Request{
		System: systemPrompt,
		User: fmt.Sprintf("Original query: %s\n\nFindings:\n%s\nProvide a comprehensive answer with citations.",
			query, strings.TrimSpace(b.String())),
	})
	if err != nil {
		return "", types.WrapError(types.KindSynthesisFailed, fmt.Errorf("synthesis call: %w", err))
	}
	if strings.TrimSpace(content) == "" {
		return "", types.Errorf(types.KindSynthesisFailed, "model returned empty answer")
	}

	s.logger.Debug("synthesis complete",
		zap.Int("sub_results", len(subResults)),
		zap.Int("usable", usable))
	return content, nil
}
