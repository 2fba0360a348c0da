// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/deepresearch/internal/llm"
	"github.com/pdiddy/deepresearch/internal/pipeline"
	"github.com/pdiddy/deepresearch/internal/planner"
	"github.com/pdiddy/deepresearch/internal/researcher"
	"github.com/pdiddy/deepresearch/internal/synthesizer"
	"github.com/pdiddy/deepresearch/internal/websearch"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// newPipeline wires the full research pipeline from configuration.
func newPipeline(cfg types.PipelineConfig, logger *zap.Logger) (*pipeline.Pipeline, error) {
	if cfg.AI.APIKey == "" {
		return nil, fmt.Errorf("LLM API key not configured: set ai.api_key or .secrets/llm-api-key")
	}
	if cfg.Search.APIKey == "" {
		return nil, fmt.Errorf("search API key not configured: set search.api_key or .secrets/tavily-api-key")
	}

	httpClient := &http.Client{Timeout: cfg.Search.Timeout}

	chat := llm.NewClient(cfg.AI, httpClient, logger)
	search := websearch.NewClient(cfg.Search, httpClient, logger)

	return pipeline.New(
		planner.New(chat, logger),
		researcher.New(search, chat, cfg.Search.MaxResults, logger),
		synthesizer.New(chat, logger),
		logger,
	), nil
}
