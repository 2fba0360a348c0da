// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package websearch queries the Tavily web-search API and returns bounded
// lists of source records for grounding research answers.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/deepresearch/internal/httputil"
	"github.com/pdiddy/deepresearch/pkg/types"
)

// tavilySearchBase is the Tavily search endpoint. Declared as a var so
// tests can substitute an httptest server.
var tavilySearchBase = "https://api.tavily.com/search"

// Client searches the web through Tavily with bounded retry. Transient
// provider failures (network error, 429, 5xx) are retried with exponential
// backoff; exhaustion surfaces as a search_unavailable error.
type Client struct {
	cfg        types.SearchConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a Client. A nil httpClient falls back to
// http.DefaultClient; a nil logger falls back to zap.NewNop().
func NewClient(cfg types.SearchConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, httpClient: httpClient, logger: logger}
}

// tavilyRequest is the request body for the Tavily search API.
type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

// tavilyResponse is the response body from the Tavily search API.
type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search queries Tavily and returns at most maxResults records, each with a
// non-empty URL. Duplicate URLs within one call are passed through; callers
// dedupe across the run. A maxResults of zero or less uses the configured
// default.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]types.SourceRecord, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query is empty")
	}
	if maxResults <= 0 {
		maxResults = c.cfg.MaxResults
	}

	reqBody := tavilyRequest{
		APIKey:     c.cfg.APIKey,
		Query:      query,
		MaxResults: maxResults,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tavilySearchBase, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.cfg.MaxRetries)
	if err != nil {
		return nil, types.WrapError(types.KindSearchUnavailable, fmt.Errorf("calling Tavily API: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, types.WrapError(types.KindSearchUnavailable,
			fmt.Errorf("Tavily API returned %d: %s", resp.StatusCode, string(body)))
	}

	var tResp tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tResp); err != nil {
		return nil, types.WrapError(types.KindSearchUnavailable, fmt.Errorf("parsing Tavily response: %w", err))
	}

	var records []types.SourceRecord
	for _, r := range tResp.Results {
		if r.URL == "" {
			continue
		}
		records = append(records, types.SourceRecord{
			URL:     r.URL,
			Title:   r.Title,
			Snippet: r.Content,
		})
		if len(records) >= maxResults {
			break
		}
	}

	c.logger.Debug("web search",
		zap.String("query", query),
		zap.Int("results", len(records)))
	return records, nil
}
