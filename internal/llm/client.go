// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm wraps an OpenAI-compatible chat-completion API. The provider
// is selected by base URL, so any endpoint speaking the /chat/completions
// shape works. Callers depend on small consumer-side interfaces; this
// package supplies the one concrete implementation.
package llm

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

// Request is one chat-completion call. JSONObject asks the provider for a
// JSON-object response (structured-output contract).
type Request struct {
	System     string
	User       string
	JSONObject bool
}

// Client calls the chat-completion endpoint with bounded retry.
type Client struct {
	cfg        types.AIConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a Client. A nil httpClient falls back to
// http.DefaultClient; a nil logger falls back to zap.NewNop().
func NewClient(cfg types.AIConfig, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{cfg: cfg, httpClient: httpClient, logger: logger}
}

// chatRequest is the request body for the chat-completions API.
type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *chatFormat   `json:"response_format,omitempty"`
}

// chatMessage is a single message in the conversation.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatFormat selects the provider-side response format.
type chatFormat struct {
	Type string `json:"type"`
}

// chatResponse is the response body from the chat-completions API.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one chat-completion request and returns the assistant's
// text. Transient provider failures (network error, 429, 5xx) are retried
// with exponential backoff; exhaustion surfaces the last failure for the
// caller to wrap into its module's error kind.
func (c *Client) Complete(ctx context.Context, r Request) (string, error) {
	reqBody := chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: r.System},
			{Role: "user", Content: r.User},
		},
	}
	if r.JSONObject {
		reqBody.ResponseFormat = &chatFormat{Type: "json_object"}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := httputil.DoWithRetry(ctx, c.httpClient, req, c.cfg.MaxRetries)
	if err != nil {
		return "", fmt.Errorf("calling chat API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("chat API returned %d: %s", resp.StatusCode, string(body))
	}

	var cResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("parsing chat response: %w", err)
	}

	if len(cResp.Choices) == 0 || cResp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("chat API returned empty response")
	}

	content := cResp.Choices[0].Message.Content
	c.logger.Debug("chat completion",
		zap.String("model", c.cfg.Model),
		zap.Int("response_chars", len(content)))
	return content, nil
}
