package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// outbound network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "deepresearch/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the web-search client.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against the Tavily API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxResults caps the results returned per search call (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// MaxRetries is the retry budget for transient failures (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// AIConfig holds shared settings for components that call the
// chat-completion API.
type AIConfig struct {
	// Model is the model identifier passed to the provider.
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL is the provider endpoint root (e.g.
	// "https://api.openai.com/v1"). Any OpenAI-compatible provider works.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// MaxRetries is the number of retry attempts for failed API calls
	// (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ServerConfig holds settings for the HTTP server.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// BasicAuthUsername and BasicAuthPassword guard every research
	// endpoint. Both must be set for the server to start.
	BasicAuthUsername string `json:"basic_auth_username,omitempty" yaml:"basic_auth_username,omitempty"`
	BasicAuthPassword string `json:"basic_auth_password,omitempty" yaml:"basic_auth_password,omitempty"`

	// RecordRuns controls whether completed runs are written to the
	// history store.
	RecordRuns bool `json:"record_runs" yaml:"record_runs"`
}

// HistoryConfig holds settings for the run-history store.
type HistoryConfig struct {
	// Path is the SQLite database file (default "deepresearch.db").
	Path string `json:"path" yaml:"path"`

	// MaxResults is the default page size for listings (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all component configurations.
type PipelineConfig struct {
	Search  SearchConfig  `json:"search" yaml:"search"`
	AI      AIConfig      `json:"ai" yaml:"ai"`
	Server  ServerConfig  `json:"server" yaml:"server"`
	History HistoryConfig `json:"history" yaml:"history"`
}

// Defaults fills zero-valued fields with production defaults.
func (c *PipelineConfig) Defaults() {
	if c.Search.Timeout <= 0 {
		c.Search.Timeout = 15 * time.Second
	}
	if c.Search.UserAgent == "" {
		c.Search.UserAgent = "deepresearch/0.1"
	}
	if c.Search.MaxResults <= 0 {
		c.Search.MaxResults = 5
	}
	if c.Search.MaxRetries <= 0 {
		c.Search.MaxRetries = 3
	}
	if c.AI.BaseURL == "" {
		c.AI.BaseURL = "https://api.openai.com/v1"
	}
	if c.AI.MaxRetries <= 0 {
		c.AI.MaxRetries = 3
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.History.Path == "" {
		c.History.Path = "deepresearch.db"
	}
	if c.History.MaxResults <= 0 {
		c.History.MaxResults = 20
	}
}
