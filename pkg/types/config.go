// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "article-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SearchConfig holds settings for the evidence collection stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// TopK is the number of results requested from each backend per query (default 10).
	TopK int `json:"top_k" yaml:"top_k"`

	// EnableArxiv controls whether the arXiv backend is used.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv"`

	// EnableSemanticScholar controls whether the Semantic Scholar backend is used.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar"`

	// EnableOpenAlex controls whether the OpenAlex backend is used.
	EnableOpenAlex bool `json:"enable_openalex" yaml:"enable_openalex"`

	// OpenAlexEmail is sent as the mailto parameter for OpenAlex polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty"`

	// InterBackendDelay is the delay between launching consecutive backends.
	InterBackendDelay time.Duration `json:"inter_backend_delay" yaml:"inter_backend_delay"`
}

// RetrievalConfig holds settings for the information table.
type RetrievalConfig struct {
	// IndexPath is the SQLite file holding the retrieval index. Empty keeps
	// the index in memory for the lifetime of the table.
	IndexPath string `json:"index_path,omitempty" yaml:"index_path,omitempty"`
}

// Provider identifies the generation backend.
type Provider string

const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGemini    Provider = "gemini"
)

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Provider selects the backend: anthropic, openai, or gemini.
	Provider Provider `json:"provider" yaml:"provider"`

	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the provider endpoint (OpenAI-compatible gateways).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxTokens bounds the length of one completion (default 3000).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// MaxRetries is the number of retries on rate-limited API calls (default 5).
	// Retries belong to the backend; the section generator never retries.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// Default values for GenerationConfig.
const (
	DefaultMaxThreadNum = 10
	DefaultRetrieveTopK = 5
	DefaultWordBudget   = 1500
)

// GenerationConfig holds settings for the article generation stage.
type GenerationConfig struct {
	AIConfig `yaml:",inline"`

	// MaxThreadNum bounds the number of sections generated concurrently
	// (default 10). It is the only backpressure on the external services.
	MaxThreadNum int `json:"max_thread_num" yaml:"max_thread_num"`

	// RetrieveTopK is the number of evidence items retrieved per section (default 5).
	RetrieveTopK int `json:"retrieve_top_k" yaml:"retrieve_top_k"`

	// WordBudget caps the evidence text handed to generation (default 1500 words).
	WordBudget int `json:"word_budget" yaml:"word_budget"`

	// TaskTimeout bounds retrieval plus generation for one section. Zero
	// means no per-section timeout.
	TaskTimeout time.Duration `json:"task_timeout" yaml:"task_timeout"`

	// OutputDir is the directory for the generated article and its evidence map.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// WithDefaults returns a copy of c with zero values replaced by defaults.
func (c GenerationConfig) WithDefaults() GenerationConfig {
	if c.MaxThreadNum <= 0 {
		c.MaxThreadNum = DefaultMaxThreadNum
	}
	if c.RetrieveTopK <= 0 {
		c.RetrieveTopK = DefaultRetrieveTopK
	}
	if c.WordBudget <= 0 {
		c.WordBudget = DefaultWordBudget
	}
	return c
}
