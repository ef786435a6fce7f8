package types

import (
	"fmt"
	"time"
)

// SearchConfig holds settings for the E-utilities search stage.
type SearchConfig struct {
	// UserAgent is the User-Agent header sent with E-utilities requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// SearchTimeout bounds the esearch call (default 30s).
	SearchTimeout time.Duration `json:"search_timeout" yaml:"search_timeout" mapstructure:"search_timeout"`

	// FetchTimeout bounds the efetch call (default 60s).
	FetchTimeout time.Duration `json:"fetch_timeout" yaml:"fetch_timeout" mapstructure:"fetch_timeout"`

	// APIKey raises the NCBI rate limit when set.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Email and Tool identify the caller to NCBI.
	Email string `json:"email,omitempty" yaml:"email,omitempty" mapstructure:"email"`
	Tool  string `json:"tool,omitempty" yaml:"tool,omitempty" mapstructure:"tool"`
}

// StoreConfig selects and configures the object store holding PMC XML.
type StoreConfig struct {
	// Bucket is the S3 bucket of the PMC Open Access dataset.
	Bucket string `json:"bucket" yaml:"bucket" mapstructure:"bucket"`

	// Region is the AWS region of Bucket.
	Region string `json:"region" yaml:"region" mapstructure:"region"`

	// Prefix is the key prefix; objects live at "{Prefix}/{pmcid}.xml".
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`

	// Endpoint overrides the S3 endpoint (tests, S3-compatible mirrors).
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" mapstructure:"endpoint"`

	// Dir, when set, reads objects from a local mirror instead of S3.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty" mapstructure:"dir"`

	// Timeout bounds each store call (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// SummarizerBackend identifies the model service used for long articles.
type SummarizerBackend string

const (
	SummarizerBedrock SummarizerBackend = "bedrock"
	SummarizerClaude  SummarizerBackend = "claude"
	SummarizerNone    SummarizerBackend = "none"
)

// SummarizerConfig holds settings for the summarization capability.
type SummarizerConfig struct {
	Backend SummarizerBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Model is the model identifier (Bedrock model ID or Claude model name).
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// Region is the Bedrock runtime region.
	Region string `json:"region,omitempty" yaml:"region,omitempty" mapstructure:"region"`

	// APIKey authenticates the claude backend.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Timeout bounds a single summarization call (default 60s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// RetrievalConfig holds the content length policy of article retrieval.
type RetrievalConfig struct {
	// ContentCharacterLimit is the extracted-text length above which the
	// summarizer is invoked (default 100000).
	ContentCharacterLimit int `json:"content_character_limit" yaml:"content_character_limit" mapstructure:"content_character_limit"`

	// MaxSummaryTokens caps the summarizer output (default 5000).
	MaxSummaryTokens int `json:"max_summary_tokens" yaml:"max_summary_tokens" mapstructure:"max_summary_tokens"`

	// TruncateLength is the fallback length when summarization fails (default 10000).
	TruncateLength int `json:"truncate_length" yaml:"truncate_length" mapstructure:"truncate_length"`
}

// ServerConfig holds settings for the HTTP adapter.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// ReleaseMode switches gin to release mode.
	ReleaseMode bool `json:"release_mode" yaml:"release_mode" mapstructure:"release_mode"`

	// RateLimit is the sustained requests per second allowed per client IP
	// on /v1 routes; 0 disables limiting. RateBurst is the bucket size.
	RateLimit float64 `json:"rate_limit" yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst int     `json:"rate_burst" yaml:"rate_burst" mapstructure:"rate_burst"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `json:"level" yaml:"level" mapstructure:"level"`
	Development bool   `json:"development" yaml:"development" mapstructure:"development"`
}

// Config groups all configuration for the CLI and server.
type Config struct {
	Search     SearchConfig     `json:"search" yaml:"search" mapstructure:"search"`
	Store      StoreConfig      `json:"store" yaml:"store" mapstructure:"store"`
	Summarizer SummarizerConfig `json:"summarizer" yaml:"summarizer" mapstructure:"summarizer"`
	Retrieval  RetrievalConfig  `json:"retrieval" yaml:"retrieval" mapstructure:"retrieval"`
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`

	// Concurrency bounds parallel retrievals in batch reads (default 4).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
}

// DefaultConfig returns the configuration used when no file or flag overrides it.
func DefaultConfig() Config {
	return Config{
		Search: SearchConfig{
			UserAgent:     "pubmed-research/0.1",
			SearchTimeout: 30 * time.Second,
			FetchTimeout:  60 * time.Second,
			Tool:          "pubmed-research",
		},
		Store: StoreConfig{
			Bucket:  "pmc-oa-opendata",
			Region:  "us-east-1",
			Prefix:  "oa_comm/xml/all",
			Timeout: 30 * time.Second,
		},
		Summarizer: SummarizerConfig{
			Backend: SummarizerBedrock,
			Model:   "us.anthropic.claude-3-7-sonnet-20250219-v1:0",
			Region:  "us-east-2",
			Timeout: 60 * time.Second,
		},
		Retrieval: RetrievalConfig{
			ContentCharacterLimit: 100000,
			MaxSummaryTokens:      5000,
			TruncateLength:        10000,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
		},
		Concurrency: 4,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Search.SearchTimeout <= 0 || c.Search.FetchTimeout <= 0 {
		return fmt.Errorf("search timeouts must be positive")
	}
	if c.Store.Dir == "" && c.Store.Bucket == "" {
		return fmt.Errorf("store: bucket or dir is required")
	}
	if c.Store.Timeout <= 0 {
		return fmt.Errorf("store: timeout must be positive")
	}
	switch c.Summarizer.Backend {
	case SummarizerBedrock, SummarizerNone:
	case SummarizerClaude:
		if c.Summarizer.APIKey == "" {
			return fmt.Errorf("summarizer: claude backend requires an api key")
		}
	default:
		return fmt.Errorf("summarizer: unknown backend %q", c.Summarizer.Backend)
	}
	if c.Retrieval.ContentCharacterLimit <= 0 || c.Retrieval.TruncateLength <= 0 || c.Retrieval.MaxSummaryTokens <= 0 {
		return fmt.Errorf("retrieval: limits must be positive")
	}
	if c.Server.RateLimit < 0 || (c.Server.RateLimit > 0 && c.Server.RateBurst <= 0) {
		return fmt.Errorf("server: rate_limit must be non-negative and rate_burst positive when limiting")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive")
	}
	return nil
}
