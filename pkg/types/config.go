package types

import (
	"errors"
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "equity-research/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// Provider identifies the generation backend.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

// AIConfig holds shared settings for stages that call a generative model.
type AIConfig struct {
	// Provider selects the generation backend: openai, anthropic or gemini.
	Provider Provider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the generation model identifier (e.g. "gpt-3.5-turbo").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// EmbeddingModel is the embedding model identifier. Embeddings come
	// from the OpenAI-compatible endpoint when an OpenAI key is set, from
	// Gemini when it is the provider, and from the local hash embedder
	// otherwise.
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model" mapstructure:"embedding_model"`

	// BaseURL overrides the provider endpoint (empty uses the default).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// APIKey authenticates generation calls.
	APIKey string `json:"-" yaml:"-" mapstructure:"api_key"`

	// EmbeddingAPIKey authenticates embedding calls. Falls back to APIKey
	// when the provider is openai.
	EmbeddingAPIKey string `json:"-" yaml:"-" mapstructure:"embedding_api_key"`

	// MaxRetries is the number of retry attempts for failed calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`

	// Timeout bounds a single generation call (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// QueryConfig holds settings for the query analyzer.
type QueryConfig struct {
	// MaxSearchQueries caps the number of search queries in a request (default 5).
	MaxSearchQueries int `json:"max_search_queries" yaml:"max_search_queries" mapstructure:"max_search_queries"`

	// MaxTokens is the generation budget for analysis (default 500).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// Temperature is the sampling temperature for analysis (default 0.3).
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
}

// SearchConfig holds settings for source discovery.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Endpoint is the Serper search endpoint.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// APIKey authenticates search calls. Empty selects the curated fallback list.
	APIKey string `json:"-" yaml:"-" mapstructure:"api_key"`

	// QueryLimit caps the number of queries sent to the provider (default 7).
	QueryLimit int `json:"query_limit" yaml:"query_limit" mapstructure:"query_limit"`

	// ResultsPerQuery is the number of results requested per query (default 3).
	ResultsPerQuery int `json:"results_per_query" yaml:"results_per_query" mapstructure:"results_per_query"`

	// MaxSources caps the number of URLs handed to the fetcher (default 5).
	MaxSources int `json:"max_sources" yaml:"max_sources" mapstructure:"max_sources"`

	// ExcludedDomains are never fetched (social media, video sites).
	ExcludedDomains []string `json:"excluded_domains" yaml:"excluded_domains" mapstructure:"excluded_domains"`
}

// FetchConfig holds settings for document fetching.
type FetchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Workers bounds the number of concurrent fetches (default 4).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// RequestsPerSecond limits the fetch rate across workers (default 4).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`

	// MaxDocumentChars truncates extracted text (default 50000).
	MaxDocumentChars int `json:"max_document_chars" yaml:"max_document_chars" mapstructure:"max_document_chars"`
}

// ValidationConfig holds settings for source credibility scoring.
type ValidationConfig struct {
	// TrustedDomains lists financial domains that earn a trust bonus.
	// Entries may carry a path (e.g. "yahoo.com/finance").
	TrustedDomains []string `json:"trusted_domains" yaml:"trusted_domains" mapstructure:"trusted_domains"`

	// MinConfidenceScore is the low-confidence warning threshold (default 0.6).
	MinConfidenceScore float64 `json:"min_confidence_score" yaml:"min_confidence_score" mapstructure:"min_confidence_score"`

	// HighConfidenceThreshold marks high-quality sources (default 0.8).
	HighConfidenceThreshold float64 `json:"high_confidence_threshold" yaml:"high_confidence_threshold" mapstructure:"high_confidence_threshold"`

	// MinSources is the recommended minimum number of sources (default 3).
	MinSources int `json:"min_sources" yaml:"min_sources" mapstructure:"min_sources"`

	// MinContentLength is the text length that earns a substance bonus (default 500).
	MinContentLength int `json:"min_content_length" yaml:"min_content_length" mapstructure:"min_content_length"`

	// TrustedWeight and UntrustedWeight weight each source in the mean score.
	TrustedWeight   float64 `json:"trusted_weight" yaml:"trusted_weight" mapstructure:"trusted_weight"`
	UntrustedWeight float64 `json:"untrusted_weight" yaml:"untrusted_weight" mapstructure:"untrusted_weight"`

	// ScoreWeight and TrustWeight blend the weighted mean with the trusted ratio.
	// They must sum to 1.
	ScoreWeight float64 `json:"score_weight" yaml:"score_weight" mapstructure:"score_weight"`
	TrustWeight float64 `json:"trust_weight" yaml:"trust_weight" mapstructure:"trust_weight"`
}

// IndexConfig holds settings for the retrieval index.
type IndexConfig struct {
	// ChunkSize is the maximum chunk length in characters (default 1000).
	ChunkSize int `json:"chunk_size" yaml:"chunk_size" mapstructure:"chunk_size"`

	// ChunkOverlap is the overlap between adjacent chunks (default 200).
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap" mapstructure:"chunk_overlap"`

	// EmbedWorkers bounds the number of concurrent embedding calls (default 4).
	EmbedWorkers int `json:"embed_workers" yaml:"embed_workers" mapstructure:"embed_workers"`

	// EmbedTimeout bounds a single embedding call (default 30s).
	EmbedTimeout time.Duration `json:"embed_timeout" yaml:"embed_timeout" mapstructure:"embed_timeout"`
}

// SynthesisConfig holds settings for report synthesis.
type SynthesisConfig struct {
	// TopK is the number of chunks retrieved per retrieval query (default 5).
	TopK int `json:"top_k" yaml:"top_k" mapstructure:"top_k"`

	// MaxContextChunks caps the chunks placed in the prompt (default 8).
	MaxContextChunks int `json:"max_context_chunks" yaml:"max_context_chunks" mapstructure:"max_context_chunks"`

	// MaxExcerptChars truncates each chunk in the prompt (default 800).
	MaxExcerptChars int `json:"max_excerpt_chars" yaml:"max_excerpt_chars" mapstructure:"max_excerpt_chars"`

	// MaxTokens is the generation budget for the report (default 1000).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// Temperature is the sampling temperature for the report (default 0.4).
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error (default info).
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is json or console (default console).
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all stage configurations for a research run.
// It is read-only once a run starts.
type Config struct {
	AI         AIConfig         `json:"ai" yaml:"ai" mapstructure:"ai"`
	Query      QueryConfig      `json:"query" yaml:"query" mapstructure:"query"`
	Search     SearchConfig     `json:"search" yaml:"search" mapstructure:"search"`
	Fetch      FetchConfig      `json:"fetch" yaml:"fetch" mapstructure:"fetch"`
	Validation ValidationConfig `json:"validation" yaml:"validation" mapstructure:"validation"`
	Index      IndexConfig      `json:"index" yaml:"index" mapstructure:"index"`
	Synthesis  SynthesisConfig  `json:"synthesis" yaml:"synthesis" mapstructure:"synthesis"`
	Log        LogConfig        `json:"log" yaml:"log" mapstructure:"log"`
}

// DefaultUserAgent is sent by the search and fetch clients.
const DefaultUserAgent = "equity-research/0.1"

// DefaultTrustedDomains are the financial news and data sites that earn a
// trust bonus during validation.
var DefaultTrustedDomains = []string{
	"reuters.com",
	"bloomberg.com",
	"wsj.com",
	"ft.com",
	"marketwatch.com",
	"cnbc.com",
	"fool.com",
	"seekingalpha.com",
	"yahoo.com/finance",
	"finance.yahoo.com",
	"benzinga.com",
	"investing.com",
	"barrons.com",
	"forbes.com/investing",
	"morningstar.com",
	"sec.gov",
}

// DefaultExcludedDomains are never fetched.
var DefaultExcludedDomains = []string{
	"youtube.com",
	"twitter.com",
	"x.com",
	"facebook.com",
	"instagram.com",
	"reddit.com",
	"pinterest.com",
	"tiktok.com",
}

// DefaultConfig returns the configuration used when no file or flag overrides a value.
func DefaultConfig() Config {
	return Config{
		AI: AIConfig{
			Provider:       ProviderOpenAI,
			Model:          "gpt-3.5-turbo",
			EmbeddingModel: "text-embedding-3-small",
			MaxRetries:     3,
			Timeout:        30 * time.Second,
		},
		Query: QueryConfig{
			MaxSearchQueries: 5,
			MaxTokens:        500,
			Temperature:      0.3,
		},
		Search: SearchConfig{
			HTTPConfig:      HTTPConfig{Timeout: 15 * time.Second, UserAgent: DefaultUserAgent},
			Endpoint:        "https://google.serper.dev/search",
			QueryLimit:      7,
			ResultsPerQuery: 3,
			MaxSources:      5,
			ExcludedDomains: append([]string(nil), DefaultExcludedDomains...),
		},
		Fetch: FetchConfig{
			HTTPConfig:        HTTPConfig{Timeout: 10 * time.Second, UserAgent: DefaultUserAgent},
			Workers:           4,
			RequestsPerSecond: 4,
			MaxDocumentChars:  50000,
		},
		Validation: ValidationConfig{
			TrustedDomains:          append([]string(nil), DefaultTrustedDomains...),
			MinConfidenceScore:      0.6,
			HighConfidenceThreshold: 0.8,
			MinSources:              3,
			MinContentLength:        500,
			TrustedWeight:           2.0,
			UntrustedWeight:         1.0,
			ScoreWeight:             0.7,
			TrustWeight:             0.3,
		},
		Index: IndexConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
			EmbedWorkers: 4,
			EmbedTimeout: 30 * time.Second,
		},
		Synthesis: SynthesisConfig{
			TopK:             5,
			MaxContextChunks: 8,
			MaxExcerptChars:  800,
			MaxTokens:        1000,
			Temperature:      0.4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Validate checks the configuration for values that would break a run.
// All problems are reported together.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.AI.Provider == ProviderOpenAI || c.AI.Provider == ProviderAnthropic || c.AI.Provider == ProviderGemini,
		"ai.provider: unknown provider %q", c.AI.Provider)
	check(c.AI.Model != "", "ai.model: must not be empty")
	check(c.AI.MaxRetries >= 0, "ai.max_retries: must be >= 0, got %d", c.AI.MaxRetries)
	check(c.AI.Timeout > 0, "ai.timeout: must be positive")

	check(c.Query.MaxSearchQueries >= 1, "query.max_search_queries: must be >= 1, got %d", c.Query.MaxSearchQueries)
	check(c.Query.MaxTokens > 0, "query.max_tokens: must be positive")
	check(c.Query.Temperature >= 0 && c.Query.Temperature <= 2, "query.temperature: must be in [0,2]")

	check(c.Search.QueryLimit >= 1, "search.query_limit: must be >= 1, got %d", c.Search.QueryLimit)
	check(c.Search.ResultsPerQuery >= 1, "search.results_per_query: must be >= 1, got %d", c.Search.ResultsPerQuery)
	check(c.Search.MaxSources >= 1, "search.max_sources: must be >= 1, got %d", c.Search.MaxSources)

	check(c.Fetch.Workers >= 1, "fetch.workers: must be >= 1, got %d", c.Fetch.Workers)
	check(c.Fetch.Timeout > 0, "fetch.timeout: must be positive")
	check(c.Fetch.MaxDocumentChars > 0, "fetch.max_document_chars: must be positive")

	v := c.Validation
	check(v.MinConfidenceScore >= 0 && v.MinConfidenceScore <= 1, "validation.min_confidence_score: must be in [0,1]")
	check(v.HighConfidenceThreshold >= v.MinConfidenceScore && v.HighConfidenceThreshold <= 1,
		"validation.high_confidence_threshold: must be in [min_confidence_score,1]")
	check(v.TrustedWeight > 0 && v.UntrustedWeight > 0, "validation: source weights must be positive")
	check(v.ScoreWeight >= 0 && v.TrustWeight >= 0 && approxEqual(v.ScoreWeight+v.TrustWeight, 1),
		"validation: score_weight + trust_weight must equal 1")

	check(c.Index.ChunkSize > 0, "index.chunk_size: must be positive")
	check(c.Index.ChunkOverlap >= 0 && c.Index.ChunkOverlap < c.Index.ChunkSize,
		"index.chunk_overlap: must be in [0,chunk_size)")
	check(c.Index.EmbedWorkers >= 1, "index.embed_workers: must be >= 1, got %d", c.Index.EmbedWorkers)

	check(c.Synthesis.TopK >= 1, "synthesis.top_k: must be >= 1, got %d", c.Synthesis.TopK)
	check(c.Synthesis.MaxContextChunks >= 1, "synthesis.max_context_chunks: must be >= 1")
	check(c.Synthesis.MaxExcerptChars > 0, "synthesis.max_excerpt_chars: must be positive")
	check(c.Synthesis.MaxTokens > 0, "synthesis.max_tokens: must be positive")

	return errors.Join(errs...)
}

func approxEqual(a, b float64) bool {
	d := a - b
	return d < 1e-9 && d > -1e-9
}
