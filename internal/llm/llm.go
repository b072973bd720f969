// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts the generative and embedding models behind two
// small interfaces so pipeline stages can be tested with fakes.
// Generators are created per provider by New; WithRetry adds bounded
// retries and a per-call timeout.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/equity-research/pkg/types"
)

// Generator produces text from a prompt.
type Generator interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// Embedder maps text to a fixed-length vector. Every call on one Embedder
// returns vectors of the same length.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ErrEmptyResponse is returned when a model answers with no text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// GenerationError reports a failed generation call for one pipeline operation.
type GenerationError struct {
	// Op names the operation that needed the generation (e.g. "analyze").
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: generation failed: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// permanentError marks a failure that retrying cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so WithRetry returns it without retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// New returns the Generator for cfg.Provider wrapped with retry and timeout.
func New(cfg types.AIConfig, logger *zap.Logger) (Generator, error) {
	var (
		gen Generator
		err error
	)
	switch cfg.Provider {
	case types.ProviderOpenAI, "":
		gen, err = NewOpenAIGenerator(cfg)
	case types.ProviderAnthropic:
		gen, err = NewAnthropicGenerator(cfg)
	case types.ProviderGemini:
		gen, err = NewGeminiGenerator(cfg)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return WithRetry(gen, cfg.MaxRetries, cfg.Timeout, logger), nil
}

// NewEmbedder returns the OpenAI embedder when an embedding key is
// available. Without one it embeds through Gemini if that is the
// provider, or falls back to the local hashing embedder.
func NewEmbedder(cfg types.AIConfig, logger *zap.Logger) (Embedder, error) {
	key := cfg.EmbeddingAPIKey
	if key == "" && (cfg.Provider == types.ProviderOpenAI || cfg.Provider == "") {
		key = cfg.APIKey
	}
	switch {
	case key != "":
		return NewOpenAIEmbedder(cfg.EmbeddingModel, key, cfg.BaseURL)
	case cfg.Provider == types.ProviderGemini && cfg.APIKey != "":
		model := cfg.EmbeddingModel
		if !strings.HasPrefix(model, "gemini") {
			model = DefaultGeminiEmbeddingModel
		}
		return NewGeminiEmbedder(model, cfg.APIKey, cfg.BaseURL)
	}
	if logger != nil {
		logger.Warn("no embedding API key, using local hashing embedder")
	}
	return NewHashEmbedder(DefaultHashDimensions), nil
}
