// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/pdiddy/equity-research/internal/catalog"
	"github.com/pdiddy/equity-research/internal/fetch"
	"github.com/pdiddy/equity-research/internal/index"
	"github.com/pdiddy/equity-research/internal/llm"
	"github.com/pdiddy/equity-research/internal/query"
	"github.com/pdiddy/equity-research/internal/search"
	"github.com/pdiddy/equity-research/internal/synthesis"
	"github.com/pdiddy/equity-research/internal/validate"
	"github.com/pdiddy/equity-research/pkg/types"
)

// NewFromConfig wires a Runner with the network-backed implementations
// selected by cfg. A missing search key falls back to curated sources;
// a missing generation key is an error.
func NewFromConfig(cfg types.Config, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	gen, err := llm.New(cfg.AI, logger)
	if err != nil {
		return nil, fmt.Errorf("creating generator: %w", err)
	}
	embedder, err := llm.NewEmbedder(cfg.AI, logger)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	var provider search.Provider
	serper, err := search.NewSerperProvider(cfg.Search, logger)
	switch {
	case errors.Is(err, search.ErrNoCredential):
		logger.Warn("no search API key configured, using curated sources", zap.String("stage", string(StageSearch)))
	case err != nil:
		return nil, fmt.Errorf("creating search provider: %w", err)
	default:
		provider = serper
	}

	cat := catalog.Default()
	return NewRunner(Components{
		Analyzer:    query.NewAnalyzer(gen, cfg.Query, cat, logger),
		Discoverer:  search.NewDiscoverer(provider, cfg.Search, cfg.Validation.TrustedDomains, cat, logger),
		Pool:        fetch.NewPool(fetch.NewHTTPFetcher(cfg.Fetch, logger), cfg.Fetch, logger),
		Scorer:      validate.NewScorer(cfg.Validation, logger),
		Synthesizer: synthesis.NewOrchestrator(gen, index.NewBuilder(embedder, cfg.Index, logger), cfg.Synthesis, cfg.Validation, logger),
	}, logger), nil
}
