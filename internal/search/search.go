// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search discovers candidate source URLs for a research request.
// Queries fan out to a search Provider concurrently; results are
// filtered, deduplicated, and ordered trusted-first. When the provider is
// unavailable or finds nothing, a curated list from the company catalog
// is used instead.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/pdiddy/equity-research/internal/catalog"
	"github.com/pdiddy/equity-research/internal/httputil"
	"github.com/pdiddy/equity-research/internal/query"
	"github.com/pdiddy/equity-research/pkg/types"
)

// Result is one organic search hit.
type Result struct {
	URL     string `json:"url" yaml:"url"`
	Title   string `json:"title" yaml:"title"`
	Snippet string `json:"snippet" yaml:"snippet"`
}

// Provider searches the web. Implementations return at most n results.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, n int) ([]Result, error)
}

// ErrNoCredential is returned by providers that have no API key.
var ErrNoCredential = errors.New("search provider credential not configured")

// Fallback reasons recorded in Discovery.FallbackReason.
const (
	ReasonNoProvider = "no search provider configured"
	ReasonAllFailed  = "all search queries failed"
	ReasonNoResults  = "search returned no usable results"
	ReasonNoneLoaded = "no discovered source could be loaded"
)

// Discovery is the outcome of source discovery.
type Discovery struct {
	// URLs are the sources to fetch, trusted domains first.
	URLs []string

	// Queries are the queries sent to the provider.
	Queries []string

	// UsedFallback is set when URLs came from the curated catalog list.
	UsedFallback   bool
	FallbackReason string

	// QueryErrors holds one message per failed query.
	QueryErrors []string
}

// Discoverer finds sources for research requests.
type Discoverer struct {
	provider Provider
	cfg      types.SearchConfig
	trusted  []string
	catalog  *catalog.Catalog
	logger   *zap.Logger
}

// NewDiscoverer creates a Discoverer. A nil provider always uses the
// curated fallback. trusted lists the domains ordered first.
func NewDiscoverer(p Provider, cfg types.SearchConfig, trusted []string, cat *catalog.Catalog, logger *zap.Logger) *Discoverer {
	if cat == nil {
		cat = catalog.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Discoverer{provider: p, cfg: cfg, trusted: trusted, catalog: cat, logger: logger}
}

// Discover searches for req and returns up to MaxSources URLs. It only
// fails when ctx is cancelled; provider problems degrade to the fallback.
func (d *Discoverer) Discover(ctx context.Context, req types.ResearchRequest) (Discovery, error) {
	if d.provider == nil {
		return d.fallback(req, ReasonNoProvider, Discovery{}), nil
	}

	out := Discovery{Queries: EnhancedQueries(req, d.cfg.QueryLimit)}

	type queryResult struct {
		results []Result
		err     error
	}
	slots := make([]queryResult, len(out.Queries))
	var wg sync.WaitGroup
	for i, q := range out.Queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			results, err := d.provider.Search(ctx, q, d.cfg.ResultsPerQuery)
			slots[i] = queryResult{results: results, err: err}
		}(i, q)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Discovery{}, err
	}

	var all []Result
	for i, s := range slots {
		if s.err != nil {
			out.QueryErrors = append(out.QueryErrors, fmt.Sprintf("%s: %v", out.Queries[i], s.err))
			d.logger.Warn("search query failed",
				zap.String("stage", "search"),
				zap.String("provider", d.provider.Name()),
				zap.String("query", out.Queries[i]),
				zap.Error(s.err),
			)
			continue
		}
		if len(s.results) > d.cfg.ResultsPerQuery && d.cfg.ResultsPerQuery > 0 {
			s.results = s.results[:d.cfg.ResultsPerQuery]
		}
		all = append(all, s.results...)
	}

	if len(out.QueryErrors) == len(out.Queries) {
		return d.fallback(req, ReasonAllFailed, out), nil
	}

	out.URLs = FilterURLs(resultURLs(all), d.cfg.ExcludedDomains, d.trusted, d.cfg.MaxSources)
	if len(out.URLs) == 0 {
		return d.fallback(req, ReasonNoResults, out), nil
	}

	d.logger.Info("sources discovered",
		zap.String("stage", "search"),
		zap.Int("queries", len(out.Queries)),
		zap.Int("results", len(all)),
		zap.Int("count", len(out.URLs)),
	)
	return out, nil
}

// Fallback returns the curated source list for req. The pipeline uses it
// when none of the discovered sources could be fetched.
func (d *Discoverer) Fallback(req types.ResearchRequest) Discovery {
	return d.fallback(req, ReasonNoneLoaded, Discovery{})
}

func (d *Discoverer) fallback(req types.ResearchRequest, reason string, out Discovery) Discovery {
	urls := d.catalog.FallbackSources(req.CompanyName, req.Ticker, 0)
	out.URLs = FilterURLs(urls, d.cfg.ExcludedDomains, nil, d.cfg.MaxSources)
	out.UsedFallback = true
	out.FallbackReason = reason
	d.logger.Warn("using curated fallback sources",
		zap.String("stage", "search"),
		zap.String("reason", reason),
		zap.String("company", req.CompanyName),
		zap.Int("count", len(out.URLs)),
	)
	return out
}

// EnhancedQueries builds the provider queries for req: three company
// queries ("<co> stock analysis financial news", "<co> earnings report",
// "<co> investor relations") followed by the request's own queries,
// deduplicated and capped at limit.
func EnhancedQueries(req types.ResearchRequest, limit int) []string {
	var qs []string
	subject := req.CompanyName
	if subject == "" {
		subject = req.Ticker
	}
	if subject != "" {
		qs = append(qs,
			subject+" stock analysis financial news",
			subject+" earnings report",
			subject+" investor relations",
		)
	}
	qs = append(qs, req.SearchQueries...)
	out := query.NormalizeQueries(qs, limit)
	if len(out) == 0 {
		out = query.NormalizeQueries([]string{req.RawQuery}, 1)
	}
	return out
}

// FilterURLs drops non-http(s) and excluded URLs, removes duplicates,
// moves trusted URLs ahead of the rest (keeping relative order) and caps
// the result at max (0 means no cap).
func FilterURLs(urls []string, excluded, trusted []string, max int) []string {
	seen := make(map[string]bool, len(urls))
	var first, rest []string
	for _, u := range urls {
		if httputil.Host(u) == "" || httputil.MatchAny(u, excluded) {
			continue
		}
		key := httputil.NormalizeURL(u)
		if seen[key] {
			continue
		}
		seen[key] = true
		if httputil.MatchAny(u, trusted) {
			first = append(first, u)
		} else {
			rest = append(rest, u)
		}
	}
	out := append(first, rest...)
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

func resultURLs(results []Result) []string {
	urls := make([]string, 0, len(results))
	for _, r := range results {
		urls = append(urls, r.URL)
	}
	return urls
}
