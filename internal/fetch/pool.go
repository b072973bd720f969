// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pdiddy/equity-research/internal/httputil"
	"github.com/pdiddy/equity-research/pkg/types"
)

// Pool fetches a set of URLs with bounded concurrency.
type Pool struct {
	fetcher Fetcher
	workers int
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger

	// now stamps FetchedAt; tests replace it.
	now func() time.Time
}

// NewPool creates a Pool around f. cfg.Workers bounds concurrency,
// cfg.RequestsPerSecond limits the start rate (0 disables the limit) and
// cfg.Timeout bounds each URL.
func NewPool(f Fetcher, cfg types.FetchConfig, logger *zap.Logger) *Pool {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), workers)
	}
	return &Pool{
		fetcher: f,
		workers: workers,
		timeout: cfg.Timeout,
		limiter: limiter,
		logger:  logger,
		now:     time.Now,
	}
}

// FetchAll fetches every URL and returns the documents that succeeded in
// input order, plus one FetchError per dropped URL. Blank and duplicate
// URLs are skipped. Documents with no extractable text are kept.
func (p *Pool) FetchAll(ctx context.Context, urls []string) ([]types.SourceDocument, []*FetchError) {
	urls, dups := Dedupe(urls)
	for _, d := range dups {
		p.logger.Debug("skipped duplicate source",
			zap.String("stage", "fetch"),
			zap.String("url", d.URL),
			zap.String("same_as", d.SameAs),
		)
	}
	if len(urls) == 0 {
		return nil, nil
	}

	type slot struct {
		doc types.SourceDocument
		err *FetchError
	}
	slots := make([]slot, len(urls))

	var g errgroup.Group
	g.SetLimit(min(p.workers, len(urls)))

	for i, u := range urls {
		g.Go(func() error {
			doc, err := p.fetchOne(ctx, u)
			if err != nil {
				slots[i] = slot{err: &FetchError{URL: u, Err: err}}
				p.logger.Warn("dropped source",
					zap.String("stage", "fetch"),
					zap.String("url", u),
					zap.Error(err),
				)
				return nil
			}
			slots[i] = slot{doc: doc}
			p.logger.Debug("fetched source",
				zap.String("stage", "fetch"),
				zap.String("url", u),
				zap.Int("chars", len(doc.RawText)),
			)
			return nil
		})
	}
	_ = g.Wait()

	var docs []types.SourceDocument
	var errs []*FetchError
	for _, s := range slots {
		if s.err != nil {
			errs = append(errs, s.err)
			continue
		}
		docs = append(docs, s.doc)
	}

	p.logger.Info("fetch complete",
		zap.String("stage", "fetch"),
		zap.Int("count", len(docs)),
		zap.Int("dropped", len(errs)),
	)
	return docs, errs
}

func (p *Pool) fetchOne(ctx context.Context, u string) (types.SourceDocument, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return types.SourceDocument{}, err
	}

	fctx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	page, err := p.fetcher.Fetch(fctx, u)
	if err != nil {
		if errors.Is(fctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return types.SourceDocument{}, fmt.Errorf("timed out after %v", p.timeout)
		}
		return types.SourceDocument{}, err
	}

	return types.SourceDocument{
		URL:       u,
		Title:     page.Title,
		RawText:   page.Text,
		FetchedAt: p.now().UTC(),
	}, nil
}

// Duplicate is a URL skipped because it names the same page as an
// earlier one.
type Duplicate struct {
	URL    string
	SameAs string
}

// Dedupe drops blank URLs and URLs that normalize to an earlier one
// ("www." prefix, trailing slash, fragment), keeping first occurrences in
// order. Skipped duplicates are reported so callers can note them.
func Dedupe(urls []string) ([]string, []Duplicate) {
	first := make(map[string]string, len(urls))
	var out []string
	var dups []Duplicate
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		key := httputil.NormalizeURL(u)
		if prev, ok := first[key]; ok {
			dups = append(dups, Duplicate{URL: u, SameAs: prev})
			continue
		}
		first[key] = u
		out = append(out, u)
	}
	return out, dups
}
