// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs a research request end to end: analyze the query,
// discover and fetch sources, score them, and synthesize the report.
// Soft failures (an unparseable query, a dropped source) degrade the
// report; hard failures abort with a *StageError.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/equity-research/internal/fetch"
	"github.com/pdiddy/equity-research/internal/httputil"
	"github.com/pdiddy/equity-research/internal/query"
	"github.com/pdiddy/equity-research/internal/search"
	"github.com/pdiddy/equity-research/internal/synthesis"
	"github.com/pdiddy/equity-research/internal/validate"
	"github.com/pdiddy/equity-research/pkg/types"
)

// Components are the stage implementations a Runner drives.
type Components struct {
	Analyzer    *query.Analyzer
	Discoverer  *search.Discoverer
	Pool        *fetch.Pool
	Scorer      *validate.Scorer
	Synthesizer *synthesis.Orchestrator
}

// Runner executes research runs. A Runner holds no per-run state and may
// be reused.
type Runner struct {
	c      Components
	logger *zap.Logger

	// newID generates run IDs; tests replace it.
	newID func() string
}

// NewRunner creates a Runner. A nil logger disables logging.
func NewRunner(c Components, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{c: c, logger: logger, newID: uuid.NewString}
}

// RunResearch answers raw with a cited report. In autonomous mode sources
// are discovered by search; in manual mode manualURLs are fetched as
// given. Every returned error is a *StageError.
func (r *Runner) RunResearch(ctx context.Context, raw string, mode types.Mode, manualURLs []string) (types.ResearchReport, error) {
	runID := r.newID()
	log := r.logger.With(zap.String("run_id", runID), zap.String("mode", string(mode)))
	log.Info("research started", zap.String("query", raw))

	if mode != types.ModeAutonomous && mode != types.ModeManual {
		return types.ResearchReport{}, &StageError{Stage: StageAnalyze, Err: fmt.Errorf("%w: %q", ErrUnknownMode, mode)}
	}

	req, err := r.analyze(ctx, raw, log)
	if err != nil {
		return types.ResearchReport{}, &StageError{Stage: StageAnalyze, Err: err}
	}

	var disc search.Discovery
	var urls []string
	switch mode {
	case types.ModeManual:
		urls = cleanURLs(manualURLs)
		if len(urls) == 0 {
			return types.ResearchReport{}, &StageError{Stage: StageFetch, Err: ErrNoURLs}
		}
	default:
		if err := ctx.Err(); err != nil {
			return types.ResearchReport{}, &StageError{Stage: StageSearch, Err: err}
		}
		disc, err = r.c.Discoverer.Discover(ctx, req)
		if err != nil {
			return types.ResearchReport{}, &StageError{Stage: StageSearch, Err: err}
		}
		urls = disc.URLs
	}

	urls, dups := fetch.Dedupe(urls)

	if err := ctx.Err(); err != nil {
		return types.ResearchReport{}, &StageError{Stage: StageFetch, Err: err}
	}
	docs, dropped := r.c.Pool.FetchAll(ctx, urls)
	attempted := len(urls)

	// Discovered sources that all fail fall back to the curated list once.
	if len(docs) == 0 && mode == types.ModeAutonomous && !disc.UsedFallback && ctx.Err() == nil {
		fb := r.c.Discoverer.Fallback(req)
		retry := excluding(fb.URLs, urls)
		if len(retry) > 0 {
			log.Warn("no discovered source loaded, trying curated sources",
				zap.String("stage", string(StageFetch)),
				zap.Int("count", len(retry)),
			)
			var more []*fetch.FetchError
			docs, more = r.c.Pool.FetchAll(ctx, retry)
			dropped = append(dropped, more...)
			attempted += len(retry)
			disc.UsedFallback = true
			disc.FallbackReason = fb.FallbackReason
		}
	}

	if err := ctx.Err(); err != nil {
		return types.ResearchReport{}, &StageError{Stage: StageFetch, Err: err}
	}
	if len(docs) == 0 {
		return types.ResearchReport{}, &StageError{
			Stage: StageFetch,
			Err:   &NoSourcesError{Mode: mode, Attempted: attempted, Dropped: dropped},
		}
	}

	validation := r.c.Scorer.Validate(docs)
	for _, d := range dups {
		validation.Warnings = append(validation.Warnings, fmt.Sprintf("Skipped duplicate source %s (same page as %s)", d.URL, d.SameAs))
	}
	for _, fe := range dropped {
		validation.Warnings = append(validation.Warnings, fmt.Sprintf("Dropped source %s: %v", fe.URL, fe.Err))
	}
	if disc.UsedFallback {
		validation.Notes = append(validation.Notes, "Used curated fallback sources: "+disc.FallbackReason)
	}

	if err := ctx.Err(); err != nil {
		return types.ResearchReport{}, &StageError{Stage: StageValidate, Err: err}
	}
	report, err := r.c.Synthesizer.Synthesize(ctx, req, docs, validation)
	if err != nil {
		return types.ResearchReport{}, &StageError{Stage: StageSynthesize, Err: err}
	}
	report.RunID = runID

	log.Info("research complete",
		zap.Int("sources", report.SourceCount),
		zap.Int("dropped", len(dropped)),
		zap.Float64("confidence", report.Confidence),
	)
	return report, nil
}

// Analyze structures raw without running the rest of the pipeline. An
// unparseable query yields the fallback request, not an error.
func (r *Runner) Analyze(ctx context.Context, raw string) (types.ResearchRequest, error) {
	req, err := r.analyze(ctx, raw, r.logger)
	if err != nil {
		return types.ResearchRequest{}, &StageError{Stage: StageAnalyze, Err: err}
	}
	return req, nil
}

// Ask fetches urls and answers question from them.
func (r *Runner) Ask(ctx context.Context, question string, urls []string) (string, error) {
	urls = cleanURLs(urls)
	if len(urls) == 0 {
		return "", &StageError{Stage: StageFetch, Err: ErrNoURLs}
	}
	docs, dropped := r.c.Pool.FetchAll(ctx, urls)
	if len(docs) == 0 {
		return "", &StageError{
			Stage: StageFetch,
			Err:   &NoSourcesError{Mode: types.ModeManual, Attempted: len(urls), Dropped: dropped},
		}
	}
	answer, err := r.c.Synthesizer.Answer(ctx, question, docs)
	if err != nil {
		return "", &StageError{Stage: StageSynthesize, Err: err}
	}
	return answer, nil
}

func (r *Runner) analyze(ctx context.Context, raw string, log *zap.Logger) (types.ResearchRequest, error) {
	if err := ctx.Err(); err != nil {
		return types.ResearchRequest{}, err
	}
	req, err := r.c.Analyzer.Analyze(ctx, raw)
	var ae *query.AnalysisError
	if errors.As(err, &ae) {
		log.Warn("continuing with fallback query analysis",
			zap.String("stage", string(StageAnalyze)),
			zap.Error(err),
		)
		return req, nil
	}
	return req, err
}

func cleanURLs(urls []string) []string {
	var out []string
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// excluding returns the URLs of urls not present in tried.
func excluding(urls, tried []string) []string {
	skip := make(map[string]bool, len(tried))
	for _, u := range tried {
		skip[httputil.NormalizeURL(u)] = true
	}
	var out []string
	for _, u := range urls {
		if !skip[httputil.NormalizeURL(u)] {
			out = append(out, u)
		}
	}
	return out
}
