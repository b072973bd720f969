// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesis turns validated sources into a cited research report
// by retrieval-augmented generation: the sources are indexed, the most
// relevant excerpts are retrieved for the request, and one generation call
// writes the report, which is then parsed into sections.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/equity-research/internal/httputil"
	"github.com/pdiddy/equity-research/internal/index"
	"github.com/pdiddy/equity-research/internal/llm"
	"github.com/pdiddy/equity-research/pkg/types"
)

// answerTopK is the number of chunks retrieved for a follow-up question.
const answerTopK = 3

var (
	// ErrNoDocuments is returned when there is nothing to synthesize from.
	ErrNoDocuments = errors.New("no documents to synthesize")

	// ErrEmptyQuestion is returned by Answer for a blank question.
	ErrEmptyQuestion = errors.New("question is empty")
)

// Orchestrator runs the synthesis stage.
type Orchestrator struct {
	gen     llm.Generator
	builder *index.Builder
	cfg     types.SynthesisConfig
	val     types.ValidationConfig
	logger  *zap.Logger

	// now stamps GeneratedAt; tests replace it.
	now func() time.Time
}

// NewOrchestrator creates an Orchestrator. val supplies the thresholds
// for source quality labels. A nil logger disables logging.
func NewOrchestrator(gen llm.Generator, builder *index.Builder, cfg types.SynthesisConfig, val types.ValidationConfig, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		gen:     gen,
		builder: builder,
		cfg:     cfg,
		val:     val,
		logger:  logger,
		now:     time.Now,
	}
}

// Synthesize produces the report for req from docs. A failed or empty
// generation is returned as *llm.GenerationError.
func (o *Orchestrator) Synthesize(ctx context.Context, req types.ResearchRequest, docs []types.SourceDocument, validation types.ValidationReport) (types.ResearchReport, error) {
	docs = uniqueDocs(docs)
	if len(docs) == 0 {
		return types.ResearchReport{}, ErrNoDocuments
	}

	idx, err := o.builder.Build(ctx, docs)
	if err != nil {
		return types.ResearchReport{}, fmt.Errorf("building index: %w", err)
	}
	defer idx.Close()

	chunks, err := o.retrieve(ctx, idx, req)
	if err != nil {
		return types.ResearchReport{}, fmt.Errorf("retrieving context: %w", err)
	}
	blocks, contextURLs := o.blocks(chunks)

	prompt, err := renderReportPrompt(req, blocks)
	if err != nil {
		return types.ResearchReport{}, fmt.Errorf("rendering prompt: %w", err)
	}

	o.logger.Info("generating report",
		zap.String("stage", "synthesize"),
		zap.Int("chunks", len(blocks)),
		zap.Int("sources", len(contextURLs)),
	)
	out, err := o.gen.Complete(ctx, prompt, o.cfg.MaxTokens, o.cfg.Temperature)
	if err != nil {
		return types.ResearchReport{}, &llm.GenerationError{Op: "synthesize", Err: err}
	}
	if strings.TrimSpace(out) == "" {
		return types.ResearchReport{}, &llm.GenerationError{Op: "synthesize", Err: llm.ErrEmptyResponse}
	}

	report := o.assemble(req, docs, validation, ParseReport(out), newCitations(docURLs(docs), contextURLs))
	o.logger.Info("report generated",
		zap.String("stage", "synthesize"),
		zap.Int("findings", len(report.KeyFindings)),
		zap.Float64("confidence", report.Confidence),
	)
	return report, nil
}

func (o *Orchestrator) assemble(req types.ResearchRequest, docs []types.SourceDocument, validation types.ValidationReport, sec Sections, cites *citations) types.ResearchReport {
	findings := make([]types.Finding, 0, len(sec.Findings))
	for _, f := range sec.Findings {
		text := cites.Resolve(f)
		if strings.TrimSpace(text) == "" {
			continue
		}
		findings = append(findings, types.Finding{Text: text, CitedURL: FirstCited(text)})
	}

	considerations := make([]string, 0, len(sec.Considerations))
	for _, c := range sec.Considerations {
		if text := cites.Resolve(c); strings.TrimSpace(text) != "" {
			considerations = append(considerations, text)
		}
	}

	var chars int
	for _, d := range docs {
		chars += utf8.RuneCountInString(d.RawText)
	}

	sources := o.sourceList(docs, validation)
	return types.ResearchReport{
		Title:            types.ReportTitle(req.Subject()),
		GeneratedAt:      o.now().UTC(),
		Company:          req.CompanyName,
		Ticker:           req.Ticker,
		Intent:           req.Intent,
		Confidence:       validation.OverallConfidence,
		SourceCount:      len(sources),
		TrustedCount:     validation.TrustedCount,
		AnalysisDepth:    types.DepthForChars(chars),
		ExecutiveSummary: cites.Resolve(sec.Summary),
		KeyFindings:      findings,
		DetailedAnalysis: cites.Resolve(sec.Analysis),
		Considerations:   considerations,
		SourceList:       sources,
		ValidationNotes:  validation.AllNotes(),
	}
}

// retrieve gathers context chunks for the request: vector hits for the
// raw query, each topic and the intent, merged by chunk ID keeping the
// best similarity, followed by keyword hits for the company and ticker.
func (o *Orchestrator) retrieve(ctx context.Context, idx *index.Index, req types.ResearchRequest) ([]types.IndexedChunk, error) {
	best := map[string]types.IndexedChunk{}
	for _, q := range retrievalQueries(req) {
		hits, err := idx.Query(ctx, q, o.cfg.TopK)
		if err != nil {
			return nil, err
		}
		for _, h := range hits {
			if prev, ok := best[h.ID]; !ok || h.Similarity > prev.Similarity {
				best[h.ID] = h
			}
		}
	}

	merged := make([]types.IndexedChunk, 0, len(best))
	for _, c := range best {
		merged = append(merged, c)
	}
	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Similarity != merged[j].Similarity {
			return merged[i].Similarity > merged[j].Similarity
		}
		return merged[i].ID < merged[j].ID
	})

	if terms := strings.TrimSpace(req.CompanyName + " " + req.Ticker); terms != "" {
		hits, err := idx.KeywordQuery(ctx, terms, o.cfg.TopK)
		if err != nil {
			o.logger.Warn("keyword retrieval failed", zap.String("stage", "synthesize"), zap.Error(err))
		}
		for _, h := range hits {
			if _, ok := best[h.ID]; ok {
				continue
			}
			best[h.ID] = h
			merged = append(merged, h)
		}
	}

	if o.cfg.MaxContextChunks > 0 && len(merged) > o.cfg.MaxContextChunks {
		merged = merged[:o.cfg.MaxContextChunks]
	}
	return merged, nil
}

// retrievalQueries lists the raw query, one query per topic prefixed with
// the subject, and an intent query, without duplicates.
func retrievalQueries(req types.ResearchRequest) []string {
	subject := req.CompanyName
	if subject == "" {
		subject = req.Ticker
	}

	candidates := []string{req.RawQuery}
	for _, t := range req.Topics {
		candidates = append(candidates, strings.TrimSpace(subject+" "+t))
	}
	if req.Intent != "" {
		candidates = append(candidates, strings.TrimSpace(fmt.Sprintf("%s %s analysis", subject, req.Intent)))
	}

	seen := map[string]bool{}
	var out []string
	for _, q := range candidates {
		q = strings.TrimSpace(q)
		key := strings.ToLower(q)
		if q == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}

// blocks converts chunks to prompt blocks and lists their distinct source
// URLs in order of first appearance.
func (o *Orchestrator) blocks(chunks []types.IndexedChunk) ([]contextBlock, []string) {
	blocks := make([]contextBlock, 0, len(chunks))
	var urls []string
	seen := map[string]bool{}
	for _, c := range chunks {
		blocks = append(blocks, contextBlock{URL: c.SourceURL, Text: excerpt(c.Text, o.cfg.MaxExcerptChars)})
		if !seen[c.SourceURL] {
			seen[c.SourceURL] = true
			urls = append(urls, c.SourceURL)
		}
	}
	return blocks, urls
}

// sourceList describes every document in fetch order with its score.
func (o *Orchestrator) sourceList(docs []types.SourceDocument, validation types.ValidationReport) []types.SourceEntry {
	out := make([]types.SourceEntry, 0, len(docs))
	for _, d := range docs {
		cs := validation.Scores[d.URL]
		title := strings.TrimSpace(d.Title)
		if title == "" {
			if host := httputil.Host(d.URL); host != "" {
				title = "Source from " + host
			} else {
				title = d.URL
			}
		}
		out = append(out, types.SourceEntry{
			URL:          d.URL,
			Title:        title,
			QualityLabel: types.QualityLabel(cs.Score, o.val.MinConfidenceScore, o.val.HighConfidenceThreshold),
			Score:        cs.Score,
			Trusted:      cs.IsTrustedDomain,
		})
	}
	return out
}

// Answer responds to a follow-up question about docs with a short cited
// answer drawn from the most relevant excerpts.
func (o *Orchestrator) Answer(ctx context.Context, question string, docs []types.SourceDocument) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	docs = uniqueDocs(docs)
	if len(docs) == 0 {
		return "", ErrNoDocuments
	}

	idx, err := o.builder.Build(ctx, docs)
	if err != nil {
		return "", fmt.Errorf("building index: %w", err)
	}
	defer idx.Close()

	chunks, err := idx.Query(ctx, question, answerTopK)
	if err != nil {
		return "", fmt.Errorf("retrieving context: %w", err)
	}
	blocks, contextURLs := o.blocks(chunks)

	prompt, err := renderAnswerPrompt(question, blocks)
	if err != nil {
		return "", fmt.Errorf("rendering prompt: %w", err)
	}
	out, err := o.gen.Complete(ctx, prompt, o.cfg.MaxTokens, o.cfg.Temperature)
	if err != nil {
		return "", &llm.GenerationError{Op: "answer", Err: err}
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", &llm.GenerationError{Op: "answer", Err: llm.ErrEmptyResponse}
	}
	return newCitations(docURLs(docs), contextURLs).Resolve(out), nil
}

func uniqueDocs(docs []types.SourceDocument) []types.SourceDocument {
	seen := make(map[string]bool, len(docs))
	out := make([]types.SourceDocument, 0, len(docs))
	for _, d := range docs {
		if seen[d.URL] {
			continue
		}
		seen[d.URL] = true
		out = append(out, d)
	}
	return out
}

func docURLs(docs []types.SourceDocument) []string {
	urls := make([]string, len(docs))
	for i, d := range docs {
		urls[i] = d.URL
	}
	return urls
}

// excerpt cuts text to at most n runes including a trailing ellipsis,
// preferring a word boundary.
func excerpt(text string, n int) string {
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	if n <= 3 {
		return string([]rune(text)[:n])
	}
	s := string([]rune(text)[:n-3])
	if i := strings.LastIndexAny(s, " \n"); i > len(s)/2 {
		s = s[:i]
	}
	return strings.TrimSpace(s) + "..."
}
