// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/equity-research/internal/index"
	"github.com/pdiddy/equity-research/internal/llm"
	"github.com/pdiddy/equity-research/internal/validate"
	"github.com/pdiddy/equity-research/pkg/types"
)

func TestMain(m *testing.M) {
	// The Gemini client's transport registers an opencensus view worker at init.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
	)
}

// stubGenerator returns a fixed response and records prompts.
type stubGenerator struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
}

func (g *stubGenerator) Complete(_ context.Context, prompt string, _ int, _ float64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	return g.response, g.err
}

var fixedNow = time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

func newTestOrchestrator(t *testing.T, gen llm.Generator) *Orchestrator {
	t.Helper()
	cfg := types.DefaultConfig()
	builder := index.NewBuilder(llm.NewHashEmbedder(512), cfg.Index, zaptest.NewLogger(t))
	o := NewOrchestrator(gen, builder, cfg.Synthesis, cfg.Validation, zaptest.NewLogger(t))
	o.now = func() time.Time { return fixedNow }
	return o
}

func appleRequest() types.ResearchRequest {
	return types.ResearchRequest{
		RawQuery:      "How did Apple's Q4 earnings look?",
		CompanyName:   "Apple Inc.",
		Ticker:        "AAPL",
		Intent:        types.IntentEarnings,
		Topics:        []string{"iPhone revenue", "services growth"},
		TimeFrame:     "Q4 2025",
		SearchQueries: []string{"Apple Q4 2025 earnings"},
	}
}

func appleDocs() []types.SourceDocument {
	return []types.SourceDocument{
		{URL: "https://www.reuters.com/apple-q4", Title: "Apple Q4 results", RawText: "Apple reported fiscal fourth quarter revenue of $94.9 billion, up 6% in 2025. iPhone revenue rose."},
		{URL: "https://www.cnbc.com/apple-services", Title: "", RawText: "Apple services revenue reached a record as subscriptions grew. Earnings per share beat estimates."},
		{URL: "https://finance.yahoo.com/quote/AAPL", Title: "AAPL quote", RawText: "AAPL shares traded higher after the earnings report."},
		{URL: "https://blog.example.com/apple-take", Title: "A take", RawText: "Apple may face China headwinds."},
		{URL: "https://forum.example.net/t/apple", Title: "Forum", RawText: ""},
	}
}

const cannedReport = `## Executive Summary
Apple posted record fourth-quarter revenue [Source: https://www.reuters.com/apple-q4].

## Key Findings
- Revenue rose 6% year over year [Source: https://www.reuters.com/apple-q4/]
- Services hit a record [Source 2]
- Shares rallied after the report [Source: https://finance.yahoo.com/quote/AAPL]
- A rumour from an unknown site [Source: https://rumours.example.org/x]

## Detailed Analysis
Growth was broad based [Source: https://www.cnbc.com/apple-services].

## Important Considerations
- China demand remains uncertain [Source: https://blog.example.com/apple-take]
- Valuation is stretched`

func scoredValidation(t *testing.T, docs []types.SourceDocument) types.ValidationReport {
	t.Helper()
	return validate.NewScorer(types.DefaultConfig().Validation, nil).Validate(docs)
}

func TestSynthesize(t *testing.T) {
	gen := &stubGenerator{response: cannedReport}
	o := newTestOrchestrator(t, gen)
	docs := appleDocs()
	val := scoredValidation(t, docs)

	report, err := o.Synthesize(context.Background(), appleRequest(), docs, val)
	require.NoError(t, err)

	assert.Equal(t, "Equity Research Report: Apple Inc.", report.Title)
	assert.Equal(t, fixedNow, report.GeneratedAt)
	assert.Equal(t, "Apple Inc.", report.Company)
	assert.Equal(t, "AAPL", report.Ticker)
	assert.Equal(t, types.IntentEarnings, report.Intent)
	assert.Equal(t, val.OverallConfidence, report.Confidence)
	assert.Equal(t, 5, report.SourceCount)
	assert.Equal(t, val.TrustedCount, report.TrustedCount)
	assert.Equal(t, types.DepthSurface, report.AnalysisDepth)
	assert.Equal(t, val.AllNotes(), report.ValidationNotes)

	assert.Equal(t, "Apple posted record fourth-quarter revenue [Source: https://www.reuters.com/apple-q4].", report.ExecutiveSummary)
	require.Len(t, report.KeyFindings, 4)
	assert.Equal(t, "Revenue rose 6% year over year [Source: https://www.reuters.com/apple-q4]", report.KeyFindings[0].Text)
	assert.Equal(t, "https://www.reuters.com/apple-q4", report.KeyFindings[0].CitedURL)
	assert.NotEmpty(t, report.KeyFindings[1].CitedURL, "numeric marker maps to a context source")
	assert.Equal(t, "https://finance.yahoo.com/quote/AAPL", report.KeyFindings[2].CitedURL)
	assert.Equal(t, "A rumour from an unknown site", report.KeyFindings[3].Text)
	assert.Empty(t, report.KeyFindings[3].CitedURL)
	assert.Equal(t, []string{
		"China demand remains uncertain [Source: https://blog.example.com/apple-take]",
		"Valuation is stretched",
	}, report.Considerations)

	require.Len(t, report.SourceList, 5)
	for i, d := range docs {
		assert.Equal(t, d.URL, report.SourceList[i].URL)
		assert.Equal(t, val.Scores[d.URL].Score, report.SourceList[i].Score)
	}
	assert.Equal(t, "Source from cnbc.com", report.SourceList[1].Title)
	assert.Equal(t, types.QualityHigh, report.SourceList[0].QualityLabel)
	assert.Equal(t, types.QualityLow, report.SourceList[4].QualityLabel)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "Company: Apple Inc.")
	assert.Contains(t, prompt, "Key topics: iPhone revenue, services growth")
	assert.Contains(t, prompt, "[Source: https://www.reuters.com/apple-q4]")
	assert.Contains(t, prompt, "[Source: <full url>]")
	assert.NotContains(t, prompt, "forum.example.net", "documents without text have no chunks")
}

func TestSynthesizeCitationRoundTrip(t *testing.T) {
	o := newTestOrchestrator(t, &stubGenerator{response: cannedReport})
	docs := appleDocs()

	report, err := o.Synthesize(context.Background(), appleRequest(), docs, scoredValidation(t, docs))
	require.NoError(t, err)

	listed := map[string]bool{}
	for _, s := range report.SourceList {
		listed[s.URL] = true
	}
	texts := []string{report.ExecutiveSummary, report.DetailedAnalysis}
	texts = append(texts, report.Considerations...)
	for _, f := range report.KeyFindings {
		texts = append(texts, f.Text)
	}
	for _, text := range texts {
		for _, m := range resolvedRe.FindAllStringSubmatch(text, -1) {
			assert.True(t, listed[m[1]], "cited %s not in source list", m[1])
		}
	}
}

func TestSynthesizeIdempotent(t *testing.T) {
	docs := appleDocs()
	val := scoredValidation(t, docs)

	gen := &stubGenerator{response: cannedReport}
	o := newTestOrchestrator(t, gen)
	first, err := o.Synthesize(context.Background(), appleRequest(), docs, val)
	require.NoError(t, err)
	second, err := o.Synthesize(context.Background(), appleRequest(), docs, val)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, gen.prompts, 2)
	assert.Equal(t, gen.prompts[0], gen.prompts[1])
}

func TestSynthesizeNoDocuments(t *testing.T) {
	gen := &stubGenerator{response: cannedReport}
	o := newTestOrchestrator(t, gen)

	_, err := o.Synthesize(context.Background(), appleRequest(), nil, types.ValidationReport{})
	assert.ErrorIs(t, err, ErrNoDocuments)
	assert.Empty(t, gen.prompts)
}

func TestSynthesizeGenerationFailure(t *testing.T) {
	docs := appleDocs()
	val := scoredValidation(t, docs)

	tests := []struct {
		name string
		gen  *stubGenerator
		want error
	}{
		{"error", &stubGenerator{err: errors.New("rate limited")}, nil},
		{"empty", &stubGenerator{response: "  \n"}, llm.ErrEmptyResponse},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newTestOrchestrator(t, tc.gen).Synthesize(context.Background(), appleRequest(), docs, val)
			var genErr *llm.GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, "synthesize", genErr.Op)
			if tc.want != nil {
				assert.ErrorIs(t, err, tc.want)
			}
		})
	}
}

func TestSynthesizeUnstructuredOutput(t *testing.T) {
	docs := appleDocs()
	o := newTestOrchestrator(t, &stubGenerator{response: "Apple looks solid overall [Source 1]."})

	report, err := o.Synthesize(context.Background(), appleRequest(), docs, scoredValidation(t, docs))
	require.NoError(t, err)
	assert.Empty(t, report.ExecutiveSummary)
	assert.Empty(t, report.KeyFindings)
	assert.NotNil(t, report.KeyFindings)
	assert.True(t, strings.HasPrefix(report.DetailedAnalysis, "Apple looks solid overall [Source: https://"))
}

func TestRetrieveCapsContext(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Synthesis.MaxContextChunks = 2
	cfg.Index.ChunkSize = 80
	cfg.Index.ChunkOverlap = 0
	builder := index.NewBuilder(llm.NewHashEmbedder(256), cfg.Index, nil)
	o := NewOrchestrator(&stubGenerator{}, builder, cfg.Synthesis, cfg.Validation, nil)

	var docs []types.SourceDocument
	for i := range 4 {
		docs = append(docs, types.SourceDocument{
			URL:     fmt.Sprintf("https://site%d.com/a", i),
			RawText: strings.Repeat(fmt.Sprintf("Apple revenue grew in region %d. ", i), 6),
		})
	}
	idx, err := builder.Build(context.Background(), docs)
	require.NoError(t, err)
	defer idx.Close()

	chunks, err := o.retrieve(context.Background(), idx, appleRequest())
	require.NoError(t, err)
	assert.Len(t, chunks, 2)
	assert.GreaterOrEqual(t, chunks[0].Similarity, chunks[1].Similarity)
}

func TestRetrievalQueries(t *testing.T) {
	req := appleRequest()
	assert.Equal(t, []string{
		"How did Apple's Q4 earnings look?",
		"Apple Inc. iPhone revenue",
		"Apple Inc. services growth",
		"Apple Inc. earnings analysis",
	}, retrievalQueries(req))

	assert.Equal(t, []string{"what next", "general analysis"},
		retrievalQueries(types.ResearchRequest{RawQuery: "what next", Intent: types.IntentGeneral, Topics: []string{"", "what next"}}))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short", excerpt("short", 10))
	got := excerpt("alpha beta gamma delta epsilon", 16)
	assert.Equal(t, "alpha beta...", got)
	assert.LessOrEqual(t, len([]rune(got)), 16)
	assert.Equal(t, "ab", excerpt("abcdef", 2))
}

func TestAnswer(t *testing.T) {
	gen := &stubGenerator{response: "Revenue was $94.9 billion [Source: https://reuters.com/apple-q4]."}
	o := newTestOrchestrator(t, gen)

	got, err := o.Answer(context.Background(), "What was Apple's revenue?", appleDocs())
	require.NoError(t, err)
	assert.Equal(t, "Revenue was $94.9 billion [Source: https://www.reuters.com/apple-q4].", got)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Question: What was Apple's revenue?")

	_, err = o.Answer(context.Background(), " ", appleDocs())
	assert.ErrorIs(t, err, ErrEmptyQuestion)
	_, err = o.Answer(context.Background(), "anything", nil)
	assert.ErrorIs(t, err, ErrNoDocuments)
}

func TestSynthesizeIdempotentWithDuplicateText(t *testing.T) {
	// One wire story republished across outlets embeds identically.
	story := "Apple reported fiscal fourth quarter revenue of $94.9 billion. iPhone revenue rose and services hit a record."
	var docs []types.SourceDocument
	for _, host := range []string{"reuters.com", "cnbc.com", "marketwatch.com", "finance.yahoo.com", "bloomberg.com", "wsj.com", "ft.com", "barrons.com"} {
		docs = append(docs, types.SourceDocument{URL: "https://www." + host + "/apple-q4", Title: "Apple Q4", RawText: story})
	}
	val := scoredValidation(t, docs)

	gen := &stubGenerator{response: "## Key Findings\n- Revenue grew [Source 1]\n- Margins held [Source 2]"}
	o := newTestOrchestrator(t, gen)

	first, err := o.Synthesize(context.Background(), appleRequest(), docs, val)
	require.NoError(t, err)
	require.Len(t, first.KeyFindings, 2)
	for i := 0; i < 10; i++ {
		again, err := o.Synthesize(context.Background(), appleRequest(), docs, val)
		require.NoError(t, err)
		assert.Equal(t, first.KeyFindings, again.KeyFindings, "run %d", i)
		assert.Equal(t, first.SourceList, again.SourceList, "run %d", i)
	}

	require.Len(t, gen.prompts, 11)
	for i, p := range gen.prompts[1:] {
		assert.Equal(t, gen.prompts[0], p, "prompt %d", i+1)
	}
}
