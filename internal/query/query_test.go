// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/equity-research/internal/llm"
	"github.com/pdiddy/equity-research/pkg/types"
)

type stubGenerator struct {
	out    string
	err    error
	prompt string
}

func (s *stubGenerator) Complete(_ context.Context, prompt string, _ int, _ float64) (string, error) {
	s.prompt = prompt
	return s.out, s.err
}

func newAnalyzer(t *testing.T, gen llm.Generator) *Analyzer {
	t.Helper()
	return NewAnalyzer(gen, types.DefaultConfig().Query, nil, zaptest.NewLogger(t))
}

func TestAnalyze_ParsesModelJSON(t *testing.T) {
	gen := &stubGenerator{out: "Here you go:\n```json\n" + `{
		"company_name": "Tesla",
		"ticker": "$tsla",
		"research_intent": "earnings_analysis",
		"key_topics": ["Q4 earnings", "delivery numbers", "q4 earnings"],
		"time_frame": "recent",
		"search_queries": ["\"Tesla Q4 2024 earnings report\"", "TSLA delivery numbers 2024", "Tesla profit margin analysis!!"]
	}` + "\n```"}

	req, err := newAnalyzer(t, gen).Analyze(context.Background(), "  How did Tesla do in Q4?  ")
	require.NoError(t, err)

	assert.Equal(t, "How did Tesla do in Q4?", req.RawQuery)
	assert.Equal(t, "Tesla", req.CompanyName)
	assert.Equal(t, "TSLA", req.Ticker)
	assert.Equal(t, types.IntentEarnings, req.Intent)
	assert.Equal(t, []string{"Q4 earnings", "delivery numbers"}, req.Topics)
	assert.Equal(t, "recent", req.TimeFrame)
	assert.Equal(t, []string{
		"Tesla Q4 2024 earnings report",
		"TSLA delivery numbers 2024",
		"Tesla profit margin analysis",
	}, req.SearchQueries)
	assert.Contains(t, gen.prompt, "How did Tesla do in Q4?")
}

func TestAnalyze_MissingOptionalFields(t *testing.T) {
	gen := &stubGenerator{out: `{"company_name": null, "research_intent": "sector", "key_topics": "semiconductors", "search_queries": ["semiconductor sector outlook"]}`}

	req, err := newAnalyzer(t, gen).Analyze(context.Background(), "how are chip makers doing")
	require.NoError(t, err)

	assert.Empty(t, req.CompanyName)
	assert.Empty(t, req.Ticker)
	assert.Equal(t, types.IntentSector, req.Intent)
	assert.Equal(t, []string{"semiconductors"}, req.Topics)
	assert.Equal(t, []string{"semiconductor sector outlook"}, req.SearchQueries)
}

func TestAnalyze_MissingQueriesUsesDeterministicDefaults(t *testing.T) {
	gen := &stubGenerator{out: `{"company_name": "Unknown", "ticker": "NVDA", "search_queries": []}`}

	req, err := newAnalyzer(t, gen).Analyze(context.Background(), "nvda outlook")
	require.NoError(t, err)

	assert.Equal(t, "NVIDIA Corporation", req.CompanyName)
	assert.Equal(t, []string{
		"NVIDIA Corporation latest news",
		"NVIDIA Corporation stock analysis",
		"NVIDIA Corporation financial performance",
	}, req.SearchQueries)
	assert.Equal(t, types.IntentOutlook, req.Intent)
}

func TestAnalyze_CapsQueries(t *testing.T) {
	var qs []string
	for i := 0; i < 9; i++ {
		qs = append(qs, `"apple query `+string(rune('a'+i))+`"`)
	}
	gen := &stubGenerator{out: `{"company_name":"Apple","search_queries":[` + strings.Join(qs, ",") + `]}`}

	req, err := newAnalyzer(t, gen).Analyze(context.Background(), "apple")
	require.NoError(t, err)
	assert.Len(t, req.SearchQueries, 5)
	assert.Equal(t, "apple query a", req.SearchQueries[0])
	assert.Equal(t, "AAPL", req.Ticker)
}

func TestAnalyze_GenerationErrorReturnsFallback(t *testing.T) {
	cause := errors.New("rate limited")
	req, err := newAnalyzer(t, &stubGenerator{err: cause}).Analyze(context.Background(), "What is Apple's valuation?")

	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	var ge *llm.GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "analyze", ge.Op)
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "Apple Inc.", req.CompanyName)
	assert.Equal(t, "AAPL", req.Ticker)
	assert.Equal(t, types.IntentValuation, req.Intent)
	assert.NotEmpty(t, req.SearchQueries)
}

func TestAnalyze_UnparseableOutput(t *testing.T) {
	for _, out := range []string{"I cannot help with that.", `{"company_name": "Apple", `, "   "} {
		req, err := newAnalyzer(t, &stubGenerator{out: out}).Analyze(context.Background(), "Apple earnings")
		var ae *AnalysisError
		require.ErrorAs(t, err, &ae, "output %q", out)
		assert.Equal(t, "Apple Inc.", req.CompanyName)
		assert.NotEmpty(t, req.SearchQueries)
	}
}

func TestAnalyze_NilGenerator(t *testing.T) {
	req, err := newAnalyzer(t, nil).Analyze(context.Background(), "Tesla outlook")
	var ae *AnalysisError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "TSLA", req.Ticker)
}

func TestAnalyze_EmptyQuery(t *testing.T) {
	_, err := newAnalyzer(t, &stubGenerator{}).Analyze(context.Background(), " \t\n")
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestFallback(t *testing.T) {
	a := newAnalyzer(t, nil)

	tests := []struct {
		raw        string
		company    string
		ticker     string
		intent     types.Intent
		timeFrame  string
		firstQuery string
	}{
		{"Should I buy Acme Rocket Corp stock?", "Acme Rocket", "", types.IntentValuation, "recent", "Acme Rocket latest news"},
		{"Outlook for Zebra Technologies (ZBRA) in Q3 2025", "Zebra Technologies", "ZBRA", types.IntentOutlook, "Q3 2025", "Zebra Technologies latest news"},
		{"thoughts on $msft", "Microsoft Corporation", "MSFT", types.IntentGeneral, "recent", "Microsoft Corporation latest news"},
		{"how is the market doing", "", "", types.IntentGeneral, "recent", "how is the market doing latest news"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			req := a.Fallback(tt.raw)
			assert.Equal(t, tt.company, req.CompanyName)
			assert.Equal(t, tt.ticker, req.Ticker)
			assert.Equal(t, tt.intent, req.Intent)
			assert.Equal(t, tt.timeFrame, req.TimeFrame)
			require.NotEmpty(t, req.SearchQueries)
			assert.LessOrEqual(t, len(req.SearchQueries), 5)
			assert.Equal(t, tt.firstQuery, req.SearchQueries[0])
			assert.NotEmpty(t, req.Topics)
		})
	}
}

func TestFallbackRespectsQueryLimit(t *testing.T) {
	cfg := types.DefaultConfig().Query
	cfg.MaxSearchQueries = 1
	a := NewAnalyzer(nil, cfg, nil, nil)
	assert.Len(t, a.Fallback("Apple").SearchQueries, 1)
}

func TestNormalizeIntent(t *testing.T) {
	tests := map[string]types.Intent{
		"earnings":             types.IntentEarnings,
		"earnings_analysis":    types.IntentEarnings,
		"Valuation Research":   types.IntentValuation,
		"competitive-analysis": types.IntentCompetition,
		"future outlook":       types.IntentOutlook,
		"industry trends":      types.IntentSector,
		"news":                 types.IntentGeneral,
		"":                     types.IntentGeneral,
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeIntent(in), in)
	}
}

func TestNormalizeQuery(t *testing.T) {
	assert.Equal(t, "Apple Q4 earnings", NormalizeQuery(`  "Apple"   Q4 earnings?! `))
	assert.Equal(t, "AT&T dividend 7.5%", NormalizeQuery("AT&T dividend: 7.5%"))
	assert.Equal(t, "one two three four five six seven eight nine ten",
		NormalizeQuery("one two three four five six seven eight nine ten eleven twelve"))
	assert.Empty(t, NormalizeQuery(`"" ... --`))

	long := strings.Repeat("abcdefghij", 15)
	assert.Len(t, NormalizeQuery(long), maxQueryChars)

	words := NormalizeQuery(strings.Repeat("financial ", 9) + "x")
	assert.LessOrEqual(t, len(words), maxQueryChars)
	assert.False(t, strings.HasSuffix(words, " "))
}

func TestNormalizeQueriesDedupes(t *testing.T) {
	got := NormalizeQueries([]string{"Apple news", "apple NEWS", "", "Apple earnings"}, 5)
	assert.Equal(t, []string{"Apple news", "Apple earnings"}, got)
}
