// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query turns a free-text research question into a structured
// ResearchRequest. The generation model proposes the structure; a
// deterministic parser backed by the company catalog takes over whenever
// the model fails or answers with something unusable.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/equity-research/internal/catalog"
	"github.com/pdiddy/equity-research/internal/llm"
	"github.com/pdiddy/equity-research/pkg/types"
)

// ErrEmptyQuery is returned for a blank research question.
var ErrEmptyQuery = errors.New("research query is empty")

// errNoJSON is the cause recorded when a response holds no JSON object.
var errNoJSON = errors.New("no JSON object in model response")

// AnalysisError reports that the model could not structure the query.
// The request returned alongside it is the deterministic fallback.
type AnalysisError struct {
	Query string
	Err   error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analyzing query %q: %v", e.Query, e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }

// Analyzer structures research questions.
type Analyzer struct {
	gen     llm.Generator
	cfg     types.QueryConfig
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewAnalyzer creates an Analyzer. A nil catalog uses catalog.Default.
func NewAnalyzer(gen llm.Generator, cfg types.QueryConfig, cat *catalog.Catalog, logger *zap.Logger) *Analyzer {
	if cat == nil {
		cat = catalog.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxSearchQueries <= 0 {
		cfg.MaxSearchQueries = 5
	}
	return &Analyzer{gen: gen, cfg: cfg, catalog: cat, logger: logger}
}

// modelResponse is the JSON object the prompt asks for.
type modelResponse struct {
	CompanyName   string     `json:"company_name"`
	Ticker        string     `json:"ticker"`
	Intent        string     `json:"research_intent"`
	Topics        stringList `json:"key_topics"`
	TimeFrame     string     `json:"time_frame"`
	SearchQueries stringList `json:"search_queries"`
}

// stringList accepts either a JSON array of strings or a single string.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = stringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// Analyze structures raw into a ResearchRequest. When generation fails or
// its output cannot be parsed, Analyze returns the fallback request
// together with an *AnalysisError; callers may proceed with the request.
func (a *Analyzer) Analyze(ctx context.Context, raw string) (types.ResearchRequest, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return types.ResearchRequest{}, ErrEmptyQuery
	}

	fallback := a.Fallback(raw)
	fail := func(err error) (types.ResearchRequest, error) {
		a.logger.Warn("query analysis failed, using fallback",
			zap.String("stage", "analyze"),
			zap.String("company", fallback.CompanyName),
			zap.Error(err),
		)
		return fallback, &AnalysisError{Query: raw, Err: err}
	}

	if a.gen == nil {
		return fail(&llm.GenerationError{Op: "analyze", Err: errors.New("no generator configured")})
	}

	prompt, err := renderPrompt(raw, a.cfg.MaxSearchQueries)
	if err != nil {
		return fail(fmt.Errorf("rendering prompt: %w", err))
	}

	out, err := a.gen.Complete(ctx, prompt, a.cfg.MaxTokens, a.cfg.Temperature)
	if err == nil && strings.TrimSpace(out) == "" {
		err = llm.ErrEmptyResponse
	}
	if err != nil {
		return fail(&llm.GenerationError{Op: "analyze", Err: err})
	}

	resp, err := parseResponse(out)
	if err != nil {
		return fail(err)
	}

	req := a.merge(raw, resp, fallback)
	a.logger.Info("query analyzed",
		zap.String("stage", "analyze"),
		zap.String("company", req.CompanyName),
		zap.String("ticker", req.Ticker),
		zap.String("intent", string(req.Intent)),
		zap.Int("queries", len(req.SearchQueries)),
	)
	return req, nil
}

// parseResponse decodes the first JSON object in out.
func parseResponse(out string) (modelResponse, error) {
	start := strings.Index(out, "{")
	if start < 0 {
		return modelResponse{}, errNoJSON
	}
	var resp modelResponse
	if err := json.NewDecoder(strings.NewReader(out[start:])).Decode(&resp); err != nil {
		return modelResponse{}, fmt.Errorf("decoding model response: %w", err)
	}
	return resp, nil
}

// merge builds the request from a parsed response, filling gaps from the
// fallback. Optional fields stay empty when neither source has them.
func (a *Analyzer) merge(raw string, resp modelResponse, fallback types.ResearchRequest) types.ResearchRequest {
	req := types.ResearchRequest{
		RawQuery:    raw,
		CompanyName: cleanCompany(resp.CompanyName),
		Ticker:      normalizeTicker(resp.Ticker),
		Intent:      NormalizeIntent(resp.Intent),
		Topics:      cleanList(resp.Topics),
		TimeFrame:   strings.TrimSpace(resp.TimeFrame),
	}

	if req.CompanyName == "" && req.Ticker != "" {
		if co, ok := a.catalog.Lookup(req.Ticker); ok {
			req.CompanyName = co.Name
		}
	}
	if req.Ticker == "" && req.CompanyName != "" {
		if co, ok := a.catalog.Lookup(req.CompanyName); ok {
			req.Ticker = co.Ticker
		}
	}
	if req.Intent == types.IntentGeneral && resp.Intent == "" {
		req.Intent = fallback.Intent
	}
	if len(req.Topics) == 0 {
		req.Topics = fallback.Topics
	}

	req.SearchQueries = NormalizeQueries(resp.SearchQueries, a.cfg.MaxSearchQueries)
	if len(req.SearchQueries) == 0 {
		req.SearchQueries = NormalizeQueries(defaultQueries(req.Subject()), a.cfg.MaxSearchQueries)
	}
	return req
}

var placeholderCompanies = map[string]bool{
	"unknown": true, "unknown company": true, "n/a": true, "na": true,
	"none": true, "null": true, "": true,
}

func cleanCompany(s string) string {
	s = strings.TrimSpace(s)
	if placeholderCompanies[strings.ToLower(s)] {
		return ""
	}
	return s
}

var tickerPattern = regexp.MustCompile(`^[A-Z]{1,5}(?:[.\-][A-Z])?$`)

// normalizeTicker upper-cases a ticker and strips "$", parentheses and an
// exchange prefix ("NASDAQ:AAPL"). Anything that does not look like a
// ticker becomes empty.
func normalizeTicker(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.Trim(s, "$() ")
	if !tickerPattern.MatchString(s) {
		return ""
	}
	return s
}

func cleanList(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		s = strings.Join(strings.Fields(s), " ")
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
