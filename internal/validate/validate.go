// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate scores fetched sources for credibility and aggregates
// the scores into a run-level confidence with user-visible warnings.
// Scoring is heuristic and deterministic for a fixed clock.
package validate

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/equity-research/internal/httputil"
	"github.com/pdiddy/equity-research/pkg/types"
)

// Score components.
const (
	baseScore      = 50
	trustedBonus   = 30
	lengthBonus    = 5
	keywordBonus   = 5
	maxKeywordGain = 10
	figureBonus    = 5
	recencyBonus   = 5
)

// financialKeywords are matched as whole words, case-insensitively.
var financialKeywords = []string{
	"earnings", "revenue", "profit", "quarter", "fiscal", "guidance",
	"margin", "eps", "dividend", "valuation", "forecast", "analyst",
}

var (
	keywordRe = regexp.MustCompile(`(?i)\b(` + strings.Join(financialKeywords, "|") + `)\b`)
	figureRe  = regexp.MustCompile(`(?i)(\$\s?\d[\d,]*(\.\d+)?|\b\d+(\.\d+)?\s?%|\b\d+(\.\d+)?\s(billion|million|trillion)\b)`)
	yearRe    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

// Scorer evaluates SourceDocuments against a ValidationConfig.
type Scorer struct {
	cfg    types.ValidationConfig
	logger *zap.Logger

	// now anchors the recency signal; tests replace it.
	now func() time.Time
}

// NewScorer creates a Scorer. A nil logger disables logging.
func NewScorer(cfg types.ValidationConfig, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{cfg: cfg, logger: logger, now: time.Now}
}

// Validate scores every document and builds the run's ValidationReport.
// It never fails: an empty document set yields zero confidence and a
// warning.
func (s *Scorer) Validate(docs []types.SourceDocument) types.ValidationReport {
	// Scores in input order; a map alone loses it.
	ordered := make([]types.CredibilityScore, 0, len(docs))
	seen := make(map[string]bool, len(docs))
	for _, d := range docs {
		if seen[d.URL] {
			continue
		}
		seen[d.URL] = true
		cs := s.Score(d)
		ordered = append(ordered, cs)
		s.logger.Debug("scored source",
			zap.String("stage", "validate"),
			zap.String("url", d.URL),
			zap.Int("score", cs.Score),
			zap.Bool("trusted", cs.IsTrustedDomain),
		)
	}
	return s.Summarize(ordered)
}

// Summarize aggregates per-source scores into a ValidationReport with
// counts, confidence, warnings and notes.
func (s *Scorer) Summarize(ordered []types.CredibilityScore) types.ValidationReport {
	report := types.ValidationReport{
		Scores:   make(map[string]types.CredibilityScore, len(ordered)),
		Warnings: []string{},
	}
	for _, cs := range ordered {
		report.Scores[cs.SourceURL] = cs
	}

	highCutoff := s.cutoff(s.cfg.HighConfidenceThreshold)
	lowCutoff := s.cutoff(s.cfg.MinConfidenceScore)
	var low int
	for _, cs := range ordered {
		if cs.IsTrustedDomain {
			report.TrustedCount++
		}
		if cs.Score >= highCutoff {
			report.HighQualityCount++
		}
		if cs.Score < lowCutoff {
			low++
		}
	}
	report.OverallConfidence = s.Confidence(ordered)

	n := len(ordered)
	if n == 0 {
		report.Warnings = append(report.Warnings, "No sources available for analysis")
	}
	if n > 0 && report.OverallConfidence < s.cfg.MinConfidenceScore {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Low confidence (%.2f) - verify findings independently", report.OverallConfidence))
	}
	if n > 0 && report.TrustedCount == 0 {
		report.Warnings = append(report.Warnings, "No sources from trusted financial domains")
	}
	if n > 0 && n < s.cfg.MinSources {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("Only %d source(s) analyzed; at least %d recommended", n, s.cfg.MinSources))
	}
	if low > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%d source(s) have low credibility scores", low))
	}

	if report.TrustedCount > 0 {
		report.Notes = append(report.Notes, fmt.Sprintf("%d source(s) from trusted financial sites", report.TrustedCount))
	}
	if report.HighQualityCount > 0 {
		report.Notes = append(report.Notes, fmt.Sprintf("%d high-quality source(s) found", report.HighQualityCount))
	}
	if n > 0 && low == 0 && len(report.Notes) == 0 {
		report.Notes = append(report.Notes, "Moderate quality sources, exercise caution")
	}

	s.logger.Info("validation complete",
		zap.String("stage", "validate"),
		zap.Int("count", n),
		zap.Int("trusted", report.TrustedCount),
		zap.Float64("confidence", report.OverallConfidence),
	)
	return report
}

// Score computes the CredibilityScore of a single document.
func (s *Scorer) Score(d types.SourceDocument) types.CredibilityScore {
	cs := types.CredibilityScore{
		SourceURL:       d.URL,
		IsTrustedDomain: httputil.MatchAny(d.URL, s.cfg.TrustedDomains),
	}

	text := strings.TrimSpace(d.RawText)
	if text == "" {
		cs.Notes = []string{"No extractable text"}
		return cs
	}

	score := baseScore
	if cs.IsTrustedDomain {
		score += trustedBonus
		cs.Notes = append(cs.Notes, "Trusted financial domain")
	}

	if chars := utf8.RuneCountInString(text); chars >= s.cfg.MinContentLength {
		score += lengthBonus
		cs.Notes = append(cs.Notes, fmt.Sprintf("Substantial content (%d chars)", chars))
	}

	if kws := distinctKeywords(text); len(kws) > 0 {
		score += min(len(kws)*keywordBonus, maxKeywordGain)
		cs.Notes = append(cs.Notes, "Financial terms: "+strings.Join(kws, ", "))
	}

	if figureRe.MatchString(text) {
		score += figureBonus
		cs.Notes = append(cs.Notes, "Contains financial figures")
	}

	if y, ok := recentYear(text, s.now()); ok {
		score += recencyBonus
		cs.Notes = append(cs.Notes, fmt.Sprintf("Recent date reference (%d)", y))
	}

	cs.Score = max(0, min(score, 100))
	return cs
}

// Confidence aggregates scores into a value in [0,1]: ScoreWeight times
// the trust-weighted mean score plus TrustWeight times the trusted ratio,
// rounded to four decimals. No scores yields 0.
func (s *Scorer) Confidence(scores []types.CredibilityScore) float64 {
	if len(scores) == 0 {
		return 0
	}

	var weighted, totalWeight float64
	var trusted int
	for _, cs := range scores {
		w := s.cfg.UntrustedWeight
		if cs.IsTrustedDomain {
			w = s.cfg.TrustedWeight
			trusted++
		}
		weighted += w * float64(cs.Score)
		totalWeight += w
	}

	var mean float64
	if totalWeight > 0 {
		mean = weighted / totalWeight / 100
	}
	ratio := float64(trusted) / float64(len(scores))

	c := s.cfg.ScoreWeight*mean + s.cfg.TrustWeight*ratio
	c = math.Max(0, math.Min(1, c))
	return math.Round(c*10000) / 10000
}

func (s *Scorer) cutoff(threshold float64) int {
	return int(math.Round(threshold * 100))
}

// distinctKeywords returns the financial keywords found in text, in
// first-occurrence order.
func distinctKeywords(text string) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range keywordRe.FindAllString(text, -1) {
		k := strings.ToLower(m)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

// recentYear reports the most recent year in text that falls in the
// current or previous calendar year relative to now.
func recentYear(text string, now time.Time) (int, bool) {
	best := 0
	for _, m := range yearRe.FindAllString(text, -1) {
		y, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if y <= now.Year() && y >= now.Year()-1 && y > best {
			best = y
		}
	}
	return best, best > 0
}
