// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"strings"
	"unicode"

	"github.com/pdiddy/equity-research/pkg/types"
)

const (
	maxQueryWords = 10
	maxQueryChars = 100
)

// intentKeywords maps intent vocabulary to the intent enum. Checked in
// order; the first intent with a matching keyword wins.
var intentKeywords = []struct {
	intent   types.Intent
	keywords []string
}{
	{types.IntentEarnings, []string{"earning", "eps", "quarterly result", "revenue", "profit", "income", "results"}},
	{types.IntentValuation, []string{"valuation", "valued", "overvalued", "undervalued", "price target", "p/e", "worth", "buy", "sell", "dcf", "multiple"}},
	{types.IntentCompetition, []string{"compet", "rival", " vs ", "versus", "market share", "compare", "comparison"}},
	{types.IntentOutlook, []string{"outlook", "forecast", "guidance", "future", "prospect", "expect", "growth plan"}},
	{types.IntentSector, []string{"sector", "industry", "peers"}},
}

// NormalizeIntent maps a free-form intent label onto the Intent enum.
// Labels such as "earnings_analysis" or "Valuation Research" are
// recognised by keyword; anything else is general.
func NormalizeIntent(label string) types.Intent {
	l := strings.ToLower(strings.TrimSpace(label))
	if types.ValidIntent(types.Intent(l)) {
		return types.Intent(l)
	}
	l = " " + strings.NewReplacer("_", " ", "-", " ").Replace(l) + " "
	for _, ik := range intentKeywords {
		for _, kw := range ik.keywords {
			if strings.Contains(l, kw) {
				return ik.intent
			}
		}
	}
	return types.IntentGeneral
}

// NormalizeQuery reduces q to a short keyword query: quotes and stray
// punctuation removed, whitespace collapsed, at most ten words and one
// hundred characters. The empty string means nothing usable remained.
func NormalizeQuery(q string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == '&', r == '$', r == '.', r == '-', r == '\'', r == '/', r == '%':
			return r
		default:
			return ' '
		}
	}, q)

	var words []string
	for _, w := range strings.Fields(cleaned) {
		w = strings.Trim(w, ".-'/")
		if w == "" {
			continue
		}
		words = append(words, w)
		if len(words) == maxQueryWords {
			break
		}
	}

	out := strings.Join(words, " ")
	for len(out) > maxQueryChars {
		i := strings.LastIndex(out, " ")
		if i <= 0 {
			out = truncateRunes(out, maxQueryChars)
			break
		}
		out = out[:i]
	}
	return out
}

// NormalizeQueries normalizes each query, drops empty and duplicate
// (case-insensitive) queries, and keeps at most max of them in order.
func NormalizeQueries(queries []string, max int) []string {
	seen := make(map[string]bool, len(queries))
	var out []string
	for _, q := range queries {
		if max > 0 && len(out) >= max {
			break
		}
		n := NormalizeQuery(q)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

func defaultQueries(subject string) []string {
	return []string{
		subject + " latest news",
		subject + " stock analysis",
		subject + " financial performance",
	}
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
