// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/pdiddy/equity-research/pkg/types"
)

var (
	dollarTicker = regexp.MustCompile(`\$([A-Za-z]{1,5}(?:\.[A-Za-z])?)\b`)
	parenTicker  = regexp.MustCompile(`\(([A-Z]{1,5}(?:\.[A-Z])?)\)`)
	quarterYear  = regexp.MustCompile(`(?i)\bQ[1-4]\s*(?:FY\s*)?(?:19|20)\d{2}\b`)
	fiscalYear   = regexp.MustCompile(`(?i)\b(?:FY\s*)?(?:19|20)\d{2}\b`)
)

// stopWords are capitalised words that start questions rather than name companies.
var stopWords = map[string]bool{
	"what": true, "whats": true, "how": true, "why": true, "when": true, "where": true,
	"who": true, "which": true, "should": true, "could": true, "would": true, "can": true,
	"does": true, "did": true, "the": true, "and": true, "for": true, "are": true,
	"analyze": true, "analyse": true, "compare": true, "give": true, "tell": true,
	"show": true, "explain": true, "summarize": true, "research": true, "please": true,
	"latest": true, "recent": true, "news": true, "stock": true, "stocks": true,
	"earnings": true, "valuation": true, "outlook": true, "report": true, "about": true,
	"this": true, "that": true, "its": true, "their": true, "with": true,
}

var intentTopics = map[types.Intent][]string{
	types.IntentEarnings:    {"earnings results", "revenue growth", "profit margins"},
	types.IntentValuation:   {"valuation multiples", "price targets", "financial performance"},
	types.IntentCompetition: {"competitive position", "market share", "financial performance"},
	types.IntentOutlook:     {"guidance", "growth outlook", "latest news"},
	types.IntentSector:      {"sector trends", "industry peers", "latest news"},
	types.IntentGeneral:     {"latest news", "financial performance"},
}

// Fallback derives a ResearchRequest from raw without the generation
// model. The company comes from the catalog, else from the first two
// capitalised words; the ticker from "$TSLA", "(TSLA)" or the catalog;
// the intent from keywords. It always yields at least one search query.
func (a *Analyzer) Fallback(raw string) types.ResearchRequest {
	raw = strings.TrimSpace(raw)
	req := types.ResearchRequest{
		RawQuery: raw,
		Intent:   intentFromText(raw),
	}

	if co, ok := a.catalog.FindIn(raw); ok {
		req.CompanyName = co.Name
		req.Ticker = co.Ticker
	} else {
		req.CompanyName = capitalisedName(raw)
	}

	if t := explicitTicker(raw); t != "" {
		req.Ticker = t
		if req.CompanyName == "" {
			if co, ok := a.catalog.Lookup(t); ok {
				req.CompanyName = co.Name
			}
		}
	}

	req.Topics = append([]string(nil), intentTopics[req.Intent]...)
	req.TimeFrame = timeFrame(raw)

	subject := req.CompanyName
	if subject == "" {
		subject = req.Ticker
	}
	if subject == "" {
		subject = NormalizeQuery(raw)
		if words := strings.Fields(subject); len(words) > 6 {
			subject = strings.Join(words[:6], " ")
		}
	}
	req.SearchQueries = NormalizeQueries(defaultQueries(subject), a.cfg.MaxSearchQueries)
	if len(req.SearchQueries) == 0 {
		req.SearchQueries = []string{"stock market latest news"}
	}
	return req
}

func intentFromText(raw string) types.Intent {
	l := " " + strings.ToLower(raw) + " "
	for _, ik := range intentKeywords {
		for _, kw := range ik.keywords {
			if strings.Contains(l, kw) {
				return ik.intent
			}
		}
	}
	return types.IntentGeneral
}

func explicitTicker(raw string) string {
	if m := dollarTicker.FindStringSubmatch(raw); m != nil {
		return strings.ToUpper(m[1])
	}
	if m := parenTicker.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

// capitalisedName joins the first two capitalised words longer than two
// characters that are not stop words.
func capitalisedName(raw string) string {
	var picked []string
	for _, w := range strings.Fields(raw) {
		w = strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '&'
		})
		w = strings.TrimSuffix(strings.TrimSuffix(w, "'s"), "’s")
		if len([]rune(w)) <= 2 {
			continue
		}
		first := []rune(w)[0]
		if !unicode.IsUpper(first) || stopWords[strings.ToLower(w)] {
			continue
		}
		picked = append(picked, w)
		if len(picked) == 2 {
			break
		}
	}
	return strings.Join(picked, " ")
}

func timeFrame(raw string) string {
	if m := quarterYear.FindString(raw); m != "" {
		return strings.ToUpper(strings.Join(strings.Fields(m), " "))
	}
	if m := fiscalYear.FindString(raw); m != "" {
		return strings.ToUpper(m)
	}
	return "recent"
}
