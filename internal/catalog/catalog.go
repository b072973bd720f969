// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog holds the registry of well-known companies and the
// curated source lists used when no search provider is available.
package catalog

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"go.yaml.in/yaml/v3"
)

//go:embed companies.yaml
var companiesYAML []byte

// Company is one known company.
type Company struct {
	Name    string   `yaml:"name"`
	Ticker  string   `yaml:"ticker"`
	Aliases []string `yaml:"aliases"`

	// Sources are curated URLs tried before the ticker templates.
	Sources []string `yaml:"sources"`
}

// Catalog is a parsed company registry.
type Catalog struct {
	Companies      []Company `yaml:"companies"`
	TickerSources  []string  `yaml:"ticker_sources"`
	GenericSources []string  `yaml:"generic_sources"`

	patterns []*regexp.Regexp
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Parse(companiesYAML)
		if err != nil {
			panic(fmt.Sprintf("catalog: embedded companies.yaml: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Parse decodes a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	for i, co := range c.Companies {
		if co.Name == "" {
			return nil, fmt.Errorf("company %d: missing name", i)
		}
		names := append([]string{co.Name}, co.Aliases...)
		quoted := make([]string, len(names))
		for j, n := range names {
			quoted[j] = regexp.QuoteMeta(n)
		}
		re, err := regexp.Compile(`(?i)(?:^|[^\pL\pN])(?:` + strings.Join(quoted, "|") + `)(?:$|[^\pL\pN])`)
		if err != nil {
			return nil, fmt.Errorf("company %q: %w", co.Name, err)
		}
		c.patterns = append(c.patterns, re)
	}
	return &c, nil
}

// Lookup finds a company by name, alias, or ticker, ignoring case.
func (c *Catalog) Lookup(key string) (Company, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Company{}, false
	}
	for _, co := range c.Companies {
		if strings.EqualFold(co.Name, key) || strings.EqualFold(co.Ticker, key) {
			return co, true
		}
		for _, a := range co.Aliases {
			if strings.EqualFold(a, key) {
				return co, true
			}
		}
	}
	return Company{}, false
}

// FindIn returns the company mentioned earliest in text, matching names
// and aliases as whole words ignoring case. Tickers of two or more
// letters match only as exact upper-case tokens.
func (c *Catalog) FindIn(text string) (Company, bool) {
	best, bestPos := -1, len(text)+1
	for i, re := range c.patterns {
		if loc := re.FindStringIndex(text); loc != nil && loc[0] < bestPos {
			best, bestPos = i, loc[0]
		}
	}
	for i, co := range c.Companies {
		if len(co.Ticker) < 2 {
			continue
		}
		if pos := tokenIndex(text, co.Ticker); pos >= 0 && pos < bestPos {
			best, bestPos = i, pos
		}
	}
	if best < 0 {
		return Company{}, false
	}
	return c.Companies[best], true
}

// tokenIndex returns the byte offset of tok as a whole token in text, or -1.
// A leading "$" or surrounding parentheses count as token boundaries.
func tokenIndex(text, tok string) int {
	for off := 0; off < len(text); {
		i := strings.Index(text[off:], tok)
		if i < 0 {
			return -1
		}
		start := off + i
		end := start + len(tok)
		if boundary(text, start-1) && boundary(text, end) {
			return start
		}
		off = start + 1
	}
	return -1
}

func boundary(text string, i int) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	ch := text[i]
	return !(ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' || ch == '.' && i+1 < len(text) && text[i+1] != ' ')
}

// FallbackSources returns up to n curated URLs for a company or ticker.
// A known company yields its curated sources followed by the ticker
// templates; an unknown ticker yields the templates; otherwise the
// generic financial news list is returned.
func (c *Catalog) FallbackSources(company, ticker string, n int) []string {
	var urls []string
	co, known := c.Lookup(company)
	if !known {
		co, known = c.Lookup(ticker)
	}
	if known {
		urls = append(urls, co.Sources...)
		if ticker == "" {
			ticker = co.Ticker
		}
	}
	if ticker != "" {
		urls = append(urls, c.tickerURLs(ticker)...)
	}
	urls = append(urls, c.GenericSources...)
	return firstUnique(urls, n)
}

func (c *Catalog) tickerURLs(ticker string) []string {
	r := strings.NewReplacer("{ticker}", strings.ToUpper(ticker), "{ticker_lower}", strings.ToLower(ticker))
	out := make([]string, 0, len(c.TickerSources))
	for _, tmpl := range c.TickerSources {
		out = append(out, r.Replace(tmpl))
	}
	return out
}

func firstUnique(urls []string, n int) []string {
	seen := make(map[string]bool, len(urls))
	var out []string
	for _, u := range urls {
		if n > 0 && len(out) >= n {
			break
		}
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
