// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/equity-research/internal/httputil"
)

var (
	// markerRe matches [Source: url], [Source 2], [Source 2: url] and
	// [Sources: url1, url2].
	markerRe = regexp.MustCompile(`(?i)\[\s*sources?\s*(\d+)?\s*(?::\s*([^\]]*))?\]`)

	resolvedRe = regexp.MustCompile(`\[Source: ([^\]]+)\]`)
	multiSpace = regexp.MustCompile(`[ \t]{2,}`)
	spacePunct = regexp.MustCompile(`[ \t]+([.,;:!?])`)
)

// citations rewrites citation markers against the run's document set.
type citations struct {
	// byKey maps normalized URLs to the document URL.
	byKey map[string]string

	// numbered holds the context sources in prompt order for [Source N].
	numbered []string
}

func newCitations(docURLs, contextURLs []string) *citations {
	c := &citations{byKey: make(map[string]string, len(docURLs))}
	for _, u := range docURLs {
		c.byKey[httputil.NormalizeURL(u)] = u
	}
	c.numbered = contextURLs
	return c
}

// lookup returns the document URL a cited URL refers to.
func (c *citations) lookup(cited string) (string, bool) {
	cited = strings.Trim(strings.TrimSpace(cited), "<>\"'`")
	if cited == "" {
		return "", false
	}
	u, ok := c.byKey[httputil.NormalizeURL(cited)]
	return u, ok
}

// Resolve normalizes every marker in text to "[Source: <document url>]".
// Numeric markers map to the N-th context source. Markers that match no
// document are removed.
func (c *citations) Resolve(text string) string {
	if !strings.Contains(strings.ToLower(text), "source") {
		return text
	}
	removed := false
	out := markerRe.ReplaceAllStringFunc(text, func(m string) string {
		sub := markerRe.FindStringSubmatch(m)
		var urls []string
		// The whole body first, since query strings may carry commas.
		if u, ok := c.lookup(sub[2]); ok {
			urls = append(urls, u)
		} else {
			for _, part := range strings.FieldsFunc(sub[2], func(r rune) bool { return r == ',' || r == ';' || r == ' ' }) {
				if u, ok := c.lookup(part); ok {
					urls = append(urls, u)
				}
			}
		}
		if len(urls) == 0 && sub[1] != "" {
			if n, err := strconv.Atoi(sub[1]); err == nil && n >= 1 && n <= len(c.numbered) {
				urls = append(urls, c.numbered[n-1])
			}
		}
		if len(urls) == 0 {
			removed = true
			return ""
		}
		markers := make([]string, len(urls))
		for i, u := range urls {
			markers[i] = "[Source: " + u + "]"
		}
		return strings.Join(markers, " ")
	})
	if !removed {
		return out
	}

	lines := strings.Split(out, "\n")
	for i, l := range lines {
		l = multiSpace.ReplaceAllString(l, " ")
		l = spacePunct.ReplaceAllString(l, "$1")
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.Join(lines, "\n")
}

// FirstCited returns the URL of the first resolved marker in text.
func FirstCited(text string) string {
	if m := resolvedRe.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}
