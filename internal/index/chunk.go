// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// chunkSeparators are tried in order, coarsest first.
var chunkSeparators = []string{"\n\n", "\n", ". ", ", ", " "}

// Split breaks text into overlapping chunks of at most size runes.
// Blank chunks are dropped. A non-positive size disables splitting.
func Split(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if size <= 0 {
		return []string{text}
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(size),
		textsplitter.WithChunkOverlap(overlap),
		textsplitter.WithSeparators(chunkSeparators),
	)
	parts, err := splitter.SplitText(text)
	if err != nil {
		parts = []string{text}
	}

	var out []string
	for _, p := range parts {
		for _, c := range hardCap(strings.TrimSpace(p), size) {
			if c != "" {
				out = append(out, c)
			}
		}
	}
	return out
}

// hardCap cuts s into pieces of at most n runes. The recursive splitter
// can leave longer pieces when a span has no separator.
func hardCap(s string, n int) []string {
	r := []rune(s)
	if len(r) <= n {
		return []string{s}
	}
	var out []string
	for len(r) > n {
		out = append(out, strings.TrimSpace(string(r[:n])))
		r = r[n:]
	}
	if rest := strings.TrimSpace(string(r)); rest != "" {
		out = append(out, rest)
	}
	return out
}
