// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"regexp"
	"strings"
)

// Section identifies a part of a generated report.
type Section int

const (
	sectionNone Section = iota
	SectionSummary
	SectionFindings
	SectionAnalysis
	SectionConsiderations
)

// sectionAliases maps normalized header text to a section.
var sectionAliases = map[string]Section{
	"EXECUTIVE SUMMARY":        SectionSummary,
	"SUMMARY":                  SectionSummary,
	"OVERVIEW":                 SectionSummary,
	"KEY FINDINGS":             SectionFindings,
	"FINDINGS":                 SectionFindings,
	"KEY POINTS":               SectionFindings,
	"HIGHLIGHTS":               SectionFindings,
	"DETAILED ANALYSIS":        SectionAnalysis,
	"ANALYSIS":                 SectionAnalysis,
	"DISCUSSION":               SectionAnalysis,
	"IMPORTANT CONSIDERATIONS": SectionConsiderations,
	"CONSIDERATIONS":           SectionConsiderations,
	"KEY CONSIDERATIONS":       SectionConsiderations,
	"RISKS":                    SectionConsiderations,
	"KEY RISKS":                SectionConsiderations,
	"RISK FACTORS":             SectionConsiderations,
	"RISKS AND CONSIDERATIONS": SectionConsiderations,
	"LIMITATIONS":              SectionConsiderations,
}

var (
	headerNumberRe = regexp.MustCompile(`^(?:\d+|[IVX]+)[.)]?\s+`)
	bulletRe       = regexp.MustCompile(`^(?:[-*•+]|\d+[.)])\s+(.*)$`)
	markBulletRe   = regexp.MustCompile(`^[-*•+]\s`)
	spacesRe       = regexp.MustCompile(`\s+`)
)

// Sections holds the parsed parts of a generated report.
type Sections struct {
	Summary        string
	Findings       []string
	Analysis       string
	Considerations []string
}

// ParseReport splits generated report text into sections. Headers are
// matched case-insensitively and may carry "#" prefixes, numbering, bold
// markers and a trailing colon, with content after the colon. Findings
// and considerations are read as bullet lists. Absent sections are empty.
// Text without any recognised header becomes the analysis; text before
// the first header is dropped otherwise.
func ParseReport(text string) Sections {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	buckets := map[Section][]string{}
	current := sectionNone
	found := false
	for _, line := range lines {
		if sec, rest, ok := matchHeader(line); ok {
			current = sec
			found = true
			if rest != "" {
				buckets[current] = append(buckets[current], rest)
			}
			continue
		}
		buckets[current] = append(buckets[current], line)
	}

	if !found {
		return Sections{Analysis: joinParagraphs(buckets[sectionNone])}
	}
	return Sections{
		Summary:        joinParagraphs(buckets[SectionSummary]),
		Findings:       listItems(buckets[SectionFindings]),
		Analysis:       joinParagraphs(buckets[SectionAnalysis]),
		Considerations: listItems(buckets[SectionConsiderations]),
	}
}

// matchHeader reports whether line is a section header and returns any
// content that follows the header's colon.
func matchHeader(line string) (Section, string, bool) {
	s := strings.TrimSpace(line)
	if s == "" || len(s) > 120 || markBulletRe.MatchString(s) {
		return sectionNone, "", false
	}

	head, rest, hasColon := strings.Cut(s, ":")
	if sec, ok := lookupHeader(head); ok {
		if !hasColon {
			return sec, "", true
		}
		return sec, strings.TrimSpace(strings.TrimLeft(rest, "*_ ")), true
	}
	return sectionNone, "", false
}

func lookupHeader(head string) (Section, bool) {
	h := strings.TrimSpace(head)
	h = strings.TrimLeft(h, "#")
	h = strings.ReplaceAll(h, "**", "")
	h = strings.ReplaceAll(h, "__", "")
	h = strings.Trim(h, "*_ \t")
	h = headerNumberRe.ReplaceAllString(h, "")
	h = strings.TrimSuffix(strings.TrimSpace(h), ":")
	h = strings.ToUpper(spacesRe.ReplaceAllString(strings.TrimSpace(h), " "))
	if h == "" {
		return sectionNone, false
	}
	sec, ok := sectionAliases[h]
	return sec, ok
}

// joinParagraphs trims the section, collapsing runs of blank lines.
func joinParagraphs(lines []string) string {
	var out []string
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t")
		if strings.TrimSpace(l) == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, strings.TrimSpace(l))
	}
	return strings.Join(out, "\n")
}

// listItems reads bullet items. Unmarked lines continue the previous
// item, or start one when there is none.
func listItems(lines []string) []string {
	items := []string{}
	continuing := false
	for _, l := range lines {
		s := strings.TrimSpace(l)
		if s == "" {
			continuing = false
			continue
		}
		if m := bulletRe.FindStringSubmatch(s); m != nil {
			if item := strings.TrimSpace(m[1]); item != "" {
				items = append(items, item)
				continuing = true
			}
			continue
		}
		if continuing && len(items) > 0 {
			items[len(items)-1] += " " + s
			continue
		}
		items = append(items, s)
		continuing = true
	}
	return items
}
