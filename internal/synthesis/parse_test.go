// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReportCanonical(t *testing.T) {
	text := `EXECUTIVE SUMMARY
Apple delivered record revenue. [Source: https://a.com/1]

KEY FINDINGS
- Revenue rose 8% [Source: https://a.com/1]
- Services hit a record
  driven by subscriptions

DETAILED ANALYSIS
First paragraph.
Still first paragraph.


Second paragraph.

IMPORTANT CONSIDERATIONS
- China demand is uncertain
- Regulatory risk`

	got := ParseReport(text)
	assert.Equal(t, "Apple delivered record revenue. [Source: https://a.com/1]", got.Summary)
	assert.Equal(t, []string{
		"Revenue rose 8% [Source: https://a.com/1]",
		"Services hit a record driven by subscriptions",
	}, got.Findings)
	assert.Equal(t, "First paragraph.\nStill first paragraph.\n\nSecond paragraph.", got.Analysis)
	assert.Equal(t, []string{"China demand is uncertain", "Regulatory risk"}, got.Considerations)
}

func TestParseReportHeaderVariants(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   Section
	}{
		{"markdown h2", "## Executive Summary", SectionSummary},
		{"numbered", "1. EXECUTIVE SUMMARY", SectionSummary},
		{"numbered markdown", "### 2) Key Findings:", SectionFindings},
		{"bold", "**Detailed Analysis**", SectionAnalysis},
		{"bold colon inside", "**Risks:**", SectionConsiderations},
		{"lower case", "important considerations", SectionConsiderations},
		{"roman numeral", "III. Analysis", SectionAnalysis},
		{"alias", "Highlights", SectionFindings},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sec, rest, ok := matchHeader(tc.header)
			assert.True(t, ok)
			assert.Equal(t, tc.want, sec)
			assert.Empty(t, rest)
		})
	}
}

func TestMatchHeaderRejects(t *testing.T) {
	for _, line := range []string{
		"",
		"Revenue grew in the quarter.",
		"- Risks: currency exposure",
		"* Summary",
		"The analysis shows strength",
	} {
		_, _, ok := matchHeader(line)
		assert.False(t, ok, line)
	}
}

func TestParseReportInlineHeaderContent(t *testing.T) {
	text := "**Executive Summary:** Strong quarter overall.\nKey findings:\n1) EPS beat\n2) Margin expanded\nRisks: Currency headwinds."
	got := ParseReport(text)

	assert.Equal(t, "Strong quarter overall.", got.Summary)
	assert.Equal(t, []string{"EPS beat", "Margin expanded"}, got.Findings)
	assert.Equal(t, []string{"Currency headwinds."}, got.Considerations)
	assert.Empty(t, got.Analysis)
}

func TestParseReportMissingSections(t *testing.T) {
	got := ParseReport("Here is your report.\n\nKEY FINDINGS\n• One\n• Two")
	assert.Empty(t, got.Summary)
	assert.Empty(t, got.Analysis)
	assert.Empty(t, got.Considerations)
	assert.NotNil(t, got.Considerations)
	assert.Equal(t, []string{"One", "Two"}, got.Findings)
}

func TestParseReportNoHeaders(t *testing.T) {
	got := ParseReport("  Apple looks fairly valued.\r\n\r\nMargins are stable.  ")
	assert.Equal(t, "Apple looks fairly valued.\n\nMargins are stable.", got.Analysis)
	assert.Empty(t, got.Summary)
	assert.Empty(t, got.Findings)
}

func TestParseReportEmpty(t *testing.T) {
	assert.Equal(t, Sections{}, ParseReport(""))
}

func TestParseReportRepeatedHeader(t *testing.T) {
	got := ParseReport("KEY FINDINGS\n- a\nANALYSIS\ntext\nKEY FINDINGS\n- b")
	assert.Equal(t, []string{"a", "b"}, got.Findings)
	assert.Equal(t, "text", got.Analysis)
}
