// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCitationsResolve(t *testing.T) {
	c := newCitations(
		[]string{"https://www.reuters.com/apple-q4", "https://cnbc.com/apple"},
		[]string{"https://cnbc.com/apple", "https://www.reuters.com/apple-q4"},
	)

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "exact url",
			in:   "Revenue rose [Source: https://www.reuters.com/apple-q4].",
			want: "Revenue rose [Source: https://www.reuters.com/apple-q4].",
		},
		{
			name: "trailing slash and case",
			in:   "Revenue rose [source: HTTPS://Reuters.com/apple-q4/].",
			want: "Revenue rose [Source: https://www.reuters.com/apple-q4].",
		},
		{
			name: "numeric marker",
			in:   "Margins held [Source 2].",
			want: "Margins held [Source: https://www.reuters.com/apple-q4].",
		},
		{
			name: "numeric with url prefers url",
			in:   "Margins held [Source 1: https://www.reuters.com/apple-q4]",
			want: "Margins held [Source: https://www.reuters.com/apple-q4]",
		},
		{
			name: "multiple urls",
			in:   "Both agree [Sources: https://cnbc.com/apple, https://www.reuters.com/apple-q4]",
			want: "Both agree [Source: https://cnbc.com/apple] [Source: https://www.reuters.com/apple-q4]",
		},
		{
			name: "unknown url removed",
			in:   "Shares fell [Source: https://unknown.example.com/x]. Then rose.",
			want: "Shares fell. Then rose.",
		},
		{
			name: "out of range number removed",
			in:   "Guidance raised [Source 9], analysts said.",
			want: "Guidance raised, analysts said.",
		},
		{
			name: "no markers",
			in:   "Plain text.",
			want: "Plain text.",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Resolve(tc.in))
		})
	}
}

func TestFirstCited(t *testing.T) {
	assert.Equal(t, "https://a.com/1", FirstCited("x [Source: https://a.com/1] y [Source: https://b.com]"))
	assert.Empty(t, FirstCited("no citation"))
}

func TestCitationsResolveURLWithComma(t *testing.T) {
	edgar := "https://www.sec.gov/cgi-bin/browse-edgar?action=getcompany&CIK=0000320193&type=10-K,10-Q"
	c := newCitations(
		[]string{edgar, "https://cnbc.com/apple"},
		[]string{edgar, "https://cnbc.com/apple"},
	)

	got := c.Resolve("Apple filed its annual report [Source: " + edgar + "].")
	assert.Equal(t, "Apple filed its annual report [Source: "+edgar+"].", got)
	assert.Equal(t, edgar, FirstCited(got))

	got = c.Resolve("Filings and coverage [Source 1] [Source: https://cnbc.com/apple]")
	assert.Equal(t, "Filings and coverage [Source: "+edgar+"] [Source: https://cnbc.com/apple]", got)
}
