// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParses(t *testing.T) {
	c := Default()
	require.NotEmpty(t, c.Companies)
	assert.Len(t, c.GenericSources, 5)
	assert.NotEmpty(t, c.TickerSources)
}

func TestLookup(t *testing.T) {
	c := Default()

	co, ok := c.Lookup("apple")
	require.True(t, ok)
	assert.Equal(t, "AAPL", co.Ticker)

	co, ok = c.Lookup("tsla")
	require.True(t, ok)
	assert.Equal(t, "Tesla Inc.", co.Name)

	_, ok = c.Lookup("Acme Widgets")
	assert.False(t, ok)

	_, ok = c.Lookup("   ")
	assert.False(t, ok)
}

func TestFindIn(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{"alias lower case", "how did apple do last quarter?", "AAPL", true},
		{"possessive", "What is Tesla's outlook for 2025?", "TSLA", true},
		{"ticker token", "Is NVDA overvalued?", "NVDA", true},
		{"dollar ticker", "thoughts on $MSFT earnings", "MSFT", true},
		{"earliest wins", "Compare Microsoft and Apple margins", "MSFT", true},
		{"substring is not a match", "pineapple futures", "", false},
		{"lower-case ticker ignored", "nvda", "", false},
		{"nothing", "general market outlook", "", false},
	}
	c := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			co, ok := c.FindIn(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, co.Ticker)
		})
	}
}

func TestFallbackSources(t *testing.T) {
	c := Default()

	urls := c.FallbackSources("Apple Inc.", "", 5)
	require.Len(t, urls, 5)
	assert.Equal(t, "https://investor.apple.com/", urls[0])
	assert.Contains(t, urls, "https://finance.yahoo.com/quote/AAPL/")

	urls = c.FallbackSources("", "ACME", 3)
	assert.Equal(t, []string{
		"https://finance.yahoo.com/quote/ACME/",
		"https://www.marketwatch.com/investing/stock/acme",
		"https://www.cnbc.com/quotes/ACME",
	}, urls)

	urls = c.FallbackSources("Unknown Corp", "", 10)
	assert.Equal(t, c.GenericSources, urls)
}

func TestParseRejectsNamelessCompany(t *testing.T) {
	_, err := Parse([]byte("companies:\n  - ticker: XYZ\n"))
	assert.ErrorContains(t, err, "missing name")

	_, err = Parse([]byte("companies: [unterminated"))
	assert.Error(t, err)
}
