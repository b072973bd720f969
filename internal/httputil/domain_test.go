// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchDomain(t *testing.T) {
	tests := []struct {
		url   string
		entry string
		want  bool
	}{
		{"https://www.reuters.com/business/apple", "reuters.com", true},
		{"https://uk.reuters.com/x", "reuters.com", true},
		{"https://notreuters.com/x", "reuters.com", false},
		{"https://reuters.com.evil.io/x", "reuters.com", false},
		{"https://finance.yahoo.com/quote/AAPL", "yahoo.com/finance", false},
		{"https://yahoo.com/finance/news/apple", "yahoo.com/finance", true},
		{"https://www.yahoo.com/finance", "yahoo.com/finance", true},
		{"https://yahoo.com/financials", "yahoo.com/finance", false},
		{"https://www.forbes.com/investing/apple", "forbes.com/investing", true},
		{"https://www.forbes.com/lifestyle", "forbes.com/investing", false},
		{"ftp://reuters.com/file", "reuters.com", false},
		{"not a url", "reuters.com", false},
		{"https://reuters.com", "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchDomain(tt.url, tt.entry), "%s vs %s", tt.url, tt.entry)
	}
}

func TestMatchAny(t *testing.T) {
	entries := []string{"youtube.com", "reddit.com"}
	assert.True(t, MatchAny("https://m.youtube.com/watch?v=1", entries))
	assert.False(t, MatchAny("https://www.cnbc.com/", entries))
}

func TestHost(t *testing.T) {
	assert.Equal(t, "cnbc.com", Host("https://WWW.CNBC.com:443/quotes/AAPL"))
	assert.Equal(t, "", Host("/relative/path"))
}

func TestNormalizeURL(t *testing.T) {
	assert.Equal(t, "https://reuters.com/business", NormalizeURL("https://www.Reuters.com/business/"))
	assert.Equal(t, "https://reuters.com/business", NormalizeURL("https://reuters.com/business)."))
	assert.Equal(t, "https://reuters.com/a?b=1", NormalizeURL("https://reuters.com/a?b=1#top"))
	assert.Equal(t,
		NormalizeURL("https://www.cnbc.com/quotes/AAPL"),
		NormalizeURL("https://cnbc.com/quotes/AAPL/"))
}
