// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"net/url"
	"strings"
)

// Host returns the lower-cased host of rawURL without port or a leading
// "www.". It returns "" when rawURL is not an absolute http(s) URL.
func Host(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

// MatchDomain reports whether rawURL belongs to entry. The entry host
// matches itself and its subdomains ("finance.yahoo.com" belongs to
// "yahoo.com"). An entry with a path ("yahoo.com/finance") also requires
// the URL path to start with that path.
func MatchDomain(rawURL, entry string) bool {
	entry = strings.ToLower(strings.TrimSpace(entry))
	entry = strings.TrimPrefix(strings.TrimPrefix(entry, "https://"), "http://")
	entry = strings.TrimPrefix(entry, "www.")
	if entry == "" {
		return false
	}

	entryHost, entryPath, _ := strings.Cut(entry, "/")
	host := Host(rawURL)
	if host == "" || (host != entryHost && !strings.HasSuffix(host, "."+entryHost)) {
		return false
	}
	if entryPath == "" {
		return true
	}

	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	p := strings.ToLower(strings.TrimPrefix(u.Path, "/"))
	entryPath = strings.TrimSuffix(entryPath, "/")
	return p == entryPath || strings.HasPrefix(p, entryPath+"/")
}

// MatchAny reports whether rawURL belongs to any of the entries.
func MatchAny(rawURL string, entries []string) bool {
	for _, e := range entries {
		if MatchDomain(rawURL, e) {
			return true
		}
	}
	return false
}

// NormalizeURL returns a comparison key for rawURL: scheme and host
// lower-cased, "www." dropped, fragment removed and trailing slashes and
// punctuation trimmed.
func NormalizeURL(rawURL string) string {
	s := strings.TrimSpace(rawURL)
	s = strings.TrimRight(s, ".,;:)]>\"'")
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return strings.TrimRight(s, "/")
	}
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	u.Fragment = ""
	u.RawFragment = ""
	out := u.String()
	return strings.TrimRight(out, "/")
}
