// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves source documents over HTTP. A bounded worker
// pool fetches every URL of a run concurrently under a shared rate limit;
// a URL that fails or times out is dropped and reported as a FetchError
// without stopping the others.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/pdiddy/equity-research/internal/httputil"
	"github.com/pdiddy/equity-research/pkg/types"
)

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 5 << 20

// Page is the content extracted from one URL.
type Page struct {
	Title string
	Text  string
}

// Fetcher retrieves the text content of a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (Page, error)
}

// FetchError reports a URL that could not be fetched. It is a soft
// failure: the source is dropped and the run continues.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ErrUnsupportedContent is returned for responses that are not HTML, PDF or plain text.
var ErrUnsupportedContent = errors.New("unsupported content type")

// HTTPFetcher fetches pages over HTTP and extracts their text.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string

	// MaxChars truncates extracted text; 0 keeps everything.
	MaxChars int

	Logger *zap.Logger
}

// NewHTTPFetcher creates an HTTPFetcher from cfg.
func NewHTTPFetcher(cfg types.FetchConfig, logger *zap.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		Client:    &http.Client{Timeout: cfg.Timeout},
		UserAgent: cfg.UserAgent,
		MaxChars:  cfg.MaxDocumentChars,
		Logger:    logger,
	}
}

// Fetch downloads rawURL and extracts its title and text. HTML is reduced
// to visible text, PDFs to their page text; plain text is kept as is.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	if httputil.Host(rawURL) == "" {
		return Page{}, fmt.Errorf("invalid URL %q", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("creating request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf,text/plain;q=0.9,*/*;q=0.5")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0, f.Logger)
	if err != nil {
		return Page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Page{}, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Page{}, fmt.Errorf("reading body: %w", err)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(body)
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.Split(ct, ";")[0]))
	}

	var page Page
	switch mediaType {
	case "text/html", "application/xhtml+xml":
		title, text, err := extractHTML(bytes.NewReader(body))
		if err != nil {
			return Page{}, fmt.Errorf("parsing HTML: %w", err)
		}
		page = Page{Title: title, Text: text}
	case "application/pdf":
		title, text, err := extractPDF(body)
		if err != nil {
			return Page{}, fmt.Errorf("parsing PDF: %w", err)
		}
		page = Page{Title: title, Text: text}
	case "text/plain":
		page = Page{Text: strings.TrimSpace(string(body))}
	default:
		return Page{}, fmt.Errorf("%w: %s", ErrUnsupportedContent, mediaType)
	}

	page.Text = truncate(page.Text, f.MaxChars)
	return page, nil
}

// truncate cuts s to at most n runes on a valid UTF-8 boundary.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
