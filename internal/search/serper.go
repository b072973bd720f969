// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/equity-research/internal/httputil"
	"github.com/pdiddy/equity-research/pkg/types"
)

// serperAPIURL is the Serper Google search endpoint. Declared as a var so
// tests can substitute an httptest server.
var serperAPIURL = "https://google.serper.dev/search"

// SerperProvider queries Google through the Serper API.
type SerperProvider struct {
	Client    *http.Client
	APIKey    string
	Endpoint  string
	UserAgent string
	Logger    *zap.Logger
}

// NewSerperProvider builds a provider from cfg. It returns ErrNoCredential
// when cfg has no API key.
func NewSerperProvider(cfg types.SearchConfig, logger *zap.Logger) (*SerperProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoCredential
	}
	return &SerperProvider{
		Client:    &http.Client{Timeout: cfg.Timeout},
		APIKey:    cfg.APIKey,
		Endpoint:  cfg.Endpoint,
		UserAgent: cfg.UserAgent,
		Logger:    logger,
	}, nil
}

// Name returns the provider identifier.
func (p *SerperProvider) Name() string { return "serper" }

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num,omitempty"`
}

type serperResponse struct {
	Organic []struct {
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
		Position int    `json:"position"`
	} `json:"organic"`
}

// Search runs one query and returns up to n organic results.
func (p *SerperProvider) Search(ctx context.Context, query string, n int) ([]Result, error) {
	if p.APIKey == "" {
		return nil, ErrNoCredential
	}

	body, err := json.Marshal(serperRequest{Q: query, Num: n})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = serperAPIURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", p.APIKey)
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0, p.Logger)
	if err != nil {
		return nil, fmt.Errorf("Serper API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("Serper API returned HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var sr serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Serper response: %w", err)
	}

	var results []Result
	for _, o := range sr.Organic {
		if o.Link == "" {
			continue
		}
		results = append(results, Result{URL: o.Link, Title: o.Title, Snippet: o.Snippet})
		if n > 0 && len(results) == n {
			break
		}
	}
	return results, nil
}
