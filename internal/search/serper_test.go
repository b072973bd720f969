// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerperSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "key-123", r.Header.Get("X-API-KEY"))

		var body serperRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Apple earnings report", body.Q)
		assert.Equal(t, 2, body.Num)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"organic":[
			{"title":"Apple Q4","link":"https://www.reuters.com/apple","snippet":"Revenue rose","position":1},
			{"title":"No link","position":2},
			{"title":"CNBC","link":"https://www.cnbc.com/apple","position":3},
			{"title":"Third","link":"https://example.com/3","position":4}
		]}`))
	}))
	defer ts.Close()

	p := &SerperProvider{Client: ts.Client(), APIKey: "key-123", Endpoint: ts.URL}
	results, err := p.Search(context.Background(), "Apple earnings report", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, Result{URL: "https://www.reuters.com/apple", Title: "Apple Q4", Snippet: "Revenue rose"}, results[0])
	assert.Equal(t, "https://www.cnbc.com/apple", results[1].URL)
}

func TestSerperSearchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Unauthorized."}`))
	}))
	defer ts.Close()

	p := &SerperProvider{Client: ts.Client(), APIKey: "bad", Endpoint: ts.URL}
	_, err := p.Search(context.Background(), "q", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 403")
}

func TestNewSerperProviderRequiresKey(t *testing.T) {
	_, err := NewSerperProvider(testCfg(), nil)
	assert.ErrorIs(t, err, ErrNoCredential)

	cfg := testCfg()
	cfg.APIKey = "k"
	p, err := NewSerperProvider(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "serper", p.Name())
	assert.Equal(t, cfg.Endpoint, p.Endpoint)
}
