// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/pdiddy/equity-research/pkg/types"
)

// DefaultGeminiEmbeddingModel is used when the configured embedding model
// belongs to another provider.
const DefaultGeminiEmbeddingModel = "gemini-embedding-001"

// GeminiGenerator generates text through the Google Gen AI SDK.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func newGeminiClient(apiKey, baseURL string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: API key is required")
	}
	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(context.Background(), cc)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}
	return client, nil
}

// NewGeminiGenerator creates a generator for cfg.Model.
func NewGeminiGenerator(cfg types.AIConfig) (*GeminiGenerator, error) {
	client, err := newGeminiClient(cfg.APIKey, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	return &GeminiGenerator{client: client, model: cfg.Model}, nil
}

// Complete sends prompt as a single user turn.
func (g *GeminiGenerator) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(temperature)),
		MaxOutputTokens: int32(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	return resp.Text(), nil
}

// GeminiEmbedder embeds text with a Gemini embedding model.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

// NewGeminiEmbedder creates an embedder for model.
func NewGeminiEmbedder(model, apiKey, baseURL string) (*GeminiEmbedder, error) {
	client, err := newGeminiClient(apiKey, baseURL)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = DefaultGeminiEmbeddingModel
	}
	return &GeminiEmbedder{client: client, model: model}, nil
}

// Embed returns the embedding of text.
func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embed: %w", err)
	}
	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, errors.New("gemini embed: no embedding returned")
	}
	return resp.Embeddings[0].Values, nil
}
