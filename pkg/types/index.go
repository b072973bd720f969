// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// IndexedChunk is a bounded span of a SourceDocument together with its
// embedding. Chunks are derived per run and never stored.
type IndexedChunk struct {
	// ID is unique within an index ("<url>#<n>").
	ID string `json:"id" yaml:"id"`

	// SourceURL references the document the span was cut from.
	SourceURL string `json:"source_url" yaml:"source_url"`

	// Text is the span itself.
	Text string `json:"text" yaml:"text"`

	// Embedding is the vector produced by the embedder. All chunks in an
	// index share its length.
	Embedding []float32 `json:"-" yaml:"-"`

	// Similarity is the cosine similarity to the query that returned the
	// chunk. Zero for chunks returned by keyword lookup.
	Similarity float32 `json:"similarity" yaml:"similarity"`
}
