// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index builds the run-scoped retrieval index used by synthesis.
// Documents are split into bounded chunks, embedded through an
// llm.Embedder, and held in an in-memory chromem-go collection alongside
// a SQLite keyword index. Nothing is persisted.
package index

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/philippgille/chromem-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/equity-research/internal/llm"
	"github.com/pdiddy/equity-research/pkg/types"
)

const (
	collectionName = "chunks"
	metaSourceURL  = "source_url"
)

// ErrZeroVector is returned for embeddings with no magnitude, which
// cannot be compared by cosine similarity.
var ErrZeroVector = errors.New("embedding has zero magnitude")

// Builder creates an Index from a document set.
type Builder struct {
	embedder llm.Embedder
	cfg      types.IndexConfig
	logger   *zap.Logger
}

// NewBuilder creates a Builder. A nil logger disables logging.
func NewBuilder(e llm.Embedder, cfg types.IndexConfig, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{embedder: e, cfg: cfg, logger: logger}
}

// Index is a similarity-searchable set of chunks for one research run.
type Index struct {
	col      *chromem.Collection
	keywords *keywordIndex
	logger   *zap.Logger

	closeOnce sync.Once
}

// Build chunks and embeds docs. An empty document set, or documents with
// no text, yield an empty Index. Chunks whose embedding fails are dropped;
// Build fails only when every chunk fails or ctx is cancelled.
func (b *Builder) Build(ctx context.Context, docs []types.SourceDocument) (*Index, error) {
	idx := &Index{logger: b.logger}

	chunks := b.chunk(docs)
	if len(chunks) == 0 {
		b.logger.Info("index empty", zap.String("stage", "index"))
		return idx, nil
	}

	kept, err := b.embedAll(ctx, chunks)
	if err != nil {
		return nil, err
	}

	db := chromem.NewDB()
	col, err := db.CreateCollection(collectionName, nil, b.embedFunc())
	if err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	cdocs := make([]chromem.Document, len(kept))
	for i, c := range kept {
		cdocs[i] = chromem.Document{
			ID:        c.ID,
			Metadata:  map[string]string{metaSourceURL: c.SourceURL},
			Embedding: c.Embedding,
			Content:   c.Text,
		}
	}
	// Embeddings are precomputed, so one goroutine is enough.
	if err := col.AddDocuments(ctx, cdocs, 1); err != nil {
		return nil, fmt.Errorf("adding chunks: %w", err)
	}
	idx.col = col

	kw, err := newKeywordIndex(ctx, kept)
	if err != nil {
		b.logger.Warn("keyword index unavailable", zap.String("stage", "index"), zap.Error(err))
	} else {
		idx.keywords = kw
	}

	b.logger.Info("index built",
		zap.String("stage", "index"),
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(kept)),
		zap.Int("dropped", len(chunks)-len(kept)),
	)
	return idx, nil
}

// chunk splits every document. Chunk IDs are "<url>#<n>".
func (b *Builder) chunk(docs []types.SourceDocument) []types.IndexedChunk {
	var out []types.IndexedChunk
	seen := map[string]bool{}
	for _, d := range docs {
		if seen[d.URL] {
			continue
		}
		seen[d.URL] = true
		for i, text := range Split(d.RawText, b.cfg.ChunkSize, b.cfg.ChunkOverlap) {
			out = append(out, types.IndexedChunk{
				ID:        fmt.Sprintf("%s#%d", d.URL, i),
				SourceURL: d.URL,
				Text:      text,
			})
		}
	}
	return out
}

// embedAll embeds chunks with a bounded worker pool and returns the ones
// that succeeded, in chunk order.
func (b *Builder) embedAll(ctx context.Context, chunks []types.IndexedChunk) ([]types.IndexedChunk, error) {
	vecs := make([][]float32, len(chunks))
	errs := make([]error, len(chunks))

	workers := b.cfg.EmbedWorkers
	if workers <= 0 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(min(workers, len(chunks)))
	for i, c := range chunks {
		g.Go(func() error {
			vecs[i], errs[i] = b.embed(ctx, c.Text)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dims := 0
	var kept []types.IndexedChunk
	var firstErr error
	for i, c := range chunks {
		err := errs[i]
		if err == nil && dims == 0 {
			dims = len(vecs[i])
		}
		if err == nil && len(vecs[i]) != dims {
			err = fmt.Errorf("dimension %d, want %d", len(vecs[i]), dims)
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			b.logger.Warn("dropped chunk",
				zap.String("stage", "index"),
				zap.String("chunk", c.ID),
				zap.Error(err),
			)
			continue
		}
		c.Embedding = vecs[i]
		kept = append(kept, c)
	}

	if len(kept) == 0 {
		return nil, fmt.Errorf("embedding failed for all %d chunks: %w", len(chunks), firstErr)
	}
	return kept, nil
}

// embed calls the embedder under the per-call timeout and rejects empty
// or zero vectors.
func (b *Builder) embed(ctx context.Context, text string) ([]float32, error) {
	if b.cfg.EmbedTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.EmbedTimeout)
		defer cancel()
	}
	vec, err := b.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) == 0 || magnitude(vec) == 0 {
		return nil, ErrZeroVector
	}
	return vec, nil
}

func (b *Builder) embedFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return b.embed(ctx, text)
	}
}

func magnitude(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// Len reports the number of indexed chunks.
func (x *Index) Len() int {
	if x == nil || x.col == nil {
		return 0
	}
	return x.col.Count()
}

// Query returns up to k chunks nearest to text by cosine similarity,
// most similar first with ties broken by chunk ID, so the same index and
// text always select the same chunks. An empty index, empty text or
// k <= 0 yields an empty result.
func (x *Index) Query(ctx context.Context, text string, k int) ([]types.IndexedChunk, error) {
	n := x.Len()
	if n == 0 || k <= 0 || strings.TrimSpace(text) == "" {
		return []types.IndexedChunk{}, nil
	}

	started := time.Now()
	// Every chunk is scored so ties at the k boundary are cut by ID rather
	// than by chromem's concurrent selection.
	results, err := x.col.Query(ctx, text, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}

	out := make([]types.IndexedChunk, 0, len(results))
	for _, r := range results {
		out = append(out, types.IndexedChunk{
			ID:         r.ID,
			SourceURL:  r.Metadata[metaSourceURL],
			Text:       r.Content,
			Embedding:  r.Embedding,
			Similarity: r.Similarity,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Similarity != out[j].Similarity {
			return out[i].Similarity > out[j].Similarity
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > k {
		out = out[:k]
	}

	x.logger.Debug("index query",
		zap.String("stage", "index"),
		zap.Int("k", k),
		zap.Int("count", len(out)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return out, nil
}

// KeywordQuery returns up to k chunks ranked by how often they contain the
// terms of text. Hits carry no similarity.
func (x *Index) KeywordQuery(ctx context.Context, text string, k int) ([]types.IndexedChunk, error) {
	if x == nil || x.keywords == nil {
		return []types.IndexedChunk{}, nil
	}
	return x.keywords.query(ctx, text, k)
}

// Close releases the keyword index. It is safe to call more than once.
func (x *Index) Close() error {
	if x == nil {
		return nil
	}
	var err error
	x.closeOnce.Do(func() {
		if x.keywords != nil {
			err = x.keywords.close()
		}
	})
	return err
}
