// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"unicode"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/equity-research/pkg/types"
)

// keywordIndex is a run-scoped lexical index over chunk terms, held in an
// in-memory SQLite database.
type keywordIndex struct {
	db *sql.DB
}

var keywordSchema = []string{
	`CREATE TABLE chunks (
		seq INTEGER PRIMARY KEY,
		id TEXT NOT NULL UNIQUE,
		source_url TEXT NOT NULL,
		content TEXT NOT NULL
	)`,
	`CREATE TABLE terms (
		chunk_seq INTEGER NOT NULL REFERENCES chunks(seq),
		term TEXT NOT NULL,
		freq INTEGER NOT NULL
	)`,
	`CREATE INDEX idx_terms_term ON terms(term)`,
}

// stopTerms never enter the keyword index.
var stopTerms = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true, "this": true,
	"from": true, "are": true, "was": true, "its": true, "has": true, "have": true,
	"but": true, "not": true, "you": true, "all": true, "any": true, "can": true,
	"of": true, "in": true, "on": true, "to": true, "is": true, "it": true,
	"as": true, "at": true, "by": true, "or": true, "an": true, "be": true,
}

// terms lower-cases text and returns its index terms with frequencies.
func terms(text string) map[string]int {
	out := map[string]int{}
	for _, f := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(f)) < 2 || stopTerms[f] {
			continue
		}
		out[f]++
	}
	return out
}

func newKeywordIndex(ctx context.Context, chunks []types.IndexedChunk) (*keywordIndex, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening keyword index: %w", err)
	}
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	k := &keywordIndex{db: db}
	if err := k.load(ctx, chunks); err != nil {
		db.Close()
		return nil, err
	}
	return k, nil
}

func (k *keywordIndex) load(ctx context.Context, chunks []types.IndexedChunk) error {
	for _, stmt := range keywordSchema {
		if _, err := k.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	tx, err := k.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	chunkStmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (seq, id, source_url, content) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer chunkStmt.Close()

	termStmt, err := tx.PrepareContext(ctx, `INSERT INTO terms (chunk_seq, term, freq) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing term insert: %w", err)
	}
	defer termStmt.Close()

	for seq, c := range chunks {
		if _, err := chunkStmt.ExecContext(ctx, seq, c.ID, c.SourceURL, c.Text); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", c.ID, err)
		}
		for term, freq := range terms(c.Text) {
			if _, err := termStmt.ExecContext(ctx, seq, term, freq); err != nil {
				return fmt.Errorf("inserting terms for %s: %w", c.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing keyword index: %w", err)
	}
	return nil
}

// query ranks chunks by the summed frequency of the query's terms. Ties
// keep build order.
func (k *keywordIndex) query(ctx context.Context, text string, n int) ([]types.IndexedChunk, error) {
	qterms := terms(text)
	if len(qterms) == 0 || n <= 0 {
		return []types.IndexedChunk{}, nil
	}

	placeholders := make([]string, 0, len(qterms))
	args := make([]any, 0, len(qterms)+1)
	for t := range qterms {
		placeholders = append(placeholders, "?")
		args = append(args, t)
	}
	args = append(args, n)

	q := `SELECT c.id, c.source_url, c.content
		FROM terms t JOIN chunks c ON c.seq = t.chunk_seq
		WHERE t.term IN (` + strings.Join(placeholders, ", ") + `)
		GROUP BY c.seq
		ORDER BY SUM(t.freq) DESC, c.seq ASC
		LIMIT ?`

	rows, err := k.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying keyword index: %w", err)
	}
	defer rows.Close()

	out := []types.IndexedChunk{}
	for rows.Next() {
		var c types.IndexedChunk
		if err := rows.Scan(&c.ID, &c.SourceURL, &c.Text); err != nil {
			return nil, fmt.Errorf("scanning keyword hit: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (k *keywordIndex) close() error {
	return k.db.Close()
}
