// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package infotable

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/article-engine/pkg/types"
)

// Retrieve returns up to topK evidence items relevant to the queries.
// Each query selects its topK best snippets by bm25 rank; the owning
// sources are accumulated in first-seen order across queries, so a source
// never appears twice and earlier queries win ties. When the matches fall
// short of topK the remaining slots are filled with unmatched sources in
// pool order, so a non-empty pool always yields min(topK, pool size) items.
// An empty pool yields an empty result, not an error.
func (t *Table) Retrieve(ctx context.Context, queries []string, topK int) ([]types.Evidence, error) {
	if !t.prepared.Load() {
		return nil, ErrNotPrepared
	}
	if topK <= 0 {
		return nil, fmt.Errorf("retrieve: top_k must be positive, got %d", topK)
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.db == nil {
		return nil, ErrClosed
	}

	var (
		order []int
		seen  = make(map[int]bool)
	)

	for _, q := range queries {
		match := ftsQuery(q)
		if match == "" {
			continue
		}

		positions, err := t.match(ctx, match, topK)
		if err != nil {
			return nil, &RetrievalError{Query: q, Err: err}
		}
		for _, pos := range positions {
			if seen[pos] {
				continue
			}
			seen[pos] = true
			order = append(order, pos)
		}
	}

	if len(order) > topK {
		order = order[:topK]
	}
	for pos := 0; pos < len(t.items) && len(order) < topK; pos++ {
		if !seen[pos] {
			seen[pos] = true
			order = append(order, pos)
		}
	}

	results := make([]types.Evidence, 0, len(order))
	for _, pos := range order {
		results = append(results, t.items[pos])
	}
	return results, nil
}

// match returns the positions of the sources owning the best limit snippets
// for an FTS5 match expression, best first.
func (t *Table) match(ctx context.Context, match string, limit int) ([]int, error) {
	rows, err := t.db.QueryContext(ctx,
		`SELECT position FROM snippets_fts
		 WHERE snippets_fts MATCH ?
		 ORDER BY rank, position
		 LIMIT ?`, match, limit)
	if err != nil {
		return nil, fmt.Errorf("querying retrieval index: %w", err)
	}
	defer rows.Close()

	var positions []int
	for rows.Next() {
		var pos int
		if err := rows.Scan(&pos); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if pos < 0 || pos >= len(t.items) {
			continue
		}
		positions = append(positions, pos)
	}
	return positions, rows.Err()
}

// ftsQuery turns free text into an FTS5 expression matching any of its
// words. Words are quoted so outline titles containing FTS5 operators or
// punctuation cannot produce a syntax error.
func ftsQuery(text string) string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool, len(words))
	var terms []string
	for _, w := range words {
		if seen[w] {
			continue
		}
		seen[w] = true
		terms = append(terms, `"`+w+`"`)
	}
	return strings.Join(terms, " OR ")
}
