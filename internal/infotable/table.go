// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package infotable holds the evidence collected for one article and builds
// the full-text index sections retrieve from.
//
// A Table has two phases. While collecting, Add and Collect grow the evidence
// pool. Prepare then builds an SQLite FTS5 index over every snippet; from that
// point the table is read-only and Retrieve is safe for any number of
// concurrent callers. Preparation is explicit: Retrieve on an unprepared table
// fails with ErrNotPrepared rather than building the index implicitly.
package infotable

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/article-engine/pkg/types"
)

var (
	// ErrNotPrepared is returned by Retrieve before Prepare has completed.
	ErrNotPrepared = errors.New("information table not prepared for retrieval")

	// ErrPrepared is returned when the table is mutated or prepared a second time.
	ErrPrepared = errors.New("information table already prepared")
	// ErrClosed is returned by Retrieve after Close.
	ErrClosed = errors.New("information table closed")
)

// RetrievalError reports a failed search or index lookup for one query.
type RetrievalError struct {
	Query string
	Err   error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieving %q: %v", e.Query, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// Searcher is the external retrieval collaborator. Implementations return
// up to k evidence items for the query, most relevant first.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]types.Evidence, error)
}

// Table owns the evidence pool of one article and its retrieval index.
type Table struct {
	cfg types.RetrievalConfig

	mu    sync.RWMutex
	items []types.Evidence
	byURL map[string]int

	prepared atomic.Bool
	db       *sql.DB
}

// New returns an empty table in the collecting phase.
func New(cfg types.RetrievalConfig) *Table {
	return &Table{
		cfg:   cfg,
		byURL: make(map[string]int),
	}
}

// Add appends evidence to the pool. Items without a URL are ignored; items
// whose URL is already present are merged into the existing entry, which
// keeps its position. Add fails with ErrPrepared once the index is built.
func (t *Table) Add(items ...types.Evidence) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.prepared.Load() {
		return ErrPrepared
	}
	for _, it := range items {
		if it.URL == "" {
			continue
		}
		if idx, ok := t.byURL[it.URL]; ok {
			t.items[idx] = t.items[idx].MergeSnippets(it)
			continue
		}
		t.byURL[it.URL] = len(t.items)
		t.items = append(t.items, it.MergeSnippets(types.Evidence{}))
	}
	return nil
}

// Collect runs each query against searcher and adds the results to the
// pool. Progress lines are written to w. The first searcher failure stops
// collection and is returned as a *RetrievalError.
func (t *Table) Collect(ctx context.Context, searcher Searcher, queries []string, k int, w io.Writer) (int, error) {
	added := 0
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}

		select {
		case <-ctx.Done():
			return added, ctx.Err()
		default:
		}

		results, err := searcher.Search(ctx, q, k)
		if err != nil {
			return added, &RetrievalError{Query: q, Err: err}
		}
		before := t.Len()
		if err := t.Add(results...); err != nil {
			return added, err
		}
		n := t.Len() - before
		added += n
		fmt.Fprintf(w, "searched %q: %d results, %d new sources\n", q, len(results), n)
	}
	return added, nil
}

// Len returns the number of distinct sources in the pool.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}

// Items returns a copy of the pool in insertion order.
func (t *Table) Items() []types.Evidence {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]types.Evidence, len(t.items))
	copy(out, t.items)
	return out
}

// Prepared reports whether Prepare has completed.
func (t *Table) Prepared() bool {
	return t.prepared.Load()
}

// Prepare builds the retrieval index over the pool. It must run exactly
// once and must return before concurrent retrieval begins. On failure the
// table stays in the collecting phase.
func (t *Table) Prepare(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.prepared.Load() {
		return ErrPrepared
	}

	db, err := t.open()
	if err != nil {
		return err
	}
	if err := buildIndex(ctx, db, t.items); err != nil {
		db.Close()
		return fmt.Errorf("building retrieval index: %w", err)
	}

	t.db = db
	t.prepared.Store(true)
	return nil
}

// Close releases the index database. It waits for retrievals in flight.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.db == nil {
		return nil
	}
	err := t.db.Close()
	t.db = nil
	return err
}

func (t *Table) open() (*sql.DB, error) {
	if t.cfg.IndexPath == "" {
		// Each in-memory index gets its own name so tables never share state.
		dsn := fmt.Sprintf("file:infotable-%s?mode=memory&cache=shared", uuid.NewString())
		db, err := sql.Open("sqlite3", dsn)
		if err != nil {
			return nil, fmt.Errorf("opening in-memory index: %w", err)
		}
		// The database lives as long as one connection stays open.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return db, nil
	}

	if err := os.MkdirAll(filepath.Dir(t.cfg.IndexPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}
	db, err := sql.Open("sqlite3", t.cfg.IndexPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening index %s: %w", t.cfg.IndexPath, err)
	}
	return db, nil
}

func buildIndex(ctx context.Context, db *sql.DB, items []types.Evidence) error {
	statements := []string{
		`DROP TABLE IF EXISTS snippets_fts`,
		`DROP TABLE IF EXISTS evidence`,
		`CREATE TABLE evidence (
			position INTEGER PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			title TEXT
		)`,
		`CREATE VIRTUAL TABLE snippets_fts USING fts5(content, position UNINDEXED)`,
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	evStmt, err := tx.PrepareContext(ctx, `INSERT INTO evidence (position, url, title) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing evidence insert: %w", err)
	}
	defer evStmt.Close()

	snipStmt, err := tx.PrepareContext(ctx, `INSERT INTO snippets_fts (content, position) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing snippet insert: %w", err)
	}
	defer snipStmt.Close()

	for pos, it := range items {
		if _, err := evStmt.ExecContext(ctx, pos, it.URL, it.Title); err != nil {
			return fmt.Errorf("inserting evidence %s: %w", it.URL, err)
		}
		rows := it.Snippets
		if heading := strings.TrimSpace(it.Title + " " + it.Description); heading != "" {
			rows = append([]string{heading}, rows...)
		}
		for _, content := range rows {
			if strings.TrimSpace(content) == "" {
				continue
			}
			if _, err := snipStmt.ExecContext(ctx, content, pos); err != nil {
				return fmt.Errorf("indexing snippet of %s: %w", it.URL, err)
			}
		}
	}

	return tx.Commit()
}
