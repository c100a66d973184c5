// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries academic APIs and returns their results as
// evidence for the information table. Multi fans one query out to every
// configured backend and merges the answers into a single ranked list.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/pdiddy/article-engine/pkg/types"
)

// Backend searches a single academic API. Results come back most relevant
// first, at most k of them.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, k int, cfg types.SearchConfig) ([]types.Evidence, error)
}

// Multi is the retrieval collaborator over a set of backends.
type Multi struct {
	Backends []Backend
	Config   types.SearchConfig

	// Warn receives one line per failed backend. Nil means stderr.
	Warn io.Writer
}

// New builds a Multi over the backends enabled in cfg.
func New(cfg types.SearchConfig, client *http.Client) (*Multi, error) {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	var backends []Backend
	if cfg.EnableArxiv {
		backends = append(backends, &ArxivBackend{Client: client})
	}
	if cfg.EnableSemanticScholar {
		backends = append(backends, &SemanticScholarBackend{Client: client, APIKey: cfg.SemanticScholarAPIKey})
	}
	if cfg.EnableOpenAlex {
		backends = append(backends, &OpenAlexBackend{Client: client, Email: cfg.OpenAlexEmail})
	}
	if len(backends) == 0 {
		return nil, errors.New("no search backends enabled")
	}
	return &Multi{Backends: backends, Config: cfg}, nil
}

type ranked struct {
	ev    types.Evidence
	score float64
}

// Search fans the query out to all backends concurrently, merges results
// that share a URL or a normalized title, ranks them by position within
// their backend and returns the top k. A failing backend is reported to
// Warn and skipped; the call fails only when every backend fails.
func (m *Multi) Search(ctx context.Context, query string, k int) ([]types.Evidence, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query is empty")
	}
	if len(m.Backends) == 0 {
		return nil, errors.New("no search backends configured")
	}
	if k <= 0 {
		k = m.Config.TopK
	}
	if k <= 0 {
		k = 10
	}
	warn := m.Warn
	if warn == nil {
		warn = os.Stderr
	}

	type backendResult struct {
		results []types.Evidence
		err     error
	}
	out := make([]backendResult, len(m.Backends))
	var wg sync.WaitGroup

	for i, b := range m.Backends {
		if i > 0 && m.Config.InterBackendDelay > 0 {
			time.Sleep(m.Config.InterBackendDelay)
		}
		wg.Add(1)
		go func(i int, b Backend) {
			defer wg.Done()
			results, err := b.Search(ctx, query, k, m.Config)
			out[i] = backendResult{results: results, err: err}
		}(i, b)
	}
	wg.Wait()

	var all []ranked
	var errs []error
	for i, br := range out {
		name := m.Backends[i].Name()
		if br.err != nil {
			fmt.Fprintf(warn, "warning: backend %s failed: %v\n", name, br.err)
			errs = append(errs, fmt.Errorf("%s: %w", name, br.err))
			continue
		}
		for pos, ev := range br.results {
			all = append(all, ranked{ev: ev, score: positionScore(pos, len(br.results))})
		}
	}
	if len(errs) == len(m.Backends) {
		return nil, errors.Join(errs...)
	}

	deduped := deduplicate(all)
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].score > deduped[j].score
	})
	if len(deduped) > k {
		deduped = deduped[:k]
	}

	results := make([]types.Evidence, len(deduped))
	for i, r := range deduped {
		results[i] = r.ev
	}
	return results, nil
}

// positionScore maps a result's rank within its backend to (0.1, 1].
func positionScore(pos, total int) float64 {
	if total <= 1 {
		return 1.0
	}
	return 1.0 - float64(pos)/float64(total-1)*0.9
}

// deduplicate merges results that share a URL or normalized title. The
// merged entry keeps the position of its first occurrence and the higher
// score.
func deduplicate(results []ranked) []ranked {
	seen := make(map[string]int)
	var deduped []ranked

	for _, r := range results {
		urlKey := "url:" + r.ev.URL
		titleKey := "title:" + normalizeTitle(r.ev.Title)

		idx, ok := seen[urlKey]
		if !ok && titleKey != "title:" {
			idx, ok = seen[titleKey]
		}
		if ok {
			mergeInto(&deduped[idx], r)
			continue
		}

		idx = len(deduped)
		deduped = append(deduped, r)
		seen[urlKey] = idx
		if titleKey != "title:" {
			seen[titleKey] = idx
		}
	}
	return deduped
}

// mergeInto fills empty fields of dst from src, unions the snippets and
// keeps the higher score.
func mergeInto(dst *ranked, src ranked) {
	sources := dst.ev.Source
	dst.ev = dst.ev.MergeSnippets(src.ev)
	if sources != "" && src.ev.Source != "" && !strings.Contains(sources, src.ev.Source) {
		dst.ev.Source = sources + "," + src.ev.Source
	}
	if src.score > dst.score {
		dst.score = src.score
	}
}

// normalizeTitle returns a lowercased, punctuation-stripped version of the title.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// snippetWords bounds one snippet cut from an abstract.
const snippetWords = 80

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]+\s*|[^.!?]+$`)

// snippets cuts text into sentence-aligned chunks of about snippetWords
// words each. A sentence longer than the bound is its own chunk.
func snippets(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	var out []string
	var cur strings.Builder
	words := 0
	for _, s := range sentencePattern.FindAllString(text, -1) {
		n := len(strings.Fields(s))
		if words > 0 && words+n > snippetWords {
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
			words = 0
		}
		cur.WriteString(s)
		words += n
	}
	if words > 0 {
		out = append(out, strings.TrimSpace(cur.String()))
	}
	return out
}

// describe builds the one-line description of a paper: its authors and year.
func describe(authors []string, year int) string {
	var who string
	switch len(authors) {
	case 0:
	case 1:
		who = authors[0]
	default:
		who = authors[0] + " et al."
	}
	switch {
	case who != "" && year > 0:
		return fmt.Sprintf("%s (%d)", who, year)
	case year > 0:
		return fmt.Sprintf("%d", year)
	default:
		return who
	}
}

// FormatTable writes results as a human-readable table to w.
func FormatTable(results []types.Evidence, w io.Writer) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-24s  %s\n", "Rank", "Title", "Source", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for i, r := range results {
		fmt.Fprintf(w, "%-4d  %-60s  %-24s  %s\n", i+1, truncate(r.Title, 60), truncate(r.Source, 24), r.URL)
	}
	fmt.Fprintf(w, "\n%d results\n", len(results))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
