// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/pdiddy/article-engine/internal/httputil"
	"github.com/pdiddy/article-engine/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivBackend queries the arXiv API. Responses are Atom feeds.
type ArxivBackend struct {
	Client *http.Client
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return "arxiv" }

// Search queries the arXiv API and returns results.
func (b *ArxivBackend) Search(ctx context.Context, query string, k int, cfg types.SearchConfig) ([]types.Evidence, error) {
	q := buildArxivQuery(query)
	if q == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	if k <= 0 {
		k = 20
	}

	reqURL := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=relevance&sortOrder=descending",
		arxivAPIBase, q, k)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var results []types.Evidence
	for _, item := range feed.Items {
		arxivID := extractArxivID(item.GUID)
		if arxivID == "" {
			arxivID = extractArxivID(item.Link)
		}
		if arxivID == "" {
			continue
		}

		var authors []string
		for _, a := range item.Authors {
			if a != nil && strings.TrimSpace(a.Name) != "" {
				authors = append(authors, strings.TrimSpace(a.Name))
			}
		}
		year := 0
		if item.PublishedParsed != nil {
			year = item.PublishedParsed.Year()
		}

		results = append(results, types.Evidence{
			URL:         "https://arxiv.org/abs/" + arxivID,
			Title:       strings.Join(strings.Fields(item.Title), " "),
			Description: describe(authors, year),
			Snippets:    snippets(item.Description),
			Source:      "arxiv",
		})
		if len(results) == k {
			break
		}
	}
	return results, nil
}

// buildArxivQuery turns free text into the search_query parameter: one
// all: clause per word, joined with AND.
func buildArxivQuery(query string) string {
	var parts []string
	for _, term := range strings.Fields(query) {
		parts = append(parts, "all:"+term)
	}
	return strings.Join(parts, "+AND+")
}

// extractArxivID pulls the arXiv ID from an abstract URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" becomes "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix.
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
