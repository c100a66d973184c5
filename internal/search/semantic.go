// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pdiddy/article-engine/internal/httputil"
	"github.com/pdiddy/article-engine/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,externalIds,year,tldr"

// SemanticScholarBackend queries the Semantic Scholar API.
type SemanticScholarBackend struct {
	Client *http.Client
	APIKey string
}

// Name returns the backend identifier.
func (b *SemanticScholarBackend) Name() string { return "semantic_scholar" }

// Search queries the Semantic Scholar API. Papers without an abstract fall
// back to their TLDR as the only snippet.
func (b *SemanticScholarBackend) Search(ctx context.Context, query string, k int, cfg types.SearchConfig) ([]types.Evidence, error) {
	if query == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}
	if k <= 0 {
		k = 20
	}

	params := url.Values{
		"query":  {query},
		"limit":  {strconv.Itoa(k)},
		"fields": {semanticFields},
	}
	reqURL := semanticAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}
	if b.APIKey != "" {
		req.Header.Set("x-api-key", b.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, b.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var results []types.Evidence
	for _, paper := range sr.Data {
		if paper.Title == "" {
			continue
		}
		var authors []string
		for _, a := range paper.Authors {
			authors = append(authors, a.Name)
		}

		ev := types.Evidence{
			URL:         semanticURL(paper),
			Title:       paper.Title,
			Description: describe(authors, paper.Year),
			Snippets:    snippets(paper.Abstract),
			Source:      "semantic_scholar",
		}
		if len(ev.Snippets) == 0 && paper.TLDR != nil && paper.TLDR.Text != "" {
			ev.Snippets = []string{paper.TLDR.Text}
		}
		results = append(results, ev)
		if len(results) == k {
			break
		}
	}
	return results, nil
}

// semanticURL prefers the arXiv abstract page, then the DOI resolver, then
// the Semantic Scholar paper page.
func semanticURL(p semanticPaper) string {
	switch {
	case p.ExternalIDs.ArXiv != "":
		return "https://arxiv.org/abs/" + p.ExternalIDs.ArXiv
	case p.ExternalIDs.DOI != "":
		return "https://doi.org/" + p.ExternalIDs.DOI
	default:
		return "https://www.semanticscholar.org/paper/" + p.PaperID
	}
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID     string              `json:"paperId"`
	Title       string              `json:"title"`
	Abstract    string              `json:"abstract"`
	Year        int                 `json:"year"`
	Authors     []semanticAuthor    `json:"authors"`
	ExternalIDs semanticExternalIDs `json:"externalIds"`
	TLDR        *semanticTLDR       `json:"tldr"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}

type semanticTLDR struct {
	Text string `json:"text"`
}
