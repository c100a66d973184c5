// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func withSemanticServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	old := semanticAPIBase
	semanticAPIBase = ts.URL
	t.Cleanup(func() { semanticAPIBase = old })
	return ts
}

const sampleSemanticJSON = `{
  "total": 3, "offset": 0,
  "data": [
    {"paperId": "p1", "title": "Raft", "abstract": "Raft is a consensus algorithm. It is understandable.",
     "year": 2014, "authors": [{"authorId": "1", "name": "Diego Ongaro"}, {"authorId": "2", "name": "John Ousterhout"}],
     "externalIds": {"ArXiv": "1401.0001", "DOI": "10.1/raft"}},
    {"paperId": "p2", "title": "Paxos Made Simple", "abstract": "",
     "year": 2001, "authors": [{"authorId": "3", "name": "Leslie Lamport"}],
     "externalIds": {"DOI": "10.1/paxos"}, "tldr": {"text": "Paxos explained plainly."}},
    {"paperId": "p3", "title": "Viewstamped Replication", "abstract": "VR replicates state.",
     "authors": [], "externalIds": {}}
  ]
}`

func TestSemanticSearchResults(t *testing.T) {
	var params map[string]string
	ts := withSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
		params = map[string]string{
			"query":  r.URL.Query().Get("query"),
			"limit":  r.URL.Query().Get("limit"),
			"fields": r.URL.Query().Get("fields"),
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, sampleSemanticJSON)
	})

	b := &SemanticScholarBackend{Client: ts.Client()}
	results, err := b.Search(context.Background(), "consensus", 7, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if params["query"] != "consensus" || params["limit"] != "7" {
		t.Errorf("params = %v", params)
	}
	if !strings.Contains(params["fields"], "tldr") {
		t.Errorf("fields = %q, want tldr", params["fields"])
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}

	tests := []struct {
		url, desc, snippet string
	}{
		{"https://arxiv.org/abs/1401.0001", "Diego Ongaro et al. (2014)", "Raft is a consensus algorithm. It is understandable."},
		{"https://doi.org/10.1/paxos", "Leslie Lamport (2001)", "Paxos explained plainly."},
		{"https://www.semanticscholar.org/paper/p3", "", "VR replicates state."},
	}
	for i, tt := range tests {
		r := results[i]
		if r.URL != tt.url {
			t.Errorf("[%d] URL = %q, want %q", i, r.URL, tt.url)
		}
		if r.Description != tt.desc {
			t.Errorf("[%d] Description = %q, want %q", i, r.Description, tt.desc)
		}
		if len(r.Snippets) != 1 || r.Snippets[0] != tt.snippet {
			t.Errorf("[%d] Snippets = %v", i, r.Snippets)
		}
		if r.Source != "semantic_scholar" {
			t.Errorf("[%d] Source = %q", i, r.Source)
		}
	}
}

func TestSemanticSearchAPIKeyHeader(t *testing.T) {
	tests := []struct {
		name   string
		apiKey string
	}{
		{"with API key", "test-key-123"},
		{"without API key", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			ts := withSemanticServer(t, func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("x-api-key")
				fmt.Fprint(w, `{"total":0,"offset":0,"data":[]}`)
			})

			b := &SemanticScholarBackend{Client: ts.Client(), APIKey: tt.apiKey}
			results, err := b.Search(context.Background(), "test", 5, testCfg())
			if err != nil {
				t.Fatalf("Search: %v", err)
			}
			if len(results) != 0 {
				t.Errorf("len(results) = %d, want 0", len(results))
			}
			if got != tt.apiKey {
				t.Errorf("x-api-key header = %q, want %q", got, tt.apiKey)
			}
		})
	}
}

func TestSemanticSearchErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"forbidden", http.StatusForbidden, `{"message":"forbidden"}`},
		{"malformed json", http.StatusOK, `{not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := withSemanticServer(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			b := &SemanticScholarBackend{Client: ts.Client()}
			if _, err := b.Search(context.Background(), "test", 5, testCfg()); err == nil {
				t.Error("expected error")
			}
		})
	}

	b := &SemanticScholarBackend{}
	if _, err := b.Search(context.Background(), "", 5, testCfg()); err == nil {
		t.Error("expected empty query error")
	}
}
