// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestReconstructAbstract(t *testing.T) {
	tests := []struct {
		name  string
		index map[string][]int
		want  string
	}{
		{"nil", nil, ""},
		{"ordered", map[string][]int{"Raft": {0}, "is": {1}, "simple": {2}}, "Raft is simple"},
		{"repeated word", map[string][]int{"a": {0, 2}, "b": {1}}, "a b a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reconstructAbstract(tt.index); got != tt.want {
				t.Errorf("reconstructAbstract() = %q, want %q", got, tt.want)
			}
		})
	}
}

const sampleOpenAlexJSON = `{
  "meta": {"count": 3},
  "results": [
    {"id": "https://openalex.org/W1", "title": "Raft", "doi": "https://doi.org/10.1/raft",
     "publication_year": 2014,
     "authorships": [{"author": {"display_name": "Diego Ongaro"}}],
     "abstract_inverted_index": {"Raft": [0], "elects": [1], "leaders.": [2]}},
    {"id": "https://openalex.org/W2", "title": "Paxos", "doi": "",
     "publication_year": 0, "authorships": []},
    {"id": "", "title": "No identifier", "doi": ""}
  ]
}`

func TestOpenAlexBackendSearch(t *testing.T) {
	var gotMailto, gotPerPage string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMailto = r.URL.Query().Get("mailto")
		gotPerPage = r.URL.Query().Get("per_page")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, sampleOpenAlexJSON)
	}))
	defer ts.Close()

	old := openAlexSearchBase
	openAlexSearchBase = ts.URL
	defer func() { openAlexSearchBase = old }()

	b := &OpenAlexBackend{Client: ts.Client(), Email: "me@example.com"}
	results, err := b.Search(context.Background(), "consensus", 500, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotMailto != "me@example.com" {
		t.Errorf("mailto = %q", gotMailto)
	}
	if gotPerPage != "200" {
		t.Errorf("per_page = %q, want capped 200", gotPerPage)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	r := results[0]
	if r.URL != "https://doi.org/10.1/raft" {
		t.Errorf("URL = %q", r.URL)
	}
	if r.Description != "Diego Ongaro (2014)" {
		t.Errorf("Description = %q", r.Description)
	}
	if len(r.Snippets) != 1 || r.Snippets[0] != "Raft elects leaders." {
		t.Errorf("Snippets = %v", r.Snippets)
	}
	if r.Source != "openalex" {
		t.Errorf("Source = %q", r.Source)
	}

	if results[1].URL != "https://openalex.org/W2" {
		t.Errorf("fallback URL = %q", results[1].URL)
	}
	if results[1].Snippets != nil {
		t.Errorf("Snippets = %v, want none", results[1].Snippets)
	}
}

func TestOpenAlexBackendErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "boom"},
		{"malformed json", http.StatusOK, "{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()

			old := openAlexSearchBase
			openAlexSearchBase = ts.URL
			defer func() { openAlexSearchBase = old }()

			b := &OpenAlexBackend{Client: ts.Client()}
			if _, err := b.Search(context.Background(), "x", 5, testCfg()); err == nil {
				t.Error("expected error")
			}
		})
	}
}
