// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the article-engine pipeline:
// retrieved evidence and the configuration of each stage.
package types

import "strings"

// Evidence is one retrieved reference: a source identifier plus the text
// fragments collected from it. Evidence is immutable once it enters an
// information table; copies share the Snippets backing array and must not
// modify it.
type Evidence struct {
	// URL identifies the source. Two items with the same URL are the same source.
	URL string `json:"url" yaml:"url"`

	// Title is the source title as reported by the search backend.
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Description is a short summary of the source, if the backend has one.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Snippets are the content fragments retrieved from the source, in
	// retrieval order.
	Snippets []string `json:"snippets" yaml:"snippets"`

	// Source names the backend that produced the item (e.g. "arxiv").
	Source string `json:"source,omitempty" yaml:"source,omitempty"`
}

// Text returns the snippets joined by newlines.
func (e Evidence) Text() string {
	return strings.Join(e.Snippets, "\n")
}

// MergeSnippets returns e with the snippets of other appended, skipping
// snippets e already holds. Empty fields of e are filled from other. The
// receiver's snippet slice is never modified in place.
func (e Evidence) MergeSnippets(other Evidence) Evidence {
	seen := make(map[string]bool, len(e.Snippets))
	merged := make([]string, 0, len(e.Snippets)+len(other.Snippets))
	for _, s := range e.Snippets {
		seen[s] = true
		merged = append(merged, s)
	}
	for _, s := range other.Snippets {
		if !seen[s] {
			seen[s] = true
			merged = append(merged, s)
		}
	}
	e.Snippets = merged
	if e.Title == "" {
		e.Title = other.Title
	}
	if e.Description == "" {
		e.Description = other.Description
	}
	if e.Source == "" {
		e.Source = other.Source
	}
	return e
}
