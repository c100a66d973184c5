// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package article

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/article-engine/pkg/types"
)

// Text renders the article as heading-marked text: the root body, then each
// section as "#" repeated to its depth, its title and its body.
func (a *Article) Text() string {
	var b strings.Builder
	if body := strings.TrimSpace(a.Root.Body); body != "" {
		b.WriteString(body)
		b.WriteString("\n\n")
	}

	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		b.WriteString(strings.Repeat("#", depth))
		b.WriteString(" ")
		b.WriteString(n.Title)
		b.WriteString("\n")
		if body := strings.TrimSpace(n.Body); body != "" {
			b.WriteString(body)
			b.WriteString("\n")
		}
		b.WriteString("\n")
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, c := range a.Root.Children {
		visit(c, 1)
	}
	return strings.TrimRight(b.String(), "\n") + "\n"
}

// EvidenceMap is the url_to_info.json layout: the unified citation index of
// every referenced URL, the evidence behind it, and which indices each
// section cites (keyed by its title path joined with " > ").
type EvidenceMap struct {
	URLToUnifiedIndex map[string]int            `json:"url_to_unified_index"`
	URLToInfo         map[string]types.Evidence `json:"url_to_info"`
	SectionCitations  map[string][]int          `json:"section_citations,omitempty"`
}

// sectionPath is the display key of a node below the root.
func sectionPath(path []string, title string) string {
	if len(path) <= 1 {
		return title
	}
	return strings.Join(append(path[1:len(path):len(path)], title), " > ")
}

// EvidenceMap returns the citation registry in url_to_info.json form.
func (a *Article) EvidenceMap() EvidenceMap {
	m := EvidenceMap{
		URLToUnifiedIndex: make(map[string]int, len(a.References)),
		URLToInfo:         make(map[string]types.Evidence, len(a.References)),
		SectionCitations:  make(map[string][]int),
	}
	for i, ev := range a.References {
		m.URLToUnifiedIndex[ev.URL] = i + 1
		m.URLToInfo[ev.URL] = ev
	}
	walk(a.Root, nil, func(n *Node, path []string) {
		if n == a.Root {
			return
		}
		if cited := citedIndices(n.Body); len(cited) > 0 {
			m.SectionCitations[sectionPath(path, n.Title)] = cited
		}
	})
	return m
}

// ReferenceEntry is one line of references.yaml.
type ReferenceEntry struct {
	Index    int      `yaml:"index"`
	URL      string   `yaml:"url"`
	Title    string   `yaml:"title,omitempty"`
	Source   string   `yaml:"source,omitempty"`
	Sections []string `yaml:"sections,omitempty"`
}

// ReferenceList returns the registry in citation order with the sections
// citing each entry.
func (a *Article) ReferenceList() []ReferenceEntry {
	entries := make([]ReferenceEntry, len(a.References))
	for i, ev := range a.References {
		entries[i] = ReferenceEntry{Index: i + 1, URL: ev.URL, Title: ev.Title, Source: ev.Source}
	}
	walk(a.Root, nil, func(n *Node, path []string) {
		if n == a.Root {
			return
		}
		for _, i := range citedIndices(n.Body) {
			if i >= 1 && i <= len(entries) {
				entries[i-1].Sections = append(entries[i-1].Sections, sectionPath(path, n.Title))
			}
		}
	})
	return entries
}

// WriteText writes Text to path.
func (a *Article) WriteText(path string) error {
	if err := os.WriteFile(path, []byte(a.Text()), 0o644); err != nil {
		return fmt.Errorf("writing article: %w", err)
	}
	return nil
}

// WriteEvidenceJSON writes EvidenceMap to path as indented JSON.
func (a *Article) WriteEvidenceJSON(path string) error {
	data, err := json.MarshalIndent(a.EvidenceMap(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// WriteEvidenceYAML writes ReferenceList to path.
func (a *Article) WriteEvidenceYAML(path string) error {
	data, err := yaml.Marshal(a.ReferenceList())
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
