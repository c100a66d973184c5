// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package article holds the hierarchical section tree an article is written
// into: outline rendering for retrieval and prompting, name-addressed section
// updates with citation remapping, and the final normalization pass.
//
// An Article is never updated concurrently. The generation pipeline writes
// into a DeepCopy of the outline, sequentially, after every section task has
// settled.
package article

import (
	"fmt"
	"strings"

	"github.com/pdiddy/article-engine/pkg/types"
)

// Node is one section: a title, its prose, the evidence it cites and its
// subsections. A node is identified by its parent path and title.
type Node struct {
	Title    string           `json:"title" yaml:"title"`
	Body     string           `json:"body,omitempty" yaml:"body,omitempty"`
	Evidence []types.Evidence `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	Children []*Node          `json:"children,omitempty" yaml:"children,omitempty"`
}

// Child returns the direct child with the given title, or nil.
func (n *Node) Child(title string) *Node {
	for _, c := range n.Children {
		if c.Title == title {
			return c
		}
	}
	return nil
}

func (n *Node) clone() *Node {
	c := &Node{
		Title: n.Title,
		Body:  n.Body,
	}
	if n.Evidence != nil {
		c.Evidence = make([]types.Evidence, len(n.Evidence))
		copy(c.Evidence, n.Evidence)
	}
	if n.Children != nil {
		c.Children = make([]*Node, len(n.Children))
		for i, ch := range n.Children {
			c.Children[i] = ch.clone()
		}
	}
	return c
}

// walk visits n and its descendants in pre-order. path holds the titles from
// the root to the visited node's parent.
func walk(n *Node, path []string, fn func(n *Node, path []string)) {
	fn(n, path)
	childPath := append(path[:len(path):len(path)], n.Title)
	for _, c := range n.Children {
		walk(c, childPath, fn)
	}
}

// Article is the root section, titled with the topic, plus the article-wide
// citation registry. References[i] is cited in bodies as [i+1].
type Article struct {
	Root       *Node
	References []types.Evidence

	urlIndex map[string]int
	idx      *index
}

// New returns an article with an empty outline.
func New(topic string) *Article {
	return &Article{
		Root:     &Node{Title: topic},
		urlIndex: make(map[string]int),
	}
}

// Topic returns the root title.
func (a *Article) Topic() string {
	return a.Root.Title
}

// FirstLevelSectionTitles returns the titles of the root's children in tree order.
func (a *Article) FirstLevelSectionTitles() []string {
	titles := make([]string, 0, len(a.Root.Children))
	for _, c := range a.Root.Children {
		titles = append(titles, c.Title)
	}
	return titles
}

// Find returns the node reached by following titles from the root, or nil.
func (a *Article) Find(titles ...string) *Node {
	n := a.Root
	for _, t := range titles {
		if n = n.Child(t); n == nil {
			return nil
		}
	}
	return n
}

// MoveToEnd moves the first-level section titled title after its siblings.
// It reports whether the section exists.
func (a *Article) MoveToEnd(title string) bool {
	for i, c := range a.Root.Children {
		if c.Title != title {
			continue
		}
		a.Root.Children = append(a.Root.Children[:i], a.Root.Children[i+1:]...)
		a.Root.Children = append(a.Root.Children, c)
		return true
	}
	return false
}

// Validate reports the first empty title or duplicate sibling title in the tree.
func (a *Article) Validate() error {
	_, err := buildIndex(a.Root)
	return err
}

// DeepCopy returns an independent article sharing no mutable state with a.
// Evidence values are copied; their snippet slices are immutable and shared.
func (a *Article) DeepCopy() *Article {
	c := &Article{
		Root:     a.Root.clone(),
		urlIndex: make(map[string]int, len(a.urlIndex)),
	}
	if a.References != nil {
		c.References = make([]types.Evidence, len(a.References))
		copy(c.References, a.References)
	}
	for k, v := range a.urlIndex {
		c.urlIndex[k] = v
	}
	return c
}

// SectionNotFoundError reports a section name that resolves to no node, or
// to more than one.
type SectionNotFoundError struct {
	Name    string
	Matches int
}

func (e *SectionNotFoundError) Error() string {
	if e.Matches > 1 {
		return fmt.Sprintf("section %q is ambiguous: %d sections share the title", e.Name, e.Matches)
	}
	return fmt.Sprintf("section %q not found", e.Name)
}

// DuplicateSectionError reports two siblings with the same title, or an
// empty title. Sections are addressed by name, so either makes an update
// target undecidable.
type DuplicateSectionError struct {
	Parent []string
	Title  string
}

func (e *DuplicateSectionError) Error() string {
	parent := strings.Join(e.Parent, " > ")
	if e.Title == "" {
		return fmt.Sprintf("empty section title under %q", parent)
	}
	return fmt.Sprintf("duplicate section %q under %q", e.Title, parent)
}
