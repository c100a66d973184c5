// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package article

import (
	"fmt"
	"strings"

	"github.com/pdiddy/article-engine/pkg/types"
)

// index maps (parent path, title) to its node, and bare titles to every node
// carrying them. It is built once per merge and kept current by the updates
// that create nodes.
type index struct {
	byPath map[string]*Node
	byName map[string][]*Node
	paths  map[*Node][]string
}

func pathKey(path []string, title string) string {
	return strings.Join(append(path[:len(path):len(path)], title), "\x1f")
}

func buildIndex(root *Node) (*index, error) {
	ix := &index{
		byPath: make(map[string]*Node),
		byName: make(map[string][]*Node),
		paths:  make(map[*Node][]string),
	}
	var err error
	walk(root, nil, func(n *Node, path []string) {
		if err != nil {
			return
		}
		if n != root && strings.TrimSpace(n.Title) == "" {
			err = &DuplicateSectionError{Parent: path}
			return
		}
		key := pathKey(path, n.Title)
		if _, dup := ix.byPath[key]; dup {
			err = &DuplicateSectionError{Parent: path, Title: n.Title}
			return
		}
		ix.add(path, n)
	})
	if err != nil {
		return nil, err
	}
	return ix, nil
}

func (ix *index) add(parentPath []string, n *Node) {
	ix.byPath[pathKey(parentPath, n.Title)] = n
	ix.paths[n] = parentPath
	if len(parentPath) > 0 {
		ix.byName[n.Title] = append(ix.byName[n.Title], n)
	}
}

// childPath returns the path under which n's children are addressed.
func (ix *index) childPath(n *Node) []string {
	p := ix.paths[n]
	return append(p[:len(p):len(p)], n.Title)
}

func (ix *index) child(parent *Node, title string) *Node {
	return ix.byPath[pathKey(ix.childPath(parent), title)]
}

func (ix *index) appendChild(parent *Node, title string) *Node {
	n := &Node{Title: title}
	parent.Children = append(parent.Children, n)
	ix.add(ix.childPath(parent), n)
	return n
}

func (a *Article) ensureIndex() (*index, error) {
	if a.idx != nil {
		return a.idx, nil
	}
	ix, err := buildIndex(a.Root)
	if err != nil {
		return nil, err
	}
	if a.urlIndex == nil {
		a.urlIndex = make(map[string]int)
	}
	a.idx = ix
	return ix, nil
}

// resolve finds the node a section name refers to. The root title always
// resolves to the root; any other name must match exactly one node.
func (a *Article) resolve(ix *index, name string) (*Node, error) {
	if name == a.Root.Title {
		return a.Root, nil
	}
	matches := ix.byName[name]
	if len(matches) != 1 {
		return nil, &SectionNotFoundError{Name: name, Matches: len(matches)}
	}
	return matches[0], nil
}

// UpdateSection writes body and evidence into the section title under the
// section named parent, creating it if absent. Body and evidence replace the
// previous values wholesale.
//
// Citations [i] in body index into evidence (1-based); they are rewritten to
// the article-wide numbering, and citations with no evidence are dropped.
// Heading lines in body ("#" for a direct subsection, "##" below that)
// create or replace nested subsections; existing subsections the body does
// not mention are kept.
func (a *Article) UpdateSection(parent, title, body string, evidence []types.Evidence) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("updating section under %q: empty title", parent)
	}

	ix, err := a.ensureIndex()
	if err != nil {
		return err
	}
	p, err := a.resolve(ix, parent)
	if err != nil {
		return err
	}

	mapping := a.mergeReferences(evidence)
	frag := parseTree(remapCitations(body, mapping))

	n := ix.child(p, title)
	if n == nil {
		n = ix.appendChild(p, title)
	}
	n.Body = frag.Body
	n.Evidence = make([]types.Evidence, len(evidence))
	copy(n.Evidence, evidence)

	a.applyChildren(ix, n, frag.Children)
	return nil
}

func (a *Article) applyChildren(ix *index, n *Node, frags []*Node) {
	touched := make(map[*Node]bool, len(frags))
	for _, f := range frags {
		c := ix.child(n, f.Title)
		if c == nil {
			c = ix.appendChild(n, f.Title)
		}
		if touched[c] && f.Body != "" {
			c.Body = strings.TrimSpace(c.Body + "\n\n" + f.Body)
		} else if !touched[c] {
			c.Body = f.Body
		}
		touched[c] = true
		a.applyChildren(ix, c, f.Children)
	}
}

// mergeReferences registers evidence in the article-wide registry and
// returns the mapping from local citation index to unified index. Evidence
// already registered under the same URL keeps its index and gains any new
// snippets.
func (a *Article) mergeReferences(evidence []types.Evidence) map[int]int {
	if a.urlIndex == nil {
		a.urlIndex = make(map[string]int)
	}
	mapping := make(map[int]int, len(evidence))
	for i, ev := range evidence {
		if ev.URL == "" {
			continue
		}
		if idx, ok := a.urlIndex[ev.URL]; ok {
			a.References[idx-1] = a.References[idx-1].MergeSnippets(ev)
			mapping[i+1] = idx
			continue
		}
		a.References = append(a.References, ev)
		a.urlIndex[ev.URL] = len(a.References)
		mapping[i+1] = len(a.References)
	}
	return mapping
}
