// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package article

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"
)

// parseHeading reports whether line is a Markdown heading and returns its
// level and title. "#word" without a space is body text.
func parseHeading(line string) (int, string, bool) {
	trimmed := strings.TrimSpace(line)
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level == len(trimmed) || (trimmed[level] != ' ' && trimmed[level] != '\t') {
		return 0, "", false
	}
	title := strings.TrimSpace(strings.TrimRight(trimmed[level:], "#"))
	if title == "" {
		return 0, "", false
	}
	return level, title, true
}

// shallowestHeading returns the smallest heading level in lines, or 0 when
// there is none.
func shallowestHeading(lines []string) int {
	min := 0
	for _, line := range lines {
		if level, _, ok := parseHeading(line); ok && (min == 0 || level < min) {
			min = level
		}
	}
	return min
}

// parseTree splits heading-marked text into a tree under an untitled root.
// Levels are rebased so the shallowest heading becomes a child of the root;
// a heading deeper than one below the current section attaches to the
// deepest open section. Text before the first heading is the root body.
func parseTree(text string) *Node {
	root := &Node{}
	stack := []*Node{root}
	bodies := map[*Node]*strings.Builder{}

	lines := strings.Split(text, "\n")
	shift := shallowestHeading(lines) - 1
	if shift < 0 {
		shift = 0
	}

	for _, line := range lines {
		if level, title, ok := parseHeading(line); ok {
			parentLevel := level - shift - 1
			if parentLevel > len(stack)-1 {
				parentLevel = len(stack) - 1
			}
			parent := stack[parentLevel]
			n := &Node{Title: title}
			parent.Children = append(parent.Children, n)
			stack = append(stack[:parentLevel+1], n)
			continue
		}
		cur := stack[len(stack)-1]
		b, ok := bodies[cur]
		if !ok {
			b = &strings.Builder{}
			bodies[cur] = b
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	walk(root, nil, func(n *Node, _ []string) {
		if b, ok := bodies[n]; ok {
			n.Body = strings.TrimSpace(b.String())
		}
	})
	return root
}

// sameTitle compares a heading with the topic the way outline files name
// it: case-insensitive, with underscores standing for spaces.
func sameTitle(a, b string) bool {
	norm := func(s string) string {
		return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "_", " ")))
	}
	return norm(a) == norm(b)
}

// Parse builds an article from heading-marked text: "# Section" lines are
// first-level sections, "## Sub" their subsections, and plain lines the body
// of the preceding heading. A leading heading naming the topic is dropped,
// so "# Topic" followed by "## Section" lines parses the same as an outline
// without the topic heading.
func Parse(topic, text string) *Article {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if _, title, ok := parseHeading(line); ok && sameTitle(title, topic) {
			lines = lines[i+1:]
		}
		break
	}

	tree := parseTree(strings.Join(lines, "\n"))
	a := New(topic)
	a.Root.Body = tree.Body
	a.Root.Children = tree.Children
	return a
}

// outlineEntry is the YAML form of an outline node.
type outlineEntry struct {
	Title    string          `yaml:"title"`
	Body     string          `yaml:"body,omitempty"`
	Sections []*outlineEntry `yaml:"sections,omitempty"`
	Children []*outlineEntry `yaml:"children,omitempty"`
}

// subsections accepts either key for nested entries.
func (e *outlineEntry) subsections() []*outlineEntry {
	return append(e.Sections[:len(e.Sections):len(e.Sections)], e.Children...)
}

func (e *outlineEntry) node() *Node {
	n := &Node{Title: strings.TrimSpace(e.Title), Body: e.Body}
	for _, s := range e.subsections() {
		n.Children = append(n.Children, s.node())
	}
	return n
}

// LoadOutline reads an outline file. Files ending in .yaml or .yml hold a
// {title, sections} tree, with children accepted in place of sections;
// anything else is heading-marked text. An empty topic takes the title from
// the YAML file.
func LoadOutline(path, topic string) (*Article, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading outline: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var root outlineEntry
		if err := yaml.Unmarshal(data, &root); err != nil {
			return nil, fmt.Errorf("parsing outline: %w", err)
		}
		if topic == "" {
			topic = strings.TrimSpace(root.Title)
		}
		if topic == "" {
			return nil, fmt.Errorf("parsing outline %s: no topic given and no title in file", path)
		}
		a := New(topic)
		a.Root.Body = root.Body
		for _, s := range root.subsections() {
			a.Root.Children = append(a.Root.Children, s.node())
		}
		return a, nil
	default:
		if topic == "" {
			return nil, fmt.Errorf("parsing outline %s: topic required for text outlines", path)
		}
		return Parse(topic, string(data)), nil
	}
}

// section resolves a section name for outline rendering: a first-level
// section first, then the root, then a unique match anywhere in the tree.
func (a *Article) section(name string) (*Node, error) {
	var first []*Node
	for _, c := range a.Root.Children {
		if c.Title == name {
			first = append(first, c)
		}
	}
	switch len(first) {
	case 1:
		return first[0], nil
	case 0:
	default:
		return nil, &SectionNotFoundError{Name: name, Matches: len(first)}
	}

	if name == a.Root.Title {
		return a.Root, nil
	}

	var matches []*Node
	walk(a.Root, nil, func(n *Node, _ []string) {
		if n != a.Root && n.Title == name {
			matches = append(matches, n)
		}
	})
	if len(matches) != 1 {
		return nil, &SectionNotFoundError{Name: name, Matches: len(matches)}
	}
	return matches[0], nil
}

// OutlineLines renders the subtree rooted at the named section, one title
// per line in pre-order, the section itself first. With markers each line
// is prefixed by one "#" per depth, starting at "#" for the named section.
func (a *Article) OutlineLines(name string, markers bool) ([]string, error) {
	n, err := a.section(name)
	if err != nil {
		return nil, err
	}

	var lines []string
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		if markers {
			lines = append(lines, strings.Repeat("#", depth)+" "+n.Title)
		} else {
			lines = append(lines, n.Title)
		}
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	visit(n, 1)
	return lines, nil
}

// OutlineAsText joins OutlineLines with newlines.
func (a *Article) OutlineAsText(name string, markers bool) (string, error) {
	lines, err := a.OutlineLines(name, markers)
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}
