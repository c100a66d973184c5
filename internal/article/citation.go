// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package article

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/article-engine/pkg/types"
)

// citationPattern matches a numeric inline citation: [3].
var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// citationRunPattern matches consecutive citations with nothing between them.
var citationRunPattern = regexp.MustCompile(`(?:\[\d+\])+`)

// groupedCitationPattern matches comma-separated citation groups: [1, 2].
var groupedCitationPattern = regexp.MustCompile(`\[(\d+(?:\s*,\s*\d+)+)\]`)

// NormalizeCitations rewrites grouped citations such as [1, 2] into the
// [1][2] form the rest of the package works with.
func NormalizeCitations(text string) string {
	return groupedCitationPattern.ReplaceAllStringFunc(text, func(m string) string {
		inner := groupedCitationPattern.FindStringSubmatch(m)[1]
		var b strings.Builder
		for _, part := range strings.Split(inner, ",") {
			b.WriteString("[" + strings.TrimSpace(part) + "]")
		}
		return b.String()
	})
}

// citationIndex returns the number inside a citation match.
func citationIndex(m string) int {
	n, err := strconv.Atoi(m[1 : len(m)-1])
	if err != nil {
		return 0
	}
	return n
}

// remapCitations rewrites each [i] to [mapping[i]] and removes citations
// absent from mapping.
func remapCitations(body string, mapping map[int]int) string {
	body = NormalizeCitations(body)
	return citationPattern.ReplaceAllStringFunc(body, func(m string) string {
		if to, ok := mapping[citationIndex(m)]; ok {
			return "[" + strconv.Itoa(to) + "]"
		}
		return ""
	})
}

// collapseCitations keeps the first occurrence of each index within a run of
// adjacent citations: [1][2][1] becomes [1][2].
func collapseCitations(body string) string {
	return citationRunPattern.ReplaceAllStringFunc(body, func(run string) string {
		seen := make(map[string]bool)
		var b strings.Builder
		for _, c := range citationPattern.FindAllString(run, -1) {
			if seen[c] {
				continue
			}
			seen[c] = true
			b.WriteString(c)
		}
		return b.String()
	})
}

// citedIndices returns the distinct citation indices in body, in order of
// first appearance.
func citedIndices(body string) []int {
	var out []int
	seen := make(map[int]bool)
	for _, m := range citationPattern.FindAllString(body, -1) {
		n := citationIndex(m)
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// PostProcess normalizes the merged article. Grouped citations are split
// first, then citations are renumbered from
// [1] in order of first appearance in a pre-order walk, citations pointing
// past the registry are dropped, adjacent repeats are collapsed, and the
// registry is rebuilt with only cited evidence. Each section's Evidence is
// set to the evidence its body cites, and bodies are trimmed. Empty sections
// stay in the tree. Running PostProcess twice changes nothing.
func (a *Article) PostProcess() {
	old := a.References
	renumber := make(map[int]int)
	var refs []types.Evidence

	walk(a.Root, nil, func(n *Node, _ []string) {
		n.Body = NormalizeCitations(n.Body)
		for _, i := range citedIndices(n.Body) {
			if i < 1 || i > len(old) {
				continue
			}
			if _, ok := renumber[i]; ok {
				continue
			}
			refs = append(refs, old[i-1])
			renumber[i] = len(refs)
		}
	})

	a.References = refs
	a.urlIndex = make(map[string]int, len(refs))
	for i, ev := range refs {
		a.urlIndex[ev.URL] = i + 1
	}

	walk(a.Root, nil, func(n *Node, _ []string) {
		body := collapseCitations(remapCitations(n.Body, renumber))
		n.Body = strings.TrimSpace(body)

		n.Evidence = nil
		for _, i := range citedIndices(n.Body) {
			n.Evidence = append(n.Evidence, refs[i-1])
		}
	})
}
