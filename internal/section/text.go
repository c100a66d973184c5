// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package section

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/pdiddy/article-engine/internal/article"
	"github.com/pdiddy/article-engine/pkg/types"
)

// FormatEvidence renders evidence as a numbered reference block: "[i]" on
// its own line followed by the item's snippets, items separated by a blank
// line, in supplied order.
func FormatEvidence(evidence []types.Evidence) string {
	var b strings.Builder
	for i, ev := range evidence {
		fmt.Fprintf(&b, "[%d]\n%s\n\n", i+1, ev.Text())
	}
	return b.String()
}

// LimitWords truncates text after max words. The result is a prefix of
// text: line breaks before the cutoff are kept and only trailing content is
// dropped. A non-positive max uses types.DefaultWordBudget.
func LimitWords(text string, max int) string {
	if max <= 0 {
		max = types.DefaultWordBudget
	}

	count := 0
	inWord := false
	for i, r := range text {
		if unicode.IsSpace(r) {
			if inWord && count == max {
				return text[:i]
			}
			inWord = false
			continue
		}
		if !inWord {
			inWord = true
			count++
		}
	}
	return text
}

var (
	// sentenceEnd matches terminal punctuation with any citations after it.
	sentenceEnd = regexp.MustCompile(`[.!?](?:\s*\[\d+\])*`)

	// droppedHeadings are subsection titles generation must not emit,
	// matched against the whole title.
	droppedHeadings = map[string]bool{
		"summary":     true,
		"conclusion":  true,
		"conclusions": true,
		"references":  true,
		"sources":     true,
	}

	// droppedParagraphs are paragraph openers of closing summaries.
	droppedParagraphs = []string{"In summary", "In conclusion", "Overall"}
)

// headingOf reports a "#"-marked heading line.
func headingOf(line string) (int, string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level == len(line) || (line[level] != ' ' && line[level] != '\t') {
		return 0, "", false
	}
	title := strings.TrimSpace(strings.TrimRight(line[level:], "#"))
	if title == "" {
		return 0, "", false
	}
	return level, title, true
}

func sameTitle(a, b string) bool {
	norm := func(s string) string {
		return strings.ToLower(strings.TrimSpace(strings.ReplaceAll(s, "_", " ")))
	}
	return norm(a) == norm(b)
}

func hasPrefixFold(s string, prefixes []string) bool {
	lower := strings.ToLower(s)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// droppedHeading reports a heading whose whole title, ignoring case and a
// trailing colon, is one of droppedHeadings.
func droppedHeading(title string) bool {
	t := strings.ToLower(strings.TrimSpace(strings.TrimRight(title, ":")))
	return droppedHeadings[t]
}

// trimUnfinished cuts a paragraph after its last complete sentence. A
// paragraph with no terminal punctuation is kept whole.
func trimUnfinished(p string) string {
	locs := sentenceEnd.FindAllStringIndex(p, -1)
	if len(locs) == 0 {
		return p
	}
	return strings.TrimSpace(p[:locs[len(locs)-1][1]])
}

type cleanLine struct {
	level int
	text  string
}

// CleanUp normalizes generated section text. It drops a leading heading
// naming the topic or the section, any heading naming the topic, summary,
// conclusion, references and sources subsections, and closing-summary
// paragraphs. It trims each paragraph's unfinished trailing sentence and
// shifts headings so the shallowest is "#". Paragraphs are joined by blank
// lines.
func CleanUp(text, topic, title string) string {
	text = article.NormalizeCitations(text)

	var lines []cleanLine
	skipLevel := 0
	first := true
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		level, heading, isHeading := headingOf(line)
		if isHeading {
			if skipLevel > 0 {
				if level > skipLevel {
					continue
				}
				skipLevel = 0
			}
			if sameTitle(heading, topic) {
				continue
			}
			leading := first
			first = false
			if leading && sameTitle(heading, title) {
				continue
			}
			if droppedHeading(heading) {
				skipLevel = level
				continue
			}
			lines = append(lines, cleanLine{level: level, text: heading})
			continue
		}

		first = false
		if skipLevel > 0 || hasPrefixFold(line, droppedParagraphs) {
			continue
		}
		if p := trimUnfinished(line); p != "" {
			lines = append(lines, cleanLine{text: p})
		}
	}

	minLevel := 0
	for _, l := range lines {
		if l.level > 0 && (minLevel == 0 || l.level < minLevel) {
			minLevel = l.level
		}
	}

	out := make([]string, len(lines))
	for i, l := range lines {
		if l.level == 0 {
			out[i] = l.text
			continue
		}
		out[i] = strings.Repeat("#", l.level-minLevel+1) + " " + l.text
	}
	return strings.Join(out, "\n\n")
}
