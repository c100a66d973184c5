// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package section

import (
	"regexp"
	"strings"
)

// strategy holds the per-kind steps of section generation.
type strategy interface {
	// shape transforms the numbered evidence block before generation.
	shape(info string) string
	// instructions returns extra guidance appended to the prompt.
	instructions() string
}

type genericStrategy struct{}

func (genericStrategy) shape(info string) string { return info }

func (genericStrategy) instructions() string { return "" }

type architectureStrategy struct{}

func (architectureStrategy) shape(info string) string { return ExtractArchitecture(info) }

func (architectureStrategy) instructions() string {
	return "Describe the system's components, how they interact and the design patterns they use. " +
		"Organize the section around components rather than general prose."
}

var strategies = map[Kind]strategy{
	KindGeneric:      genericStrategy{},
	KindArchitecture: architectureStrategy{},
}

func strategyFor(k Kind) strategy {
	if s, ok := strategies[k]; ok {
		return s
	}
	return genericStrategy{}
}

// architectureTerms are the stems a sentence must contain to survive
// ExtractArchitecture.
var architectureTerms = []string{
	"architect", "component", "module", "service", "layer", "interface",
	"api", "protocol", "client", "server", "database", "storage", "cache",
	"queue", "pipeline", "pattern", "interact", "communicat", "depend",
	"subsystem", "microservice", "framework", "design",
}

var (
	markerLine    = regexp.MustCompile(`^\[\d+\]$`)
	sentenceSplit = regexp.MustCompile(`[^.!?]+[.!?]*`)
)

func isArchitectural(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, term := range architectureTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// ExtractArchitecture reduces evidence text to sentences about components
// and their interactions, one bullet per sentence. Citation marker lines
// ([1], [2], ...) are kept so the numbering survives. Text with no
// architectural sentence is returned unchanged.
func ExtractArchitecture(text string) string {
	var out []string
	found := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if markerLine.MatchString(line) {
			if len(out) > 0 {
				out = append(out, "")
			}
			out = append(out, line)
			continue
		}
		for _, s := range sentenceSplit.FindAllString(line, -1) {
			s = strings.TrimSpace(s)
			if s != "" && isArchitectural(s) {
				out = append(out, "- "+s)
				found = true
			}
		}
	}
	if !found {
		return text
	}
	return strings.Join(out, "\n")
}
