// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package section

import (
	"fmt"
	"strings"

	"github.com/pdiddy/article-engine/pkg/types"
)

// SynthesisTitle is the title of the cross-cutting section appended after
// every outline section.
const SynthesisTitle = "Software Architecture Diagram"

// SynthesisQueries retrieve the evidence the cross-cutting section is
// built from.
var SynthesisQueries = []string{"architecture", "design patterns", "system components"}

// Synthesize builds the cross-cutting architecture section from evidence
// without calling a completer: one "# Component i" subsection per item
// holding its architecture-shaped text, each line citing [i].
func Synthesize(evidence []types.Evidence) string {
	var b strings.Builder
	for i, ev := range evidence {
		text := strings.TrimSpace(ExtractArchitecture(ev.Text()))
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "# Component %d\n", i+1)
		for _, line := range strings.Split(text, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				fmt.Fprintf(&b, "%s[%d]\n", line, i+1)
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
