// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/article-engine/internal/section"
)

// systemPrompt sets the writing rules every provider receives.
const systemPrompt = `You write one section of an encyclopedic article from collected information.

Format:
1. Use "# Title" for the section title, "## Title" for subsections, "### Title" below that, and so on.
2. Cite the collected information inline with [1], [2], ..., [n], for example "The capital of the United States is Washington, D.C.[1][3]." Do not add a References or Sources section.
3. Keep the content coherent, informative and relevant to the section title.
4. Keep a neutral, encyclopedic tone.
5. Do not include the page title and do not write other sections.`

// sectionPromptTmpl is the user message for one section.
var sectionPromptTmpl = template.Must(template.New("section").Parse(`The collected information:
{{.Info}}
The topic of the page: {{.Topic}}
The section you need to write: {{.Section}}
{{- if .Outline}}

The outline of the section:
{{.Outline}}
{{- end}}
{{- if .Instructions}}

{{.Instructions}}
{{- end}}

Write the section with proper inline citations. Start your writing with the section title using "#".
`))

// renderPrompt executes the section template for p.
func renderPrompt(p section.Prompt) (string, error) {
	var buf bytes.Buffer
	if err := sectionPromptTmpl.Execute(&buf, p); err != nil {
		return "", err
	}
	return buf.String(), nil
}
