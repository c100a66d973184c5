// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package article

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"strings"

	"github.com/gingfrederik/docx"
	"github.com/yuin/goldmark"
)

// referencesMarkdown renders the registry as a numbered Markdown list.
func (a *Article) referencesMarkdown() string {
	if len(a.References) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("# References\n\n")
	for i, ev := range a.References {
		label := ev.Title
		if label == "" {
			label = ev.URL
		}
		fmt.Fprintf(&b, "%d. [%d] [%s](%s)\n", i+1, i+1, label, ev.URL)
	}
	return b.String()
}

// HTML converts the article text and its references to an HTML document.
func (a *Article) HTML() (string, error) {
	md := a.Text()
	if refs := a.referencesMarkdown(); refs != "" {
		md += "\n" + refs
	}

	var body bytes.Buffer
	if err := goldmark.Convert([]byte(md), &body); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}

	title := html.EscapeString(a.Topic())
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n</head>\n<body>\n<h1>%s</h1>\n", title, title)
	b.Write(body.Bytes())
	b.WriteString("</body>\n</html>\n")
	return b.String(), nil
}

// WriteHTML writes HTML to path.
func (a *Article) WriteHTML(path string) error {
	doc, err := a.HTML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		return fmt.Errorf("writing html: %w", err)
	}
	return nil
}

// headingSize is the docx font size for a section heading at depth.
func headingSize(depth int) int {
	size := 18 - 2*depth
	if size < 12 {
		size = 12
	}
	return size
}

// WriteDocx writes the article as a Word document: the topic, each section
// heading sized by depth followed by its paragraphs, then the references.
func (a *Article) WriteDocx(path string) error {
	f := docx.NewFile()
	f.AddParagraph().AddText(a.Topic()).Size(20)

	addBody := func(body string) {
		for _, para := range strings.Split(strings.TrimSpace(body), "\n\n") {
			if para = strings.TrimSpace(para); para != "" {
				f.AddParagraph().AddText(para)
			}
		}
	}
	addBody(a.Root.Body)

	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		f.AddParagraph().AddText(n.Title).Size(headingSize(depth))
		addBody(n.Body)
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, c := range a.Root.Children {
		visit(c, 1)
	}

	if len(a.References) > 0 {
		f.AddParagraph()
		f.AddParagraph().AddText("References").Size(headingSize(1))
		for i, ev := range a.References {
			f.AddParagraph().AddText(fmt.Sprintf("[%d] %s", i+1, ev.Title))
			f.AddParagraph().AddText(ev.URL).Color("808080")
		}
	}

	if err := f.Save(path); err != nil {
		return fmt.Errorf("writing docx: %w", err)
	}
	return nil
}
