// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"strings"

	"github.com/pdiddy/article-engine/internal/article"
	"github.com/pdiddy/article-engine/internal/section"
)

// excluded reports whether a first-level section is never written on its
// own: "Introduction" exactly, or anything starting with "Conclusion" or
// "Summary".
func excluded(title string) bool {
	t := strings.ToLower(strings.TrimSpace(title))
	return t == "introduction" ||
		strings.HasPrefix(t, "conclusion") ||
		strings.HasPrefix(t, "summary")
}

// BuildTasks returns one task per first-level section of art that is not
// excluded, in outline order. A section titled section.SynthesisTitle is
// left to the synthesis step. Queries are the section's outline lines
// without markers; Outline is the same subtree with heading markers. An
// outline with no eligible section yields a single task for the bare topic.
func BuildTasks(art *article.Article) ([]section.Task, error) {
	var tasks []section.Task
	for _, title := range art.FirstLevelSectionTitles() {
		if excluded(title) || title == section.SynthesisTitle {
			continue
		}
		queries, err := art.OutlineLines(title, false)
		if err != nil {
			return nil, err
		}
		outline, err := art.OutlineAsText(title, true)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, section.Task{
			Title:   title,
			Kind:    section.KindOf(title),
			Outline: outline,
			Queries: queries,
		})
	}

	if len(tasks) == 0 {
		topic := art.Topic()
		tasks = append(tasks, section.Task{
			Title:   topic,
			Kind:    section.KindOf(topic),
			Queries: []string{topic},
		})
	}
	return tasks, nil
}
