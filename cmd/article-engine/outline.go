// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/article-engine/internal/pipeline"
	"github.com/pdiddy/article-engine/internal/search"
	"github.com/pdiddy/article-engine/internal/section"
)

var outlineCmd = &cobra.Command{
	Use:   "outline",
	Short: "Show the section tasks a generate run would dispatch",
	Long: `Outline parses an outline and prints, as YAML, one task per section that
generate writes on its own: its title, kind, and the queries its evidence is
retrieved with. With --queries-out the queries, plus those of the synthesized
architecture section, are saved as a query file for research.`,
	RunE: runOutline,
}

func init() {
	outlineCmd.Flags().String("topic", "", "article topic (defaults to the outline title)")
	outlineCmd.Flags().String("outline", "", "outline file (.md/.txt heading outline or .yaml)")
	outlineCmd.Flags().String("queries-out", "", "write the task queries to this query file")

	rootCmd.AddCommand(outlineCmd)
}

func runOutline(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	outlinePath, _ := cmd.Flags().GetString("outline")
	queriesOut, _ := cmd.Flags().GetString("queries-out")

	outline, err := loadOutline(outlinePath, topic)
	if err != nil {
		return err
	}
	if err := outline.Validate(); err != nil {
		return err
	}
	tasks, err := pipeline.BuildTasks(outline)
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(tasks); err != nil {
		return fmt.Errorf("encoding tasks: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	if queriesOut == "" {
		return nil
	}
	qf := search.QueryFile{Topic: outline.Topic()}
	for _, t := range tasks {
		qf.Queries = append(qf.Queries, t.Queries...)
	}
	qf.Queries = append(qf.Queries, section.SynthesisQueries...)
	qf.Dedup()
	if err := search.WriteQueryFile(queriesOut, qf); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %d queries to %s\n", len(qf.Queries), queriesOut)
	return nil
}
