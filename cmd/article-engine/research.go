// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/article-engine/internal/infotable"
	"github.com/pdiddy/article-engine/internal/search"
	"github.com/pdiddy/article-engine/internal/secrets"
	"github.com/pdiddy/article-engine/pkg/types"
)

const (
	defaultTimeout = 30 * time.Second
	defaultTopK    = 10
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Collect evidence from academic search APIs",
	Long: `Research runs each query against the enabled backends (arXiv, Semantic
Scholar, OpenAlex), merges duplicate papers, and saves the evidence pool as
JSON for generate. Queries come from --query, a query file written by the
outline command, or the topic itself. A backend that fails is reported and
skipped.`,
	RunE: runResearch,
}

func init() {
	f := researchCmd.Flags()
	f.String("topic", "", "article topic, used as the query when none is given")
	f.StringSlice("query", nil, "search query (repeatable)")
	f.String("query-file", "", "YAML query file (topic, queries)")
	f.StringSlice("backend", []string{"arxiv", "semantic_scholar"}, "backends: arxiv, semantic_scholar, openalex")
	f.Int("top-k", defaultTopK, "results kept per query")
	f.String("output", "raw_search_results.json", "evidence file to write")
	f.Bool("append", false, "add to the evidence already in --output")
	f.Duration("timeout", defaultTimeout, "HTTP request timeout")
	f.String("openalex-email", "", "contact email for the OpenAlex polite pool")
	f.Bool("table", false, "print the collected evidence as a table")

	viper.BindPFlag("search.backends", f.Lookup("backend"))
	viper.BindPFlag("search.top_k", f.Lookup("top-k"))
	viper.BindPFlag("search.timeout", f.Lookup("timeout"))
	viper.BindPFlag("search.openalex_email", f.Lookup("openalex-email"))

	rootCmd.AddCommand(researchCmd)
}

// searchConfig assembles the search settings for the named backends.
func searchConfig(backends []string) (types.SearchConfig, error) {
	cfg := types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("search.timeout"),
			UserAgent: "article-engine/" + version,
		},
		TopK:                  viper.GetInt("search.top_k"),
		OpenAlexEmail:         viper.GetString("search.openalex_email"),
		SemanticScholarAPIKey: secretDefault(secrets.SemanticScholarAPIKey, viper.GetString("search.semantic_scholar_api_key")),
		InterBackendDelay:     viper.GetDuration("search.inter_backend_delay"),
	}
	for _, b := range backends {
		switch b {
		case "arxiv":
			cfg.EnableArxiv = true
		case "semantic_scholar":
			cfg.EnableSemanticScholar = true
		case "openalex":
			cfg.EnableOpenAlex = true
		default:
			return cfg, fmt.Errorf("unknown backend %q (want arxiv, semantic_scholar, or openalex)", b)
		}
	}
	return cfg, nil
}

// researchQueries merges the query sources in flag order: --query, then
// the query file, then the topic when nothing else was given.
func researchQueries(topic string, queries []string, queryFile string) ([]string, error) {
	qf := search.QueryFile{Topic: topic, Queries: append([]string(nil), queries...)}
	if queryFile != "" {
		loaded, err := search.ReadQueryFile(queryFile)
		if err != nil {
			return nil, err
		}
		qf.Queries = append(qf.Queries, loaded.Queries...)
		if qf.Topic == "" {
			qf.Topic = loaded.Topic
		}
	}
	if len(qf.Queries) == 0 && qf.Topic != "" {
		qf.Queries = []string{qf.Topic}
	}
	qf.Dedup()
	if len(qf.Queries) == 0 {
		return nil, fmt.Errorf("provide --query, --query-file, or --topic")
	}
	return qf.Queries, nil
}

func runResearch(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	queryFlags, _ := cmd.Flags().GetStringSlice("query")
	queryFile, _ := cmd.Flags().GetString("query-file")
	output, _ := cmd.Flags().GetString("output")
	appendMode, _ := cmd.Flags().GetBool("append")
	showTable, _ := cmd.Flags().GetBool("table")

	queries, err := researchQueries(topic, queryFlags, queryFile)
	if err != nil {
		return err
	}
	cfg, err := searchConfig(viper.GetStringSlice("search.backends"))
	if err != nil {
		return err
	}
	searcher, err := search.New(cfg, nil)
	if err != nil {
		return err
	}

	table := infotable.New(types.RetrievalConfig{})
	defer table.Close()
	if appendMode {
		if _, statErr := os.Stat(output); statErr == nil {
			if err := table.Load(output); err != nil {
				return err
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	added, collectErr := table.Collect(ctx, searcher, queries, cfg.TopK, os.Stdout)
	if err := table.Save(output); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "saved %d sources (%d new) to %s\n", table.Len(), added, output)
	if showTable {
		search.FormatTable(table.Items(), os.Stdout)
	}
	return collectErr
}
