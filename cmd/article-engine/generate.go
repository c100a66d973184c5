// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/article-engine/internal/article"
	"github.com/pdiddy/article-engine/internal/infotable"
	"github.com/pdiddy/article-engine/internal/llm"
	"github.com/pdiddy/article-engine/internal/pipeline"
	"github.com/pdiddy/article-engine/internal/section"
	"github.com/pdiddy/article-engine/internal/secrets"
	"github.com/pdiddy/article-engine/pkg/types"
)

// Artifact file names inside the output directory.
const (
	articleFile    = "article.txt"
	evidenceFile   = "url_to_info.json"
	referencesFile = "references.yaml"
	htmlFile       = "article.html"
	docxFile       = "article.docx"
	reportFile     = "run_report.yaml"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write an article from an outline and collected evidence",
	Long: `Generate writes every first-level outline section in parallel. Each
section retrieves its evidence from the collected pool, is written by the
configured model, and is merged back into a copy of the outline. An
architecture section synthesized from the evidence is appended last, and
citations are renumbered across the whole article.

Introduction, Conclusion and Summary sections are never written on their own.
The first failing section stops the run; no partial article is written.`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.String("topic", "", "article topic (defaults to the outline title)")
	f.String("outline", "", "outline file (.md/.txt heading outline or .yaml)")
	f.String("evidence", "raw_search_results.json", "evidence file written by research")
	f.String("index-path", "", "SQLite file for the retrieval index (default in memory)")
	f.String("output-dir", "output", "directory for the generated article")
	f.Int("max-thread-num", types.DefaultMaxThreadNum, "sections written concurrently")
	f.Int("retrieve-top-k", types.DefaultRetrieveTopK, "evidence items retrieved per section")
	f.Duration("task-timeout", 0, "timeout for one section (0 for none)")
	f.Int("word-budget", types.DefaultWordBudget, "words of evidence handed to the model per section")
	f.String("provider", string(types.ProviderAnthropic), "model provider: anthropic, openai, or gemini")
	f.String("model", "", "model identifier (default per provider)")
	f.String("base-url", "", "OpenAI-compatible endpoint override")
	f.Int("max-tokens", 0, "maximum tokens per section (default 3000)")
	f.Int("max-retries", 0, "retries on rate-limited API calls (default 5)")
	f.StringSlice("format", []string{"text"}, "article formats: text, html, docx")
	f.Bool("verbose", false, "print pipeline events to stderr")

	for key, flag := range map[string]string{
		"generation.index_path":     "index-path",
		"generation.output_dir":     "output-dir",
		"generation.max_thread_num": "max-thread-num",
		"generation.retrieve_top_k": "retrieve-top-k",
		"generation.task_timeout":   "task-timeout",
		"generation.word_budget":    "word-budget",
		"generation.provider":       "provider",
		"generation.model":          "model",
		"generation.base_url":       "base-url",
		"generation.max_tokens":     "max-tokens",
		"generation.max_retries":    "max-retries",
		"generation.format":         "format",
	} {
		viper.BindPFlag(key, f.Lookup(flag))
	}

	rootCmd.AddCommand(generateCmd)
}

// apiKeyFor returns the secret key name holding the provider's API key.
func apiKeyFor(p types.Provider) string {
	switch p {
	case types.ProviderOpenAI:
		return secrets.OpenAIAPIKey
	case types.ProviderGemini:
		return secrets.GeminiAPIKey
	default:
		return secrets.AnthropicAPIKey
	}
}

// generationConfig assembles the generation settings from flags, the config
// file, and the environment.
func generationConfig() types.GenerationConfig {
	provider := types.Provider(viper.GetString("generation.provider"))
	return types.GenerationConfig{
		AIConfig: types.AIConfig{
			Provider:   provider,
			Model:      viper.GetString("generation.model"),
			APIKey:     secretDefault(apiKeyFor(provider), viper.GetString("generation.api_key")),
			BaseURL:    viper.GetString("generation.base_url"),
			MaxTokens:  viper.GetInt("generation.max_tokens"),
			MaxRetries: viper.GetInt("generation.max_retries"),
		},
		MaxThreadNum: viper.GetInt("generation.max_thread_num"),
		RetrieveTopK: viper.GetInt("generation.retrieve_top_k"),
		WordBudget:   viper.GetInt("generation.word_budget"),
		TaskTimeout:  viper.GetDuration("generation.task_timeout"),
		OutputDir:    viper.GetString("generation.output_dir"),
	}.WithDefaults()
}

func loadOutline(path, topic string) (*article.Article, error) {
	if path == "" {
		if topic == "" {
			return nil, fmt.Errorf("provide --topic or --outline")
		}
		return article.New(topic), nil
	}
	return article.LoadOutline(path, topic)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	outlinePath, _ := cmd.Flags().GetString("outline")
	evidencePath, _ := cmd.Flags().GetString("evidence")
	verbose, _ := cmd.Flags().GetBool("verbose")
	formats := viper.GetStringSlice("generation.format")
	if err := checkFormats(formats); err != nil {
		return err
	}
	cfg := generationConfig()

	outline, err := loadOutline(outlinePath, topic)
	if err != nil {
		return err
	}
	if topic == "" {
		topic = outline.Topic()
	}

	table := infotable.New(types.RetrievalConfig{IndexPath: viper.GetString("generation.index_path")})
	defer table.Close()
	if evidencePath != "" {
		if err := table.Load(evidencePath); err != nil {
			return err
		}
	}
	fmt.Fprintf(os.Stdout, "loaded %d sources from %s\n", table.Len(), evidencePath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	completer, err := llm.New(ctx, cfg.AIConfig)
	if err != nil {
		return err
	}
	if c, ok := completer.(io.Closer); ok {
		defer c.Close()
	}

	opts := []pipeline.Option{pipeline.WithProgress(os.Stdout)}
	if verbose {
		opts = append(opts, pipeline.WithObserver(pipeline.ObserverFunc(func(e pipeline.Event) {
			fmt.Fprintln(os.Stderr, e.String())
		})))
	}
	gen := section.NewGenerator(completer, section.WithWordBudget(cfg.WordBudget))
	runner := pipeline.NewRunner(table, gen, cfg, opts...)

	art, report, err := runner.Run(ctx, topic, outline)
	if err != nil {
		return err
	}
	return writeArtifacts(cfg.OutputDir, art, report, formats)
}

// checkFormats rejects unknown article formats before any section is written.
func checkFormats(formats []string) error {
	for _, format := range formats {
		switch format {
		case "text", "txt", "html", "docx":
		default:
			return fmt.Errorf("unknown format %q (want text, html, or docx)", format)
		}
	}
	return nil
}

type artifact struct {
	name  string
	write func(path string) error
}

// writeArtifacts saves the article, its evidence map, and the run report
// under dir. The text article and evidence files are always written.
func writeArtifacts(dir string, art *article.Article, report *pipeline.Report, formats []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	artifacts := []artifact{
		{articleFile, art.WriteText},
		{evidenceFile, art.WriteEvidenceJSON},
		{referencesFile, art.WriteEvidenceYAML},
		{reportFile, report.Write},
	}
	for _, format := range formats {
		switch format {
		case "html":
			artifacts = append(artifacts, artifact{htmlFile, art.WriteHTML})
		case "docx":
			artifacts = append(artifacts, artifact{docxFile, art.WriteDocx})
		}
	}

	for _, a := range artifacts {
		path := filepath.Join(dir, a.name)
		if err := a.write(path); err != nil {
			return fmt.Errorf("writing %s: %w", a.name, err)
		}
		fmt.Fprintf(os.Stdout, "wrote %s\n", path)
	}
	return nil
}
