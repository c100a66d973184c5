//go:build mage

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Pipeline groups targets that run the article pipeline end to end. The
// topic and outline come from the TOPIC and OUTLINE environment variables.
type Pipeline mg.Namespace

func pipelineEnv() (topic, outline string, err error) {
	topic = os.Getenv("TOPIC")
	outline = os.Getenv("OUTLINE")
	if topic == "" && outline == "" {
		return "", "", fmt.Errorf("set TOPIC or OUTLINE")
	}
	return topic, outline, nil
}

func bin() string {
	return filepath.Join(binDir, binName)
}

// Queries writes output/queries.yaml from the outline.
func (Pipeline) Queries() error {
	mg.Deps(Build, Init)
	topic, outline, err := pipelineEnv()
	if err != nil {
		return err
	}
	return sh.RunV(bin(), "outline", "--topic", topic, "--outline", outline,
		"--queries-out", filepath.Join("output", "queries.yaml"))
}

// Research collects evidence for the queries into output/raw_search_results.json.
func (Pipeline) Research() error {
	mg.Deps(Pipeline.Queries)
	return sh.RunV(bin(), "research",
		"--query-file", filepath.Join("output", "queries.yaml"),
		"--output", filepath.Join("output", "raw_search_results.json"))
}

// Generate writes the article into output/ from the collected evidence.
func (Pipeline) Generate() error {
	mg.Deps(Pipeline.Research)
	topic, outline, err := pipelineEnv()
	if err != nil {
		return err
	}
	return sh.RunV(bin(), "generate", "--topic", topic, "--outline", outline,
		"--evidence", filepath.Join("output", "raw_search_results.json"),
		"--output-dir", "output", "--format", "text,html")
}
