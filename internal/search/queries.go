// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

// QueryFile is the on-disk list of queries for one evidence collection
// run. The outline command writes one from an article outline and the
// research command reads it back.
type QueryFile struct {
	Topic   string   `yaml:"topic"`
	Queries []string `yaml:"queries"`
}

// Dedup drops blank and repeated queries, keeping first occurrences.
func (qf *QueryFile) Dedup() {
	seen := make(map[string]bool, len(qf.Queries))
	kept := qf.Queries[:0]
	for _, q := range qf.Queries {
		q = strings.TrimSpace(q)
		key := strings.ToLower(q)
		if q == "" || seen[key] {
			continue
		}
		seen[key] = true
		kept = append(kept, q)
	}
	qf.Queries = kept
}

// WriteQueryFile saves qf as YAML.
func WriteQueryFile(path string, qf QueryFile) error {
	data, err := yaml.Marshal(&qf)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadQueryFile loads a query file from disk.
func ReadQueryFile(path string) (*QueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading query file: %w", err)
	}
	var qf QueryFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("parsing query file: %w", err)
	}
	qf.Dedup()
	return &qf, nil
}
