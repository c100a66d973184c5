// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package infotable

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/pdiddy/article-engine/pkg/types"
)

// urlToInfoFile is the evidence-map layout written next to generated
// articles (url_to_info.json).
type urlToInfoFile struct {
	URLToUnifiedIndex map[string]int            `json:"url_to_unified_index"`
	URLToInfo         map[string]types.Evidence `json:"url_to_info"`
}

// Load reads an evidence pool from path into the table. Two layouts are
// accepted: a JSON array of evidence objects, and an object with a
// url_to_info map (ordered by url_to_unified_index when present, else by URL).
func (t *Table) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading evidence file: %w", err)
	}
	items, err := decodeEvidence(data)
	if err != nil {
		return fmt.Errorf("parsing evidence file %s: %w", path, err)
	}
	return t.Add(items...)
}

// Save writes the pool to path as a JSON array.
func (t *Table) Save(path string) error {
	data, err := json.MarshalIndent(t.Items(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling evidence: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func decodeEvidence(data []byte) ([]types.Evidence, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var items []types.Evidence
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var f urlToInfoFile
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(f.URLToInfo))
	for u := range f.URLToInfo {
		urls = append(urls, u)
	}
	sort.Slice(urls, func(i, j int) bool {
		ii, iok := f.URLToUnifiedIndex[urls[i]]
		ji, jok := f.URLToUnifiedIndex[urls[j]]
		if iok && jok && ii != ji {
			return ii < ji
		}
		if iok != jok {
			return iok
		}
		return urls[i] < urls[j]
	})

	items := make([]types.Evidence, 0, len(urls))
	for _, u := range urls {
		it := f.URLToInfo[u]
		if it.URL == "" {
			it.URL = u
		}
		items = append(items, it)
	}
	return items, nil
}
