// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package section writes one article section from its outline and the
// evidence retrieved for it. The generator formats the evidence into a
// numbered reference block, bounds it to a word budget, shapes it by the
// section's kind, calls the generation collaborator and cleans up the
// returned text.
package section

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/article-engine/pkg/types"
)

// Kind selects how a section's evidence is shaped before generation.
// The set is closed; a task's kind is fixed when the task is built.
type Kind int

const (
	// KindGeneric is ordinary expository prose.
	KindGeneric Kind = iota
	// KindArchitecture describes components and their interactions.
	KindArchitecture
)

var kindNames = map[Kind]string{
	KindGeneric:      "generic",
	KindArchitecture: "architecture",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText encodes the kind by name in YAML and JSON reports.
func (k Kind) MarshalText() ([]byte, error) {
	name, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown section kind %d", int(k))
	}
	return []byte(name), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown section kind %q", text)
}

// KindOf classifies a section title. Titles mentioning "architecture" in
// any case are KindArchitecture.
func KindOf(title string) Kind {
	if strings.Contains(strings.ToLower(title), "architecture") {
		return KindArchitecture
	}
	return KindGeneric
}

// Task is one unit of section work: the section to write, the queries its
// evidence is retrieved with and its outline rendered with heading markers.
type Task struct {
	Title   string   `json:"title" yaml:"title"`
	Kind    Kind     `json:"kind" yaml:"kind"`
	Outline string   `json:"outline,omitempty" yaml:"outline,omitempty"`
	Queries []string `json:"queries" yaml:"queries"`
}

// Result is a written section. Citations [i] in Body index into Evidence.
type Result struct {
	Title    string
	Kind     Kind
	Body     string
	Evidence []types.Evidence
}

// Prompt is everything the generation collaborator receives for one section.
type Prompt struct {
	Topic        string
	Section      string
	Outline      string
	Info         string
	Kind         Kind
	Instructions string
}

// Completer is the generation collaborator. Implementations own any retry
// policy; the generator never retries.
type Completer interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, p Prompt) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, p Prompt) (string, error) {
	return f(ctx, p)
}

// ErrEmptyOutput is wrapped in a GenerationError when the cleaned
// generation output has no content left.
var ErrEmptyOutput = errors.New("generation returned no usable text")

// GenerationError reports a failed or unusable generation for one section.
type GenerationError struct {
	Section string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generating section %q: %v", e.Section, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }
