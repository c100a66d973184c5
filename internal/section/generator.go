// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package section

import (
	"context"

	"github.com/pdiddy/article-engine/pkg/types"
)

// Generator writes sections through a Completer.
type Generator struct {
	completer  Completer
	wordBudget int
}

// Option configures a Generator.
type Option func(*Generator)

// WithWordBudget bounds the evidence block handed to the completer.
// Non-positive values keep the default.
func WithWordBudget(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.wordBudget = n
		}
	}
}

// NewGenerator returns a generator using c.
func NewGenerator(c Completer, opts ...Option) *Generator {
	g := &Generator{completer: c, wordBudget: types.DefaultWordBudget}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate writes the section described by task from evidence. Evidence
// order defines the citation numbering: the first item is [1].
func (g *Generator) Generate(ctx context.Context, topic string, task Task, evidence []types.Evidence) (Result, error) {
	s := strategyFor(task.Kind)
	info := s.shape(LimitWords(FormatEvidence(evidence), g.wordBudget))

	out, err := g.completer.Complete(ctx, Prompt{
		Topic:        topic,
		Section:      task.Title,
		Outline:      task.Outline,
		Info:         info,
		Kind:         task.Kind,
		Instructions: s.instructions(),
	})
	if err != nil {
		return Result{}, &GenerationError{Section: task.Title, Err: err}
	}

	body := CleanUp(out, topic, task.Title)
	if body == "" {
		return Result{}, &GenerationError{Section: task.Title, Err: ErrEmptyOutput}
	}

	return Result{
		Title:    task.Title,
		Kind:     task.Kind,
		Body:     body,
		Evidence: evidence,
	}, nil
}
