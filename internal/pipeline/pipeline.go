// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline writes a whole article from its outline. The runner
// builds one task per first-level section, writes the sections on a bounded
// worker pool, synthesizes the architecture section from its own evidence,
// and merges everything into a copy of the outline.
//
// The outline passed to Run is never modified. Sections are merged one at a
// time after every worker has finished, so the article tree is never shared
// between goroutines.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.yaml.in/yaml/v3"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/article-engine/internal/article"
	"github.com/pdiddy/article-engine/internal/section"
	"github.com/pdiddy/article-engine/pkg/types"
)

// Retriever returns up to topK evidence items for a set of queries. It must
// be safe for concurrent use once prepared.
type Retriever interface {
	Retrieve(ctx context.Context, queries []string, topK int) ([]types.Evidence, error)
}

// Preparer is implemented by retrievers that build an index before the
// first Retrieve.
type Preparer interface {
	Prepared() bool
	Prepare(ctx context.Context) error
}

// Writer writes one section from its evidence.
type Writer interface {
	Generate(ctx context.Context, topic string, task section.Task, evidence []types.Evidence) (section.Result, error)
}

// RunError reports a failed run. Sections lists the sections whose own
// work failed; sections abandoned because of another failure are omitted.
type RunError struct {
	Topic    string
	Sections []string
	Err      error
}

func (e *RunError) Error() string {
	if len(e.Sections) == 0 {
		return fmt.Sprintf("generating %q: %v", e.Topic, e.Err)
	}
	return fmt.Sprintf("generating %q: section %s failed: %v",
		e.Topic, strings.Join(quoteAll(e.Sections), ", "), e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}

// SectionReport records one written section.
type SectionReport struct {
	Title    string        `yaml:"title"`
	Kind     section.Kind  `yaml:"kind"`
	Evidence int           `yaml:"evidence"`
	Duration time.Duration `yaml:"duration"`
}

// Report summarizes a successful run. Sections are listed in completion
// order, the synthesized section last.
type Report struct {
	RunID      uuid.UUID       `yaml:"run_id"`
	Topic      string          `yaml:"topic"`
	StartedAt  time.Time       `yaml:"started_at"`
	FinishedAt time.Time       `yaml:"finished_at"`
	Sections   []SectionReport `yaml:"sections"`
}

// Write saves the report as YAML.
func (r *Report) Write(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling run report: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Option configures a Runner.
type Option func(*Runner)

// WithObserver registers an observer for pipeline events.
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// WithProgress sets the writer that receives one line per section.
func WithProgress(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.progress = w
		}
	}
}

// Runner generates articles.
type Runner struct {
	retriever Retriever
	writer    Writer
	cfg       types.GenerationConfig
	observer  Observer
	progress  io.Writer
}

// NewRunner returns a runner over the given collaborators. Zero values in
// cfg take their defaults.
func NewRunner(retriever Retriever, writer Writer, cfg types.GenerationConfig, opts ...Option) *Runner {
	r := &Runner{
		retriever: retriever,
		writer:    writer,
		cfg:       cfg.WithDefaults(),
		progress:  io.Discard,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type taskResult struct {
	result   section.Result
	kind     section.Kind
	duration time.Duration
}

type taskFailure struct {
	title string
	err   error
}

// Run writes the article for topic from outline. A nil outline is treated
// as an empty one. The first failing section cancels the others and the run
// returns a *RunError and no article.
func (r *Runner) Run(ctx context.Context, topic string, outline *article.Article) (*article.Article, *Report, error) {
	topic = strings.TrimSpace(topic)
	if outline == nil {
		outline = article.New(topic)
	}
	if topic == "" {
		topic = outline.Topic()
	}
	if topic == "" {
		return nil, nil, errors.New("topic is required")
	}
	if !strings.EqualFold(topic, strings.TrimSpace(outline.Topic())) {
		return nil, nil, fmt.Errorf("topic %q does not match outline root %q", topic, outline.Topic())
	}

	report := &Report{RunID: uuid.New(), Topic: topic, StartedAt: time.Now()}
	events := newNotifier(r.observer)
	defer events.close()

	if p, ok := r.retriever.(Preparer); ok && !p.Prepared() {
		if err := p.Prepare(ctx); err != nil {
			return nil, nil, &RunError{Topic: topic, Err: fmt.Errorf("preparing retrieval: %w", err)}
		}
	}
	if err := outline.Validate(); err != nil {
		return nil, nil, &RunError{Topic: topic, Err: err}
	}

	tasks, err := BuildTasks(outline)
	if err != nil {
		return nil, nil, &RunError{Topic: topic, Err: err}
	}
	fmt.Fprintf(r.progress, "run %s: %d sections, %d workers\n", report.RunID, len(tasks), r.cfg.MaxThreadNum)

	results, err := r.scatter(ctx, topic, tasks, events)
	if err != nil {
		return nil, nil, err
	}

	synthesized, err := r.retriever.Retrieve(ctx, section.SynthesisQueries, r.cfg.RetrieveTopK)
	if err != nil {
		return nil, nil, &RunError{Topic: topic, Sections: []string{section.SynthesisTitle}, Err: err}
	}
	results = append(results, taskResult{
		result: section.Result{
			Title:    section.SynthesisTitle,
			Kind:     section.KindArchitecture,
			Body:     section.Synthesize(synthesized),
			Evidence: synthesized,
		},
		kind: section.KindArchitecture,
	})
	events.emit(EventSynthesisFinished, section.SynthesisTitle, nil)

	art := outline.DeepCopy()
	art.MoveToEnd(section.SynthesisTitle)
	root := art.Topic()
	for _, tr := range results {
		res := tr.result
		if err := art.UpdateSection(root, res.Title, res.Body, res.Evidence); err != nil {
			return nil, nil, &RunError{Topic: topic, Err: fmt.Errorf("merging %q: %w", res.Title, err)}
		}
		report.Sections = append(report.Sections, SectionReport{
			Title:    res.Title,
			Kind:     tr.kind,
			Evidence: len(res.Evidence),
			Duration: tr.duration,
		})
	}
	art.PostProcess()
	events.emit(EventMerged, "", nil)

	report.FinishedAt = time.Now()
	fmt.Fprintf(r.progress, "merged %d sections, %d references\n", len(results), len(art.References))
	return art, report, nil
}

// scatter runs every task on the worker pool and returns the results in
// completion order. No result is returned before all tasks have settled.
func (r *Runner) scatter(ctx context.Context, topic string, tasks []section.Task, events *notifier) ([]taskResult, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.MaxThreadNum)

	var (
		mu       sync.Mutex
		results  []taskResult
		failures []taskFailure
	)

	for _, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				mu.Lock()
				failures = append(failures, taskFailure{title: task.Title, err: err})
				mu.Unlock()
				return err
			}

			events.emit(EventSectionStarted, task.Title, nil)
			fmt.Fprintf(r.progress, "writing %s\n", task.Title)
			start := time.Now()

			res, err := r.runTask(gctx, topic, task)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, taskFailure{title: task.Title, err: err})
				events.emit(EventSectionFailed, task.Title, err)
				fmt.Fprintf(r.progress, "failed  %s: %v\n", task.Title, err)
				return err
			}
			d := time.Since(start)
			results = append(results, taskResult{result: res, kind: task.Kind, duration: d})
			events.emit(EventSectionFinished, task.Title, nil)
			fmt.Fprintf(r.progress, "wrote %s (%d sources, %s)\n", task.Title, len(res.Evidence), d.Round(time.Millisecond))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, &RunError{Topic: topic, Sections: failedSections(failures), Err: err}
	}
	return results, nil
}

// runTask retrieves evidence for one task and writes its section under the
// task timeout. A task that outlives its deadline fails even when its
// collaborators ignored the context.
func (r *Runner) runTask(ctx context.Context, topic string, task section.Task) (section.Result, error) {
	if r.cfg.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.TaskTimeout)
		defer cancel()
	}

	evidence, err := r.retriever.Retrieve(ctx, task.Queries, r.cfg.RetrieveTopK)
	if err != nil {
		return section.Result{}, fmt.Errorf("retrieving evidence: %w", err)
	}
	res, err := r.writer.Generate(ctx, topic, task, evidence)
	if err != nil {
		return section.Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return section.Result{}, &section.GenerationError{Section: task.Title, Err: err}
	}
	res.Title = task.Title
	return res, nil
}

// failedSections names the sections that failed on their own. Failures
// that are only the group's cancellation are left out unless nothing else
// failed.
func failedSections(failures []taskFailure) []string {
	var own, all []string
	for _, f := range failures {
		all = append(all, f.title)
		if !errors.Is(f.err, context.Canceled) {
			own = append(own, f.title)
		}
	}
	if len(own) == 0 {
		return all
	}
	return own
}
