// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"time"
)

// EventKind names a pipeline milestone.
type EventKind string

// Pipeline milestones.
const (
	EventSectionStarted    EventKind = "section_started"
	EventSectionFinished   EventKind = "section_finished"
	EventSectionFailed     EventKind = "section_failed"
	EventSynthesisFinished EventKind = "synthesis_finished"
	EventMerged            EventKind = "merged"
)

// Event is one progress notification. Section is empty for run-wide events.
type Event struct {
	Kind    EventKind
	Section string
	Err     error
	Time    time.Time
}

// String formats the event as a status line.
func (e Event) String() string {
	switch e.Kind {
	case EventSectionStarted:
		return fmt.Sprintf("  ● %s...", e.Section)
	case EventSectionFinished:
		return fmt.Sprintf("  ✓ %s complete", e.Section)
	case EventSectionFailed:
		return fmt.Sprintf("  ✗ %s failed: %v", e.Section, e.Err)
	case EventSynthesisFinished:
		return fmt.Sprintf("  ✓ %s synthesized", e.Section)
	case EventMerged:
		return "  ✓ article merged"
	default:
		return fmt.Sprintf("  ? %s (%s)", e.Section, e.Kind)
	}
}

// Observer receives pipeline events. Observers run on their own goroutine
// and never hold up the run; events are dropped while the observer lags.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) { f(e) }

// notifierBuffer bounds the events queued for a slow observer.
const notifierBuffer = 64

// notifier delivers events to an observer through a buffered channel. A
// nil notifier discards everything.
type notifier struct {
	ch chan Event
}

func newNotifier(o Observer) *notifier {
	if o == nil {
		return nil
	}
	n := &notifier{ch: make(chan Event, notifierBuffer)}
	go func() {
		for e := range n.ch {
			o.Observe(e)
		}
	}()
	return n
}

// emit queues e without blocking. If the buffer is full, e is dropped.
func (n *notifier) emit(kind EventKind, sectionTitle string, err error) {
	if n == nil {
		return
	}
	select {
	case n.ch <- Event{Kind: kind, Section: sectionTitle, Err: err, Time: time.Now()}:
	default:
	}
}

// close stops accepting events. Queued events are still delivered.
func (n *notifier) close() {
	if n != nil {
		close(n.ch)
	}
}
