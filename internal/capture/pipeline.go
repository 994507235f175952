// Package capture orchestrates one capture → analyze → persist → refresh
// cycle and exposes the session state the UI renders from.
package capture

import (
	"context"
	"sync"

	"github.com/snapfactlabs/snapfact/internal/models"
)

// RecentWindow is the size of the most-recent-first discovery list.
const RecentWindow = 5

// State is one immutable snapshot of the session.
type State struct {
	CurrentImage string
	CurrentFact  string
	IsLoading    bool
	Recent       []models.Discovery
}

// Analyzer turns an image reference into a fact.
type Analyzer interface {
	Analyze(ctx context.Context, imageURL string) (string, error)
}

// Store is the narrow persistence surface the pipeline needs.
type Store interface {
	InsertDiscovery(ctx context.Context, imageURL, fact string) (models.Discovery, error)
	ListRecent(ctx context.Context, n int) ([]models.Discovery, error)
}

// Notifier surfaces transient user-visible failure messages.
type Notifier interface {
	Notify(title, message string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(title, message string)

func (f NotifierFunc) Notify(title, message string) { f(title, message) }

// Pipeline runs capture cycles against an analyzer and a store. Concurrent
// Capture calls are not queued or rejected; the last write wins.
type Pipeline struct {
	analyzer Analyzer
	store    Store
	notifier Notifier

	mu    sync.Mutex
	state State
}

func New(analyzer Analyzer, store Store, notifier Notifier) *Pipeline {
	return &Pipeline{
		analyzer: analyzer,
		store:    store,
		notifier: notifier,
	}
}

// State returns a copy of the current session snapshot.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshot()
}

func (p *Pipeline) snapshot() State {
	s := p.state
	s.Recent = append([]models.Discovery(nil), p.state.Recent...)
	return s
}

func (p *Pipeline) update(fn func(*State)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn(&p.state)
}

// Capture runs one full cycle for the given image. Each step is gated on the
// previous one; IsLoading is cleared on every exit path. A failed insert does
// not undo the already-displayed fact.
func (p *Pipeline) Capture(ctx context.Context, image string) State {
	p.update(func(s *State) {
		s.CurrentImage = image
		s.IsLoading = true
	})

	p.runCapture(ctx, image)

	p.update(func(s *State) {
		s.IsLoading = false
	})
	return p.State()
}

// runCapture performs the gated analyze -> persist -> refresh steps.
func (p *Pipeline) runCapture(ctx context.Context, image string) {
	fact, err := p.analyzer.Analyze(ctx, image)
	if err != nil {
		p.notifier.Notify("Analysis failed", err.Error())
		return
	}

	p.update(func(s *State) {
		s.CurrentFact = fact
	})

	if _, err := p.store.InsertDiscovery(ctx, image, fact); err != nil {
		p.notifier.Notify("Could not save discovery", err.Error())
	}

	p.Refresh(ctx)
}

// Refresh replaces the recency window with the latest discoveries. On a store
// error the previous list is left untouched.
func (p *Pipeline) Refresh(ctx context.Context) State {
	recent, err := p.store.ListRecent(ctx, RecentWindow)
	if err != nil {
		p.notifier.Notify("Could not load discoveries", err.Error())
		return p.State()
	}

	p.update(func(s *State) {
		s.Recent = recent
	})

	return p.State()
}
