package match

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/cradlewars/arena/internal/engine"
)

// ErrMatchNotFound is returned for an unknown match id.
var ErrMatchNotFound = errors.New("match not found")

// ErrMatchExists is returned by Create for an id already in use.
var ErrMatchExists = errors.New("match already exists")

type entry struct {
	match  *Match
	cancel context.CancelFunc
	done   chan struct{}
}

// Manager holds the matches of a server. Matches are independent; the
// manager only owns their goroutines.
type Manager struct {
	deps Dependencies

	mu      sync.RWMutex
	matches map[string]*entry
}

// NewManager returns an empty manager whose matches share deps.
func NewManager(deps Dependencies) *Manager {
	return &Manager{
		deps:    deps,
		matches: make(map[string]*entry),
	}
}

// Create sets up a match without starting it.
func (mg *Manager) Create(opts Options) (*Match, error) {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	if opts.ID != "" {
		if _, ok := mg.matches[opts.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrMatchExists, opts.ID)
		}
	}
	m, err := New(opts, mg.deps)
	if err != nil {
		return nil, err
	}
	mg.matches[m.ID()] = &entry{match: m}
	return m, nil
}

// Start runs match id on its own goroutine until it ends, ctx is done or
// the match is removed. onExit, if set, is called with Run's result.
func (mg *Manager) Start(ctx context.Context, id string, onExit func(error)) error {
	mg.mu.Lock()
	defer mg.mu.Unlock()
	e, ok := mg.matches[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMatchNotFound, id)
	}
	if e.cancel != nil {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.done = make(chan struct{})
	go func() {
		defer close(e.done)
		err := e.match.Run(runCtx)
		if onExit != nil {
			onExit(err)
		}
	}()
	return nil
}

// Get returns match id.
func (mg *Manager) Get(id string) (*Match, error) {
	mg.mu.RLock()
	defer mg.mu.RUnlock()
	e, ok := mg.matches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMatchNotFound, id)
	}
	return e.match, nil
}

// Submit queues a for match id.
func (mg *Manager) Submit(id string, a engine.Action) error {
	m, err := mg.Get(id)
	if err != nil {
		return err
	}
	return m.Submit(a)
}

// Remove stops match id, waits for its goroutine and forgets it.
func (mg *Manager) Remove(id string) error {
	mg.mu.Lock()
	e, ok := mg.matches[id]
	if !ok {
		mg.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrMatchNotFound, id)
	}
	delete(mg.matches, id)
	cancel, done := e.cancel, e.done
	mg.mu.Unlock()

	stop(cancel, done)
	return nil
}

// List returns the ids of all matches, sorted.
func (mg *Manager) List() []string {
	mg.mu.RLock()
	defer mg.mu.RUnlock()
	ids := make([]string, 0, len(mg.matches))
	for id := range mg.matches {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Count returns the number of matches that have not ended.
func (mg *Manager) Count() int {
	mg.mu.RLock()
	defer mg.mu.RUnlock()
	n := 0
	for _, e := range mg.matches {
		if !e.match.Ended() {
			n++
		}
	}
	return n
}

// Shutdown stops every running match and waits for them.
func (mg *Manager) Shutdown() {
	mg.mu.Lock()
	running := make([]entry, 0, len(mg.matches))
	for _, e := range mg.matches {
		running = append(running, *e)
	}
	mg.mu.Unlock()
	for _, e := range running {
		stop(e.cancel, e.done)
	}
}

func stop(cancel context.CancelFunc, done <-chan struct{}) {
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
