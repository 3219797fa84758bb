// Package registry provides the process-wide in-memory store of run state.
//
// Each run is mutated by exactly one orchestration goroutine; readers get
// copies via Snapshot. Every mutation bumps a per-run version and wakes
// any watchers, so event publishers block on change notification instead
// of polling.
package registry

import (
	"sync"
	"time"

	"github.com/jonathan/trendsurf-copilot/internal/types"
)

// DefaultRetention is how long terminal runs are kept before eviction.
const DefaultRetention = time.Hour

// janitorInterval is how often the janitor scans for expired runs.
const janitorInterval = time.Minute

type entry struct {
	run        types.Run
	version    uint64
	changed    chan struct{} // closed and replaced on every mutation
	terminalAt time.Time     // zero until the run reaches a terminal state
}

// Registry is a concurrency-safe keyed store of runs.
type Registry struct {
	mu   sync.RWMutex
	runs map[string]*entry

	retention time.Duration
	stop      chan struct{}
	stopOnce  sync.Once
}

// New creates a registry. Terminal runs are evicted after retention;
// retention <= 0 disables eviction entirely.
func New(retention time.Duration) *Registry {
	r := &Registry{
		runs:      make(map[string]*entry),
		retention: retention,
		stop:      make(chan struct{}),
	}
	if retention > 0 {
		go r.janitor()
	}
	return r
}

// Stop halts the background janitor.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// Create inserts a new run in the running state.
func (r *Registry) Create(id, topic, brand, mode string) types.Run {
	r.mu.Lock()
	defer r.mu.Unlock()

	run := types.Run{
		ID:        id,
		Topic:     topic,
		Brand:     brand,
		Mode:      mode,
		Status:    types.StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	r.runs[id] = &entry{
		run:     run,
		changed: make(chan struct{}),
	}
	return run
}

// Snapshot returns a copy of the run and its current version.
// The stages slice is copied so callers can range over it freely.
func (r *Registry) Snapshot(id string) (types.Run, uint64, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.runs[id]
	if !ok {
		return types.Run{}, 0, false
	}
	run := e.run
	run.Stages = append([]types.StageEvent(nil), e.run.Stages...)
	return run, e.version, true
}

// Changed returns a channel that is closed once the run's version
// advances past seen. If the run is unknown or already ahead, the
// returned channel is closed immediately.
func (r *Registry) Changed(id string, seen uint64) <-chan struct{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.runs[id]
	if !ok || e.version != seen {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return e.changed
}

// AppendStage appends a stage event to the run's ordered history.
func (r *Registry) AppendStage(id string, ev types.StageEvent) {
	r.mutate(id, func(run *types.Run) {
		run.Stages = append(run.Stages, ev)
	})
}

// Complete marks the run complete with its final result.
func (r *Registry) Complete(id string, result *types.RunResult) {
	now := time.Now().UTC()
	r.mutate(id, func(run *types.Run) {
		run.Status = types.StatusComplete
		run.Result = result
		run.EndedAt = &now
	})
}

// Fail marks the run failed with a human-readable message.
func (r *Registry) Fail(id string, message string) {
	now := time.Now().UTC()
	r.mutate(id, func(run *types.Run) {
		run.Status = types.StatusError
		run.Error = message
		run.EndedAt = &now
	})
}

// Len returns the number of stored runs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.runs)
}

// mutate applies fn to the run under the lock, bumps the version and
// wakes watchers. Unknown ids are ignored (the run may have been
// evicted while its pipeline was still draining).
func (r *Registry) mutate(id string, fn func(*types.Run)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.runs[id]
	if !ok {
		return
	}
	fn(&e.run)
	if e.run.Terminal() && e.terminalAt.IsZero() {
		e.terminalAt = time.Now()
	}
	e.version++
	close(e.changed)
	e.changed = make(chan struct{})
}

func (r *Registry) janitor() {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case now := <-ticker.C:
			r.evictExpired(now)
		}
	}
}

func (r *Registry) evictExpired(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.runs {
		if !e.terminalAt.IsZero() && now.Sub(e.terminalAt) > r.retention {
			close(e.changed)
			delete(r.runs, id)
		}
	}
}
