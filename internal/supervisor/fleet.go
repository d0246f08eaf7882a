// Seedwarden - Descriptor-Driven Seeder Fleet Supervisor
// Copyright 2026 Seedwarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/seedwarden/seedwarden

package supervisor

import (
	"errors"
	"sync"

	"github.com/seedwarden/seedwarden/internal/worker"
)

// ErrAlreadyTracked is returned when a worker is added for a descriptor path
// that already has one. The at-most-one-worker-per-path invariant is enforced
// here, at the single point where tracked state changes.
var ErrAlreadyTracked = errors.New("worker already tracked for descriptor path")

// ErrFleetClosed is returned by Track after DrainAll: a launch that completes
// while shutdown is draining must not slip an unsupervised worker past the
// drain. The caller terminates the extra process.
var ErrFleetClosed = errors.New("fleet is draining, refusing new workers")

// Fleet is the supervisor's actual state: the set of descriptor paths with a
// live managed worker. It is the only shared mutable state in the core; both
// the reconciliation loop and the forced-shutdown path go through its mutex.
type Fleet struct {
	mu      sync.Mutex
	workers map[string]*worker.Worker
	closed  bool
}

// NewFleet creates an empty fleet.
func NewFleet() *Fleet {
	return &Fleet{workers: make(map[string]*worker.Worker)}
}

// Track adds w to the fleet, keyed by its descriptor path.
func (f *Fleet) Track(w *worker.Worker) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrFleetClosed
	}
	path := w.Descriptor.Path
	if _, has := f.workers[path]; has {
		return ErrAlreadyTracked
	}
	f.workers[path] = w
	return nil
}

// Remove detaches and returns the worker for path, or nil if untracked.
// The caller owns termination; removal itself does not signal the process.
func (f *Fleet) Remove(path string) *worker.Worker {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := f.workers[path]
	delete(f.workers, path)
	return w
}

// Tracks reports whether path has a tracked worker.
func (f *Fleet) Tracks(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, has := f.workers[path]
	return has
}

// Workers returns a snapshot slice of all tracked workers.
func (f *Fleet) Workers() []*worker.Worker {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*worker.Worker, 0, len(f.workers))
	for _, w := range f.workers {
		out = append(out, w)
	}
	return out
}

// Len returns the number of tracked workers.
func (f *Fleet) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.workers)
}

// DrainAll closes the fleet to new workers, removes every tracked worker and
// returns them for termination. Emptying the map and signaling outside the
// lock keeps the mutex hold time bounded.
func (f *Fleet) DrainAll() []*worker.Worker {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	out := make([]*worker.Worker, 0, len(f.workers))
	for path, w := range f.workers {
		out = append(out, w)
		delete(f.workers, path)
	}
	return out
}
