// Seedwarden - Descriptor-Driven Seeder Fleet Supervisor
// Copyright 2026 Seedwarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/seedwarden/seedwarden

// Package worker launches and terminates seeder worker processes.
//
// A worker is an external transfer-protocol engine, one per descriptor. The
// supervisor never inspects a worker beyond liveness: the only contract is
// spawn, "has it exited", and terminate. Workers run in their own session so
// they survive supervisor restarts and can be signaled as a group.
package worker

import (
	"time"

	"github.com/seedwarden/seedwarden/internal/descriptor"
)

// Handle is the supervisor's view of a spawned worker process.
//
// The handle is owned exclusively by the Worker that wraps it; no other
// component may signal the process directly.
type Handle interface {
	// PID returns the OS process ID.
	PID() int

	// Exited reports whether the spawned process has terminated. Note that
	// for wrapper-style worker commands this is the wrapper's exit, not
	// necessarily the real worker's; the probe package handles that case.
	Exited() bool

	// Terminate requests graceful termination (SIGTERM to the process
	// group). Terminating an already-dead process is not an error.
	Terminate() error
}

// Worker pairs one descriptor with one running worker process.
type Worker struct {
	// Descriptor is the file this worker seeds.
	Descriptor descriptor.Descriptor

	// LaunchID correlates every log event of one launch. A relaunch of the
	// same descriptor gets a fresh ID.
	LaunchID string

	// StartedAt is the launch timestamp.
	StartedAt time.Time

	handle Handle
}

// PID returns the worker process ID.
func (w *Worker) PID() int { return w.handle.PID() }

// Exited reports whether the worker's own handle has exited.
func (w *Worker) Exited() bool { return w.handle.Exited() }

// Terminate signals the worker process group to stop.
func (w *Worker) Terminate() error { return w.handle.Terminate() }

// Uptime returns how long the worker has been running.
func (w *Worker) Uptime(now time.Time) time.Duration {
	return now.Sub(w.StartedAt)
}
