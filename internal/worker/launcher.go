// Seedwarden - Descriptor-Driven Seeder Fleet Supervisor
// Copyright 2026 Seedwarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/seedwarden/seedwarden

package worker

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/seedwarden/seedwarden/internal/descriptor"
	"github.com/seedwarden/seedwarden/internal/logging"
)

// PathPlaceholder is replaced by the descriptor path in the worker command
// template.
const PathPlaceholder = "{file}"

// StartFunc spawns the worker process for the given argv and returns its
// handle. It exists so tests can substitute a fake process without touching
// the launcher logic.
type StartFunc func(argv []string, unit string) (Handle, error)

// LauncherConfig configures a Launcher.
type LauncherConfig struct {
	// Command is the worker argv template. Arguments equal to
	// PathPlaceholder are replaced by the descriptor path; if no argument
	// contains the placeholder, the path is appended.
	Command []string

	// TrackerURL, when non-empty, is forwarded to the worker as
	// "--tracker <url>". Left empty, the worker uses the tracker embedded
	// in the descriptor itself.
	TrackerURL string

	// Warmup is the pause after a successful spawn, giving the worker time
	// to reach an observable state before the first liveness check. This is
	// best-effort, not a correctness guarantee.
	Warmup time.Duration

	// Start spawns the process. Defaults to the detached OS spawn.
	Start StartFunc
}

// Launcher starts worker processes for descriptors.
type Launcher struct {
	command []string
	tracker string
	warmup  time.Duration
	start   StartFunc
}

// NewLauncher creates a Launcher from cfg.
func NewLauncher(cfg LauncherConfig) *Launcher {
	start := cfg.Start
	if start == nil {
		start = startDetached
	}
	return &Launcher{
		command: cfg.Command,
		tracker: cfg.TrackerURL,
		warmup:  cfg.Warmup,
		start:   start,
	}
}

// Launch spawns one worker for desc and waits out the warm-up pause.
// Every failure is returned to the caller; the reconciler leaves the
// descriptor untracked so the next cycle retries.
func (l *Launcher) Launch(ctx context.Context, desc descriptor.Descriptor) (*Worker, error) {
	argv := l.buildArgv(desc.Path)
	if len(argv) == 0 {
		return nil, fmt.Errorf("launch %s: empty worker command", desc.Unit)
	}

	launchID := uuid.NewString()
	logging.Info().
		Str("unit", desc.Unit).
		Str("launch_id", launchID).
		Str("command", strings.Join(argv, " ")).
		Msg("launching worker")

	handle, err := l.start(argv, desc.Unit)
	if err != nil {
		return nil, fmt.Errorf("launch %s: %w", desc.Unit, err)
	}

	w := &Worker{
		Descriptor: desc,
		LaunchID:   launchID,
		StartedAt:  time.Now(),
		handle:     handle,
	}

	logging.Info().
		Str("unit", desc.Unit).
		Str("launch_id", launchID).
		Int("pid", w.PID()).
		Msg("worker started")

	if l.warmup > 0 {
		select {
		case <-time.After(l.warmup):
		case <-ctx.Done():
		}
	}
	return w, nil
}

// buildArgv expands the command template for one descriptor path.
func (l *Launcher) buildArgv(path string) []string {
	argv := make([]string, 0, len(l.command)+3)
	substituted := false
	for _, arg := range l.command {
		if strings.Contains(arg, PathPlaceholder) {
			arg = strings.ReplaceAll(arg, PathPlaceholder, path)
			substituted = true
		}
		argv = append(argv, arg)
	}
	if !substituted && len(argv) > 0 {
		argv = append(argv, path)
	}
	if l.tracker != "" && len(argv) > 0 {
		argv = append(argv, "--tracker", l.tracker)
	}
	return argv
}

// FakeHandle is a controllable Handle for tests in this module.
type FakeHandle struct {
	Pid        int
	exited     atomic.Bool
	terminated atomic.Int32
	TermErr    error
}

// PID implements Handle.
func (f *FakeHandle) PID() int { return f.Pid }

// Exited implements Handle.
func (f *FakeHandle) Exited() bool { return f.exited.Load() }

// MarkExited makes subsequent Exited calls return true.
func (f *FakeHandle) MarkExited() { f.exited.Store(true) }

// Terminate implements Handle.
func (f *FakeHandle) Terminate() error {
	f.terminated.Add(1)
	if f.TermErr != nil {
		return f.TermErr
	}
	f.exited.Store(true)
	return nil
}

// Terminations returns how many times Terminate was called.
func (f *FakeHandle) Terminations() int { return int(f.terminated.Load()) }
