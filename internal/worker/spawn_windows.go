// Seedwarden - Descriptor-Driven Seeder Fleet Supervisor
// Copyright 2026 Seedwarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/seedwarden/seedwarden

//go:build windows

package worker

import (
	"os/exec"
	"sync/atomic"
)

// startDetached spawns argv as an ordinary child process. Windows has no
// sessions or process groups in the POSIX sense; termination kills the
// worker process itself.
func startDetached(argv []string, unit string) (Handle, error) {
	cmd := exec.Command(argv[0], argv[1:]...)

	out := newOutputLogger(unit)
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	h := &procHandle{cmd: cmd}
	go func() {
		_ = cmd.Wait()
		out.Flush()
		h.exited.Store(true)
	}()
	return h, nil
}

// procHandle wraps a spawned process for liveness and termination.
type procHandle struct {
	cmd    *exec.Cmd
	exited atomic.Bool
}

func (h *procHandle) PID() int { return h.cmd.Process.Pid }

func (h *procHandle) Exited() bool { return h.exited.Load() }

func (h *procHandle) Terminate() error {
	if h.exited.Load() {
		return nil
	}
	return h.cmd.Process.Kill()
}
