// Seedwarden - Descriptor-Driven Seeder Fleet Supervisor
// Copyright 2026 Seedwarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/seedwarden/seedwarden

//go:build unix

package worker

import (
	"errors"
	"os/exec"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// startDetached spawns argv in its own session and process group. The worker
// must not die with the supervisor (an operator may restart the supervisor
// under a live fleet), and terminating the session leader's group catches
// any children the worker command itself forks.
func startDetached(argv []string, unit string) (Handle, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.SysProcAttr = &unix.SysProcAttr{Setsid: true}

	out := newOutputLogger(unit)
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	h := &procHandle{cmd: cmd}
	go func() {
		// Wait is required to reap the child; its result feeds Exited.
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

// Terminate sends SIGTERM to the worker's process group. An already-reaped
// group is not an error.
func (h *procHandle) Terminate() error {
	err := unix.Kill(-h.cmd.Process.Pid, unix.SIGTERM)
	if err == nil || errors.Is(err, unix.ESRCH) {
		return nil
	}
	// Fall back to signaling the leader alone (group ownership can be lost
	// if the worker re-execs with its own setsid).
	if sigErr := h.cmd.Process.Signal(unix.SIGTERM); sigErr == nil {
		return nil
	}
	return err
}
