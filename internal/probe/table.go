// Seedwarden - Descriptor-Driven Seeder Fleet Supervisor
// Copyright 2026 Seedwarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/seedwarden/seedwarden

package probe

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/process"

	"github.com/seedwarden/seedwarden/internal/worker"
)

// CmdlineLister returns the command lines of all processes currently in the
// OS process table. Tests substitute a fake; production uses gopsutil.
type CmdlineLister func(ctx context.Context) ([]string, error)

// ProcessTable is the second-tier strategy: a worker whose handle exited is
// still alive if some process's command line contains the descriptor's
// filename.
//
// Matching is a plain substring test, exactly as broad as it sounds: two
// units whose descriptor filenames overlap can false-positive against each
// other. This is an accepted limitation of the fallback, not something the
// prober tries to outsmart.
type ProcessTable struct {
	list CmdlineLister
}

// NewProcessTable creates the process-table strategy backed by gopsutil.
func NewProcessTable() *ProcessTable {
	return &ProcessTable{list: listCmdlines}
}

// NewProcessTableWithLister creates the strategy with a custom lister.
func NewProcessTableWithLister(list CmdlineLister) *ProcessTable {
	return &ProcessTable{list: list}
}

// Probe implements Strategy.
func (p *ProcessTable) Probe(ctx context.Context, w *worker.Worker) (bool, error) {
	return p.MatchesPath(ctx, w.Descriptor.Path)
}

// MatchesPath reports whether any process's command line mentions the
// descriptor path's filename. The status-only CLI mode uses this directly to
// show per-unit liveness without owning any worker handles.
func (p *ProcessTable) MatchesPath(ctx context.Context, path string) (bool, error) {
	needle := filepath.Base(path)
	cmdlines, err := p.list(ctx)
	if err != nil {
		return false, fmt.Errorf("process table query: %w", err)
	}
	for _, cmdline := range cmdlines {
		if strings.Contains(cmdline, needle) {
			return true, nil
		}
	}
	return false, nil
}

// listCmdlines reads every process's command line via gopsutil. Processes
// that vanish or deny access mid-scan are skipped; they cannot be ours to
// keep alive anyway.
func listCmdlines(ctx context.Context) ([]string, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	cmdlines := make([]string, 0, len(procs))
	for _, proc := range procs {
		cmdline, err := proc.CmdlineWithContext(ctx)
		if err != nil || cmdline == "" {
			continue
		}
		cmdlines = append(cmdlines, cmdline)
	}
	return cmdlines, nil
}
