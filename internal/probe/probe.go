// Seedwarden - Descriptor-Driven Seeder Fleet Supervisor
// Copyright 2026 Seedwarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/seedwarden/seedwarden

// Package probe decides whether a managed worker's work is still happening.
//
// Liveness is two-tier. The launcher's own handle is authoritative while the
// spawned process runs, but worker commands are often wrappers (a shell, a
// login stub) whose exit says nothing about the real transfer engine. The
// second tier falls back to the OS process table and looks for any command
// line mentioning the descriptor's filename. Strategies compose in a Chain;
// the first Alive wins.
package probe

import (
	"context"

	"github.com/seedwarden/seedwarden/internal/logging"
	"github.com/seedwarden/seedwarden/internal/worker"
)

// Strategy is one way of deciding worker liveness.
type Strategy interface {
	// Probe reports whether w is alive. An error means liveness could not
	// be determined; the caller treats that as not-alive and moves on.
	Probe(ctx context.Context, w *worker.Worker) (bool, error)
}

// Chain composes strategies in order. A worker is Alive as soon as one
// strategy says so; probe errors are logged and never propagated, so the
// reconciler makes progress even when the process table is unavailable.
// A worker every strategy rejects (or fails on) is Dead.
type Chain struct {
	strategies []Strategy
}

// NewChain builds a Chain from the given strategies, consulted in order.
func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// Alive reports whether any strategy in the chain finds w alive.
func (c *Chain) Alive(ctx context.Context, w *worker.Worker) bool {
	for _, s := range c.strategies {
		alive, err := s.Probe(ctx, w)
		if err != nil {
			logging.Warn().
				Err(err).
				Str("unit", w.Descriptor.Unit).
				Msg("liveness probe failed, treating tier as dead")
			continue
		}
		if alive {
			return true
		}
	}
	return false
}

// Handle is the first-tier strategy: alive while the spawned process handle
// has not exited.
type Handle struct{}

// Probe implements Strategy.
func (Handle) Probe(_ context.Context, w *worker.Worker) (bool, error) {
	return !w.Exited(), nil
}
