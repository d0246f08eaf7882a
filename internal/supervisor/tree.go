// Seedwarden - Descriptor-Driven Seeder Fleet Supervisor
// Copyright 2026 Seedwarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/seedwarden/seedwarden

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervision tree failure/backoff parameters.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	// Default: 5
	FailureThreshold float64

	// FailureDecay is the rate at which failures decay, in seconds.
	// Default: 30
	FailureDecay float64

	// FailureBackoff is the wait when the threshold is exceeded.
	// Default: 15s
	FailureBackoff time.Duration

	// ShutdownTimeout is the maximum wait for graceful service shutdown.
	// Default: 10s
	ShutdownTimeout time.Duration
}

// Tree is the supervision tree for the seedwarden process.
//
// Two layers under the root: control (the reconciler) and api (the optional
// HTTP status endpoint). A crashing status endpoint never takes the
// reconciler down with it, and vice versa; suture restarts the failed
// service with backoff while the fleet state object survives.
type Tree struct {
	root    *suture.Supervisor
	control *suture.Supervisor
	api     *suture.Supervisor
}

// NewTree creates the supervision tree, logging suture events through the
// given slog logger (bridged from zerolog by internal/logging).
func NewTree(logger *slog.Logger, config TreeConfig) *Tree {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5.0
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30.0
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	handler := &sutureslog.Handler{Logger: logger}
	rootSpec := suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New("seedwarden", rootSpec)
	control := suture.New("control-layer", childSpec)
	api := suture.New("api-layer", childSpec)
	root.Add(control)
	root.Add(api)

	return &Tree{root: root, control: control, api: api}
}

// AddControlService adds a service to the control layer (the reconciler).
func (t *Tree) AddControlService(svc suture.Service) suture.ServiceToken {
	return t.control.Add(svc)
}

// AddAPIService adds a service to the api layer (HTTP endpoint).
func (t *Tree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// ServeBackground starts the tree in a background goroutine and returns the
// channel that receives the terminal error when the tree stops.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport lists services that failed to stop within the
// shutdown timeout.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
