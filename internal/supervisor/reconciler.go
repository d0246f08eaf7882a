// Seedwarden - Descriptor-Driven Seeder Fleet Supervisor
// Copyright 2026 Seedwarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/seedwarden/seedwarden

package supervisor

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/seedwarden/seedwarden/internal/descriptor"
	"github.com/seedwarden/seedwarden/internal/logging"
	"github.com/seedwarden/seedwarden/internal/metrics"
	"github.com/seedwarden/seedwarden/internal/status"
	"github.com/seedwarden/seedwarden/internal/worker"
)

// Launcher starts one worker process per descriptor.
// Satisfied by *worker.Launcher.
type Launcher interface {
	Launch(ctx context.Context, desc descriptor.Descriptor) (*worker.Worker, error)
}

// Prober decides whether a tracked worker is still alive.
// Satisfied by *probe.Chain.
type Prober interface {
	Alive(ctx context.Context, w *worker.Worker) bool
}

// ScanFunc lists the descriptors currently present in a directory.
// Satisfied by descriptor.Scan.
type ScanFunc func(dir string) ([]descriptor.Descriptor, error)

// ReconcilerConfig configures a Reconciler.
type ReconcilerConfig struct {
	// WatchDir is the descriptor directory.
	WatchDir string

	// TrackerURL is reported in status snapshots (the launcher owns the
	// actual override).
	TrackerURL string

	// PollInterval is the sleep between full reconciliation cycles.
	PollInterval time.Duration

	// HoldInterval is the sleep between liveness-only passes when
	// LivenessOnly is set.
	HoldInterval time.Duration

	// LaunchStagger paces launches during the initial pass so a directory
	// full of descriptors does not spawn its whole fleet in one burst.
	// Zero disables pacing.
	LaunchStagger time.Duration

	// LivenessOnly skips scanning and diffing: the loop only probes what
	// the initial pass launched. Dead workers are dropped, not relaunched.
	LivenessOnly bool

	Scan     ScanFunc
	Launcher Launcher
	Prober   Prober
}

// Reconciler owns desired and actual state and runs the
// scan -> diff -> act -> probe cycle. It implements suture.Service; the
// supervision tree restarts it (fleet intact) if a cycle panics.
type Reconciler struct {
	cfg     ReconcilerConfig
	fleet   *Fleet
	stagger *rate.Limiter

	// lastScan is the size of the most recent successful scan, for status.
	lastScanMu sync.Mutex
	lastScan   int

	drainOnce sync.Once
}

// NewReconciler creates a Reconciler. The fleet starts empty; call
// InitialPass before Serve so existing descriptors are picked up immediately
// instead of waiting out the first poll interval.
func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	var stagger *rate.Limiter
	if cfg.LaunchStagger > 0 {
		stagger = rate.NewLimiter(rate.Every(cfg.LaunchStagger), 1)
	}
	return &Reconciler{
		cfg:     cfg,
		fleet:   NewFleet(),
		stagger: stagger,
	}
}

// Fleet exposes the tracked-worker state for status reads.
func (r *Reconciler) Fleet() *Fleet { return r.fleet }

// InitialPass launches a worker for every descriptor currently present,
// paced by the configured stagger. Launch failures are logged and left for
// the periodic loop to retry.
func (r *Reconciler) InitialPass(ctx context.Context) error {
	current, err := r.cfg.Scan(r.cfg.WatchDir)
	if err != nil {
		return err
	}
	r.setLastScan(len(current))
	logging.Info().
		Int("descriptors", len(current)).
		Str("dir", r.cfg.WatchDir).
		Msg("initial launch pass")

	for _, desc := range current {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.stagger != nil {
			if err := r.stagger.Wait(ctx); err != nil {
				return err
			}
		}
		r.launch(ctx, desc)
	}
	return nil
}

// Cycle runs one reconciliation: scan, diff against tracked state, launch
// additions, terminate removals, then probe everything that remains. Per-unit
// errors never escape a cycle.
func (r *Reconciler) Cycle(ctx context.Context) {
	defer metrics.ObserveCycle(time.Now())

	current, err := r.cfg.Scan(r.cfg.WatchDir)
	if err != nil {
		// A transient scan failure must not read as "every descriptor
		// vanished" and mass-terminate the fleet. Skip the diff, keep
		// probing.
		metrics.ScanErrors.Inc()
		logging.Err(err).Msg("descriptor scan failed, skipping diff this cycle")
		r.probePass(ctx, true)
		r.report()
		return
	}
	r.setLastScan(len(current))
	metrics.DescriptorsSeen.Set(float64(len(current)))

	currentSet := make(map[string]bool, len(current))

	// Additions: descriptors present on disk but not tracked.
	for _, desc := range current {
		currentSet[desc.Path] = true
		if r.fleet.Tracks(desc.Path) {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		r.launch(ctx, desc)
	}

	// Removals: tracked workers whose descriptor file is gone. Deleting the
	// file is the supported way to stop one unit's workflow.
	for _, w := range r.fleet.Workers() {
		if currentSet[w.Descriptor.Path] {
			continue
		}
		r.fleet.Remove(w.Descriptor.Path)
		metrics.Terminations.WithLabelValues("removed").Inc()
		logging.Info().
			Str("unit", w.Descriptor.Unit).
			Str("launch_id", w.LaunchID).
			Msg("descriptor removed, terminating worker")
		if err := w.Terminate(); err != nil {
			logging.Err(err).Str("unit", w.Descriptor.Unit).Msg("worker termination failed")
		}
	}

	r.probePass(ctx, true)
	r.report()
}

// launch starts one worker and tracks it. A failure leaves the descriptor
// untracked so the next cycle retries; launch failures are never fatal.
func (r *Reconciler) launch(ctx context.Context, desc descriptor.Descriptor) {
	w, err := r.cfg.Launcher.Launch(ctx, desc)
	metrics.RecordLaunch(err)
	if err != nil {
		logging.Err(err).Str("unit", desc.Unit).Msg("worker launch failed, will retry next cycle")
		return
	}
	if err := r.fleet.Track(w); err != nil {
		// Either a duplicate or a launch that finished after the drain
		// closed the fleet. In both cases never leave the process running.
		logging.Err(err).Str("unit", desc.Unit).Msg("untrackable worker, terminating process")
		if termErr := w.Terminate(); termErr != nil {
			logging.Err(termErr).Str("unit", desc.Unit).Msg("extra worker termination failed")
		}
		return
	}
	metrics.FleetSize.Set(float64(r.fleet.Len()))
}

// probePass checks liveness of every tracked worker and drops the dead ones.
// With relaunch=true the next cycle's scan re-adds any whose descriptor still
// exists (the self-healing path); in liveness-only mode they stay dropped.
func (r *Reconciler) probePass(ctx context.Context, relaunch bool) {
	for _, w := range r.fleet.Workers() {
		if ctx.Err() != nil {
			return
		}
		if r.cfg.Prober.Alive(ctx, w) {
			continue
		}
		r.fleet.Remove(w.Descriptor.Path)
		metrics.ProbeDead.Inc()
		evt := logging.Warn().
			Str("unit", w.Descriptor.Unit).
			Str("launch_id", w.LaunchID)
		if relaunch {
			evt.Msg("worker dead, will relaunch if descriptor persists")
		} else {
			evt.Msg("worker dead")
		}
	}
	metrics.FleetSize.Set(float64(r.fleet.Len()))
}

// report emits the per-cycle status line.
func (r *Reconciler) report() {
	workers := r.fleet.Workers()
	if len(workers) == 0 {
		return
	}
	units := make([]string, 0, len(workers))
	for _, w := range workers {
		units = append(units, w.Descriptor.Unit)
	}
	logging.Info().
		Int("active", len(workers)).
		Strs("units", units).
		Msg("fleet status")
}

// Serve implements suture.Service: the periodic loop, interrupted only by
// context cancellation, which triggers the shutdown drain. In liveness-only
// mode the loop probes at the hold interval without re-scanning.
func (r *Reconciler) Serve(ctx context.Context) error {
	interval := r.cfg.PollInterval
	if r.cfg.LivenessOnly {
		interval = r.cfg.HoldInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Drain()
			return ctx.Err()
		case <-ticker.C:
			if r.cfg.LivenessOnly {
				r.probePass(ctx, false)
				r.report()
			} else {
				r.Cycle(ctx)
			}
		}
	}
}

// Drain terminates every tracked worker, best-effort, exactly once. Both the
// loop's shutdown path and the forced-signal path land here; the sync.Once
// and the fleet mutex keep them from racing.
func (r *Reconciler) Drain() {
	r.drainOnce.Do(func() {
		workers := r.fleet.DrainAll()
		if len(workers) == 0 {
			return
		}
		logging.Info().Int("count", len(workers)).Msg("draining fleet")
		for _, w := range workers {
			metrics.Terminations.WithLabelValues("shutdown").Inc()
			if err := w.Terminate(); err != nil {
				logging.Err(err).Str("unit", w.Descriptor.Unit).Msg("drain: worker termination failed")
			}
		}
		metrics.FleetSize.Set(0)
	})
}

// Snapshot builds a read-only status view of configuration and fleet state.
func (r *Reconciler) Snapshot() status.Snapshot {
	now := time.Now()
	workers := r.fleet.Workers()
	snap := status.Snapshot{
		WatchDir:     r.cfg.WatchDir,
		TrackerURL:   r.cfg.TrackerURL,
		PollInterval: r.cfg.PollInterval,
		Descriptors:  r.getLastScan(),
		Tracked:      len(workers),
		TakenAt:      now,
	}
	for _, w := range workers {
		// Handle-tier liveness only: a worker that died since the last
		// probe pass shows dead here even before the cycle drops it.
		snap.Units = append(snap.Units, status.Row{
			Unit:   w.Descriptor.Unit,
			Path:   w.Descriptor.Path,
			PID:    w.PID(),
			Uptime: status.FormatUptime(w.Uptime(now)),
			Alive:  !w.Exited(),
		})
	}
	snap.Finalize()
	return snap
}

// String implements fmt.Stringer for suture's event log.
func (r *Reconciler) String() string {
	if r.cfg.LivenessOnly {
		return "reconciler(liveness-only)"
	}
	return "reconciler"
}

func (r *Reconciler) setLastScan(n int) {
	r.lastScanMu.Lock()
	r.lastScan = n
	r.lastScanMu.Unlock()
}

func (r *Reconciler) getLastScan() int {
	r.lastScanMu.Lock()
	defer r.lastScanMu.Unlock()
	return r.lastScan
}
