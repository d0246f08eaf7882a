// Seedwarden - Descriptor-Driven Seeder Fleet Supervisor
// Copyright 2026 Seedwarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/seedwarden/seedwarden

// Package main is the seedwarden supervisor binary.
//
// Seedwarden keeps one seeder worker process alive per descriptor file in a
// watched directory. Dropping a .torrent file into the directory launches a
// worker for it; deleting the file terminates the worker; a worker that dies
// while its descriptor persists is relaunched on the next poll. The worker
// command is an argv template and the transfer protocol itself lives
// entirely in the worker.
//
// # Modes
//
//	seedwarden                          # reconcile forever (default)
//	seedwarden --status                 # print a read-only snapshot, exit
//	seedwarden --launch-existing-only   # one launch pass, then liveness-only hold
//
// # Configuration
//
// Layered, highest priority last: built-in defaults, YAML config file
// (SEEDWARDEN_CONFIG or ./seedwarden.yaml or /etc/seedwarden/config.yaml),
// SEEDWARDEN_* environment variables, CLI flags.
//
// # Signals
//
// SIGINT/SIGTERM start a graceful shutdown: the in-flight cycle finishes,
// every tracked worker is terminated, then the process exits 0. A second
// signal forces the drain immediately and exits 2.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/seedwarden/seedwarden/internal/api"
	"github.com/seedwarden/seedwarden/internal/config"
	"github.com/seedwarden/seedwarden/internal/descriptor"
	"github.com/seedwarden/seedwarden/internal/logging"
	"github.com/seedwarden/seedwarden/internal/probe"
	"github.com/seedwarden/seedwarden/internal/status"
	"github.com/seedwarden/seedwarden/internal/supervisor"
	"github.com/seedwarden/seedwarden/internal/supervisor/services"
	"github.com/seedwarden/seedwarden/internal/worker"
)

func main() {
	flags := flag.NewFlagSet("seedwarden", flag.ExitOnError)
	var (
		watchDir      = flags.String("watch-dir", "~/.ollama/models", "directory to watch for descriptor files")
		tracker       = flags.String("tracker", "", "tracker URL override forwarded to workers")
		pollInterval  = flags.Duration("poll-interval", 10*time.Second, "sleep between reconciliation cycles")
		holdInterval  = flags.Duration("hold-interval", 5*time.Second, "sleep between probes in launch-existing-only mode")
		warmup        = flags.Duration("warmup", 2*time.Second, "pause after each launch before the first liveness check")
		workerCommand = flags.String("worker-command", "seedwarden-worker --file {file}", "worker argv template, {file} is the descriptor path")
		httpAddr      = flags.String("http-addr", "", "listen address for the status/metrics endpoint (empty = disabled)")
		logLevel      = flags.String("log-level", "", "log level: debug, info, warn, error")
		logFormat     = flags.String("log-format", "", "log format: json or console")
		configPath    = flags.String("config", "", "config file path (also SEEDWARDEN_CONFIG)")
		statusOnly    = flags.Bool("status", false, "print a status snapshot and exit")
		launchOnly    = flags.Bool("launch-existing-only", false, "launch existing descriptors, then hold without re-scanning")
	)
	if err := flags.Parse(os.Args[1:]); err != nil {
		logging.Fatal().Err(err).Msg("failed to parse flags")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Flags beat every other configuration layer.
	if flags.Changed("watch-dir") {
		cfg.WatchDir = *watchDir
	}
	if flags.Changed("tracker") {
		cfg.TrackerURL = *tracker
	}
	if flags.Changed("poll-interval") {
		cfg.PollInterval = *pollInterval
	}
	if flags.Changed("hold-interval") {
		cfg.HoldInterval = *holdInterval
	}
	if flags.Changed("warmup") {
		cfg.Warmup = *warmup
	}
	if flags.Changed("worker-command") {
		cfg.WorkerCommand = *workerCommand
	}
	if flags.Changed("http-addr") {
		cfg.HTTPAddr = *httpAddr
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = *logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = *logFormat
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	if err := cfg.ResolveWatchDir(); err != nil {
		logging.Fatal().Err(err).Msg("cannot resolve watch directory")
	}
	if err := cfg.Validate(); err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}

	if *statusOnly {
		if err := printStatus(cfg); err != nil {
			logging.Fatal().Err(err).Msg("status query failed")
		}
		return
	}

	run(cfg, *launchOnly)
}

// printStatus renders a read-only snapshot: the descriptors on disk plus,
// for each, whether any process in the table appears to be seeding it. It
// never launches or terminates anything.
func printStatus(cfg *config.Config) error {
	descriptors, err := descriptor.Scan(cfg.WatchDir)
	if err != nil {
		return err
	}

	table := probe.NewProcessTable()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snap := status.Snapshot{
		WatchDir:     cfg.WatchDir,
		TrackerURL:   cfg.TrackerURL,
		PollInterval: cfg.PollInterval,
		Descriptors:  len(descriptors),
		TakenAt:      time.Now(),
	}
	for _, desc := range descriptors {
		alive, err := table.MatchesPath(ctx, desc.Path)
		if err != nil {
			logging.Warn().Err(err).Str("unit", desc.Unit).Msg("process table query failed")
		}
		if alive {
			snap.Tracked++
		}
		snap.Units = append(snap.Units, status.Row{
			Unit:  desc.Unit,
			Path:  desc.Path,
			Alive: alive,
		})
	}
	snap.Finalize()
	fmt.Print(snap.Text())
	return nil
}

// run builds the component graph and blocks until shutdown.
func run(cfg *config.Config, launchOnly bool) {
	logging.Info().
		Str("dir", cfg.WatchDir).
		Dur("poll_interval", cfg.PollInterval).
		Bool("launch_existing_only", launchOnly).
		Msg("starting seedwarden")
	if cfg.TrackerURL != "" {
		logging.Info().Str("tracker", cfg.TrackerURL).Msg("tracker override active")
	}

	launcher := worker.NewLauncher(worker.LauncherConfig{
		Command:    cfg.Command(),
		TrackerURL: cfg.TrackerURL,
		Warmup:     cfg.Warmup,
	})
	prober := probe.NewChain(probe.Handle{}, probe.NewProcessTable())
	reconciler := supervisor.NewReconciler(supervisor.ReconcilerConfig{
		WatchDir:      cfg.WatchDir,
		TrackerURL:    cfg.TrackerURL,
		PollInterval:  cfg.PollInterval,
		HoldInterval:  cfg.HoldInterval,
		LaunchStagger: cfg.LaunchStagger,
		LivenessOnly:  launchOnly,
		Scan:          descriptor.Scan,
		Launcher:      launcher,
		Prober:        prober,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// First signal: cancel and let the tree drain. Second signal: force the
	// drain from here and exit without waiting on the loop. Installed before
	// the initial pass so a staggered launch of many descriptors is
	// interruptible.
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()

		sig = <-sigCh
		logging.Warn().Str("signal", sig.String()).Msg("forced shutdown")
		reconciler.Drain()
		os.Exit(2)
	}()

	// Pick up the existing fleet before the periodic loop starts, so a
	// directory full of descriptors is seeding immediately rather than one
	// poll interval from now.
	if err := reconciler.InitialPass(ctx); err != nil {
		logging.Err(err).Msg("initial launch pass failed, continuing to periodic loop")
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{})
	tree.AddControlService(reconciler)

	if cfg.HTTPAddr != "" {
		server := &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      api.NewRouter(reconciler.Snapshot),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		tree.AddAPIService(services.NewHTTPService(server, 10*time.Second))
		logging.Info().Str("addr", cfg.HTTPAddr).Msg("status endpoint enabled")
	}

	// ServeBackground delivers exactly one terminal error and never closes
	// the channel, so a single receive is the whole wait.
	errCh := tree.ServeBackground(ctx)
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		logging.Err(err).Msg("supervision tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("service failed to stop within timeout")
	}

	// The reconciler drains on context cancellation; this is a no-op unless
	// the loop never got that far.
	reconciler.Drain()
	logging.Info().Msg("seedwarden stopped")
}
