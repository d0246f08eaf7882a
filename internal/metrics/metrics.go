// Seedwarden - Descriptor-Driven Seeder Fleet Supervisor
// Copyright 2026 Seedwarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/seedwarden/seedwarden

// Package metrics provides Prometheus instrumentation for the supervisor:
// reconciliation cycle timing, launch/termination counters, probe outcomes,
// and the current fleet size. Exposed on the optional HTTP endpoint.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FleetSize is the number of currently tracked workers.
	FleetSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seedwarden_fleet_size",
			Help: "Number of currently tracked worker processes",
		},
	)

	// DescriptorsSeen is the size of the last scan result.
	DescriptorsSeen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "seedwarden_descriptors_seen",
			Help: "Number of descriptor files found by the last scan",
		},
	)

	// Launches counts worker launch attempts by outcome.
	Launches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seedwarden_launches_total",
			Help: "Total worker launch attempts",
		},
		[]string{"outcome"}, // "ok", "error"
	)

	// Terminations counts worker terminations by reason.
	Terminations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "seedwarden_terminations_total",
			Help: "Total worker terminations requested by the supervisor",
		},
		[]string{"reason"}, // "removed", "shutdown"
	)

	// ProbeDead counts workers found dead by the liveness prober.
	ProbeDead = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seedwarden_probe_dead_total",
			Help: "Total workers observed dead by the liveness prober",
		},
	)

	// ScanErrors counts failed directory scans.
	ScanErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seedwarden_scan_errors_total",
			Help: "Total descriptor directory scans that failed",
		},
	)

	// CycleDuration observes reconciliation cycle latency.
	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "seedwarden_cycle_duration_seconds",
			Help:    "Duration of one reconciliation cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// ObserveCycle records one reconciliation cycle's duration.
func ObserveCycle(start time.Time) {
	CycleDuration.Observe(time.Since(start).Seconds())
}

// RecordLaunch records a launch attempt.
func RecordLaunch(err error) {
	if err != nil {
		Launches.WithLabelValues("error").Inc()
		return
	}
	Launches.WithLabelValues("ok").Inc()
}
