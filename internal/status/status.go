// Seedwarden - Descriptor-Driven Seeder Fleet Supervisor
// Copyright 2026 Seedwarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/seedwarden/seedwarden

// Package status renders read-only snapshots of the supervisor's state for
// operators: aligned text for the CLI, JSON for the HTTP endpoint. Building
// a snapshot has no side effects on supervisor state.
package status

import (
	"fmt"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// Row describes one unit in a snapshot.
type Row struct {
	Unit   string `json:"unit"`
	Path   string `json:"path"`
	PID    int    `json:"pid,omitempty"`
	Uptime string `json:"uptime,omitempty"`
	Alive  bool   `json:"alive"`
}

// Snapshot is a point-in-time view of configuration and fleet state.
type Snapshot struct {
	WatchDir     string        `json:"watch_dir"`
	TrackerURL   string        `json:"tracker_url,omitempty"`
	PollInterval time.Duration `json:"-"`
	PollSeconds  float64       `json:"poll_interval_seconds"`
	Descriptors  int           `json:"descriptors"`
	Tracked      int           `json:"tracked"`
	TakenAt      time.Time     `json:"taken_at"`
	Units        []Row         `json:"units"`
}

// Finalize derives serialized fields and orders units by name. Call after
// populating the snapshot, before rendering.
func (s *Snapshot) Finalize() {
	s.PollSeconds = s.PollInterval.Seconds()
	sort.Slice(s.Units, func(i, j int) bool { return s.Units[i].Unit < s.Units[j].Unit })
}

// Text renders the snapshot as a human-readable summary.
func (s Snapshot) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "watch dir:      %s\n", s.WatchDir)
	if s.TrackerURL != "" {
		fmt.Fprintf(&b, "tracker:        %s\n", s.TrackerURL)
	}
	fmt.Fprintf(&b, "poll interval:  %s\n", s.PollInterval)
	fmt.Fprintf(&b, "descriptors:    %d\n", s.Descriptors)
	fmt.Fprintf(&b, "tracked:        %d\n", s.Tracked)
	if len(s.Units) == 0 {
		return b.String()
	}
	b.WriteString("units:\n")
	for _, row := range s.Units {
		state := "dead"
		if row.Alive {
			state = "alive"
		}
		fmt.Fprintf(&b, "  %-30s %-5s", row.Unit, state)
		if row.PID > 0 {
			fmt.Fprintf(&b, " pid=%d", row.PID)
		}
		if row.Uptime != "" {
			fmt.Fprintf(&b, " up=%s", row.Uptime)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// JSON renders the snapshot for the HTTP status endpoint.
func (s Snapshot) JSON() ([]byte, error) {
	return json.Marshal(s)
}

// FormatUptime renders a duration as a compact uptime string, truncated to
// seconds.
func FormatUptime(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return d.Truncate(time.Second).String()
}
