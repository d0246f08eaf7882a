// Seedwarden - Descriptor-Driven Seeder Fleet Supervisor
// Copyright 2026 Seedwarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/seedwarden/seedwarden

// Package api exposes the supervisor's optional operational HTTP endpoint:
// a health check, a read-only status snapshot, and Prometheus metrics. It is
// disabled unless an address is configured; it serves operators, not the
// descriptor catalog (which is out of this supervisor's scope).
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seedwarden/seedwarden/internal/logging"
	"github.com/seedwarden/seedwarden/internal/status"
)

// SnapshotFunc returns the current status snapshot.
// Satisfied by (*supervisor.Reconciler).Snapshot.
type SnapshotFunc func() status.Snapshot

// NewRouter builds the operational endpoint's routes.
func NewRouter(snapshot SnapshotFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", handleHealth)
	r.Get("/api/status", handleStatus(snapshot))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func handleStatus(snapshot SnapshotFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		body, err := snapshot().JSON()
		if err != nil {
			logging.Err(err).Msg("status snapshot encoding failed")
			http.Error(w, "snapshot encoding failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}
