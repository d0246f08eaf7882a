// Seedwarden - Descriptor-Driven Seeder Fleet Supervisor
// Copyright 2026 Seedwarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/seedwarden/seedwarden

package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/seedwarden/seedwarden/internal/status"
)

func testSnapshot() status.Snapshot {
	snap := status.Snapshot{
		WatchDir:     "/srv/descriptors",
		PollInterval: 10 * time.Second,
		Descriptors:  2,
		Tracked:      1,
		TakenAt:      time.Now(),
		Units: []status.Row{
			{Unit: "modelA", Path: "/srv/descriptors/modelA.torrent", PID: 42, Alive: true},
		},
	}
	snap.Finalize()
	return snap
}

func TestRouter(t *testing.T) {
	router := NewRouter(testSnapshot)

	t.Run("healthz", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
		if body := rec.Body.String(); body != "ok\n" {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("status snapshot", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}

		var snap status.Snapshot
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		if snap.Tracked != 1 || snap.Descriptors != 2 {
			t.Errorf("snapshot = %+v", snap)
		}
		if len(snap.Units) != 1 || snap.Units[0].Unit != "modelA" {
			t.Errorf("units = %+v", snap.Units)
		}
	})

	t.Run("metrics endpoint responds", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "go_goroutines") {
			t.Error("expected Prometheus exposition output")
		}
	})

	t.Run("unknown route is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/models", nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})
}
