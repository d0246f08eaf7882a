// Seedwarden - Descriptor-Driven Seeder Fleet Supervisor
// Copyright 2026 Seedwarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/seedwarden/seedwarden

package descriptor

import (
	"os"
	"path/filepath"
	"testing"
)

func TestUnitName(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"plain name", "/models/modelA.torrent", "modelA"},
		{"underscore maps to colon", "/models/llama3_8b.torrent", "llama3:8b"},
		{"multiple underscores", "/models/org_repo_tag.torrent", "org:repo:tag"},
		{"no suffix", "/models/modelA", "modelA"},
		{"relative path", "modelB.torrent", "modelB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnitName(tt.path); got != tt.want {
				t.Errorf("UnitName(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestUnitNameDeterministic(t *testing.T) {
	path := "/models/llama3_8b.torrent"
	first := UnitName(path)
	for i := 0; i < 100; i++ {
		if got := UnitName(path); got != first {
			t.Fatalf("UnitName not stable: %q then %q", first, got)
		}
	}
}

func TestScan(t *testing.T) {
	t.Run("missing directory returns empty set", func(t *testing.T) {
		found, err := Scan(filepath.Join(t.TempDir(), "does-not-exist"))
		if err != nil {
			t.Fatalf("Scan on missing dir: %v", err)
		}
		if len(found) != 0 {
			t.Errorf("expected empty set, got %d descriptors", len(found))
		}
	})

	t.Run("matches only descriptor suffix", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "modelA.torrent")
		writeFile(t, dir, "modelB.torrent")
		writeFile(t, dir, "notes.txt")
		writeFile(t, dir, "manifest.json")

		found, err := Scan(dir)
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		if len(found) != 2 {
			t.Fatalf("expected 2 descriptors, got %d", len(found))
		}
		units := map[string]bool{}
		for _, d := range found {
			units[d.Unit] = true
			if !filepath.IsAbs(d.Path) && filepath.Dir(d.Path) != dir {
				t.Errorf("descriptor path %q not rooted in scan dir", d.Path)
			}
		}
		if !units["modelA"] || !units["modelB"] {
			t.Errorf("unexpected unit set: %v", units)
		}
	})

	t.Run("ignores subdirectories", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.Mkdir(filepath.Join(dir, "nested.torrent"), 0o755); err != nil {
			t.Fatal(err)
		}
		found, err := Scan(dir)
		if err != nil {
			t.Fatalf("Scan: %v", err)
		}
		if len(found) != 0 {
			t.Errorf("expected directories to be skipped, got %v", found)
		}
	})

	t.Run("rescans see added and removed files", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "modelA.torrent")

		found, err := Scan(dir)
		if err != nil || len(found) != 1 {
			t.Fatalf("first scan: %v, %d descriptors", err, len(found))
		}

		writeFile(t, dir, "modelB.torrent")
		if err := os.Remove(filepath.Join(dir, "modelA.torrent")); err != nil {
			t.Fatal(err)
		}

		found, err = Scan(dir)
		if err != nil {
			t.Fatalf("second scan: %v", err)
		}
		if len(found) != 1 || found[0].Unit != "modelB" {
			t.Errorf("expected [modelB], got %v", found)
		}
	})
}

func writeFile(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}
