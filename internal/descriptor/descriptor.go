// Seedwarden - Descriptor-Driven Seeder Fleet Supervisor
// Copyright 2026 Seedwarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/seedwarden/seedwarden

// Package descriptor discovers descriptor files in the watched directory and
// resolves their unit names.
//
// A descriptor is identified by its absolute path; the file content is opaque
// to the supervisor and consumed only by the worker process. The unit name is
// a display-only label derived from the filename and is never used as a state
// key, since two paths can resolve to the same name.
package descriptor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Suffix is the filename suffix that marks a file as a descriptor.
const Suffix = ".torrent"

// Descriptor is one discovered descriptor file.
type Descriptor struct {
	// Path is the absolute file path and the identity of the descriptor.
	Path string

	// Unit is the human-meaningful name derived from the filename.
	Unit string
}

// UnitName derives the unit name from a descriptor path: the basename with
// the suffix stripped and every underscore mapped back to a colon. Model
// tags contain colons, which are not portable in filenames, so descriptor
// files are written with underscores substituted; this reverses that.
func UnitName(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), Suffix)
	return strings.ReplaceAll(name, "_", ":")
}

// Scan returns the descriptors currently present in dir, matched by Suffix.
// A missing directory yields an empty result and no error, so the supervisor
// can be started before the watched directory exists. No ordering guarantee.
func Scan(dir string) ([]Descriptor, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}

	var found []Descriptor
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Suffix) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		found = append(found, Descriptor{Path: path, Unit: UnitName(path)})
	}
	return found, nil
}
