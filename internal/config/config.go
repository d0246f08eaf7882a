// Seedwarden - Descriptor-Driven Seeder Fleet Supervisor
// Copyright 2026 Seedwarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/seedwarden/seedwarden

// Package config loads supervisor configuration with layered sources,
// highest priority last:
//
//  1. Built-in defaults
//  2. YAML config file (optional; SEEDWARDEN_CONFIG or default paths)
//  3. SEEDWARDEN_* environment variables
//  4. CLI flags (applied by cmd/seedwarden on top of Load's result)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"seedwarden.yaml",
	"seedwarden.yml",
	"/etc/seedwarden/config.yaml",
	"/etc/seedwarden/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "SEEDWARDEN_CONFIG"

// envPrefix namespaces all environment overrides.
const envPrefix = "SEEDWARDEN_"

// LoggingConfig configures the log stream.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is json or console.
	Format string `koanf:"format"`
}

// Config is the full supervisor configuration.
type Config struct {
	// WatchDir is the directory scanned for descriptor files. A leading
	// "~" is expanded to the user's home directory.
	WatchDir string `koanf:"watch_dir"`

	// TrackerURL optionally overrides the tracker embedded in descriptors;
	// forwarded to workers as "--tracker <url>" when set.
	TrackerURL string `koanf:"tracker_url"`

	// PollInterval is the sleep between reconciliation cycles.
	PollInterval time.Duration `koanf:"poll_interval"`

	// HoldInterval is the sleep between liveness-only passes in
	// launch-existing-only mode.
	HoldInterval time.Duration `koanf:"hold_interval"`

	// Warmup is the post-launch pause before the first liveness check.
	Warmup time.Duration `koanf:"warmup"`

	// LaunchStagger paces the initial launch pass. Zero disables pacing.
	LaunchStagger time.Duration `koanf:"launch_stagger"`

	// WorkerCommand is the worker argv template as a single string, split
	// on whitespace. "{file}" is replaced by the descriptor path.
	WorkerCommand string `koanf:"worker_command"`

	// HTTPAddr enables the operational endpoint when non-empty
	// (e.g. "127.0.0.1:9915").
	HTTPAddr string `koanf:"http_addr"`

	Logging LoggingConfig `koanf:"logging"`
}

// defaultConfig returns built-in defaults, matched to the origin deployment:
// a 10s reconcile poll, 5s hold-mode probe, 2s warm-up, 1s launch stagger.
func defaultConfig() *Config {
	return &Config{
		WatchDir:      "~/.ollama/models",
		TrackerURL:    "",
		PollInterval:  10 * time.Second,
		HoldInterval:  5 * time.Second,
		Warmup:        2 * time.Second,
		LaunchStagger: time.Second,
		WorkerCommand: "seedwarden-worker --file {file}",
		HTTPAddr:      "",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration from defaults, the optional config file, and
// environment variables. Flag overrides are the caller's concern.
//
// An explicit non-empty path wins over SEEDWARDEN_CONFIG and the default
// search paths, and missing that file is an error rather than a silent skip.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps environment variable names to koanf paths:
//
//	SEEDWARDEN_WATCH_DIR  -> watch_dir
//	SEEDWARDEN_LOG_LEVEL  -> logging.level
//	SEEDWARDEN_LOG_FORMAT -> logging.format
//
// Top-level keys keep their underscores; only the logging group nests.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	switch key {
	case "log_level":
		return "logging.level"
	case "log_format":
		return "logging.format"
	case "config":
		// Consumed by findConfigFile, not a config key.
		return ""
	default:
		return key
	}
}

// Command returns the worker argv template split on whitespace.
func (c *Config) Command() []string {
	return strings.Fields(c.WorkerCommand)
}

// ResolveWatchDir expands "~" and makes WatchDir absolute, mutating the
// config. Failure here is startup-fatal: without a resolvable watch dir the
// supervisor has no desired state to reconcile against.
func (c *Config) ResolveWatchDir() error {
	dir := c.WatchDir
	if dir == "" {
		return errors.New("watch dir is empty")
	}
	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve watch dir %s: %w", dir, err)
	}
	c.WatchDir = abs
	return nil
}

// Validate checks invariants the rest of the system assumes.
func (c *Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.HoldInterval <= 0 {
		return fmt.Errorf("hold interval must be positive, got %s", c.HoldInterval)
	}
	if c.Warmup < 0 {
		return fmt.Errorf("warmup must not be negative, got %s", c.Warmup)
	}
	if c.LaunchStagger < 0 {
		return fmt.Errorf("launch stagger must not be negative, got %s", c.LaunchStagger)
	}
	if len(c.Command()) == 0 {
		return errors.New("worker command is empty")
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
