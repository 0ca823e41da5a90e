// Package config loads beadsync's project-level configuration: the
// per-project `.beads/config.yaml` (sync behavior) and an optional
// toolchain-level `beadsync.toml` (paths and defaults), mirroring the
// dual-format posture of the wider example corpus.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/beadsync/beadsync/internal/mirror"
	"github.com/beadsync/beadsync/internal/report"
	"github.com/beadsync/beadsync/internal/sync"
)

// Config is the view of `.beads/config.yaml` over built-in defaults, used
// to build every component's options. No environment variables are read.
type Config struct {
	ConflictStrategy    string `yaml:"conflict_strategy"`
	Direction           string `yaml:"direction"`
	DebounceMS          int    `yaml:"debounce_ms"`
	ConflictWindowHours int    `yaml:"conflict_window_hours"`
	FilenamePattern     string `yaml:"filename_pattern"`
	SeparateClosed      bool   `yaml:"separate_closed"`
	CompletedLimit      int    `yaml:"completed_limit"`
	IncludeCompleted    bool   `yaml:"include_completed"`
	MirrorStrategy      string `yaml:"mirror_strategy"`
}

// Defaults returns the configuration used when no config.yaml exists or a
// key is left unset, matching the documented defaults throughout spec.md.
func Defaults() Config {
	return Config{
		ConflictStrategy:    "newest-wins",
		Direction:           "bidirectional",
		DebounceMS:          300,
		ConflictWindowHours: 24,
		FilenamePattern:     "[yyyy-mm-dd] [Title].md",
		SeparateClosed:      true,
		CompletedLimit:      10,
		IncludeCompleted:    true,
		MirrorStrategy:      "newest-wins",
	}
}

// Load reads `<root>/.beads/config.yaml`, overlaying its values onto
// Defaults(). A missing file is not an error — Defaults() alone is
// returned.
func Load(root string) (Config, error) {
	cfg := Defaults()

	path := filepath.Join(root, ".beads", "config.yaml")
	data, err := os.ReadFile(path) // #nosec G304 -- root is operator-supplied, not attacker input
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ToolchainConfig is the optional project-root `beadsync.toml`, for
// settings that apply across every `.beads` root a toolchain invocation
// might touch (template directory, preset name).
type ToolchainConfig struct {
	TemplateDir string `toml:"template_dir"`
	Preset      string `toml:"preset"`
}

// LoadToolchain reads `<root>/beadsync.toml`. A missing file yields a
// zero-value ToolchainConfig, not an error.
func LoadToolchain(root string) (ToolchainConfig, error) {
	var tc ToolchainConfig
	path := filepath.Join(root, "beadsync.toml")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return tc, nil
	}
	if _, err := toml.DecodeFile(path, &tc); err != nil {
		return tc, fmt.Errorf("parse %s: %w", path, err)
	}
	return tc, nil
}

// SyncOptions converts Config into the sync engine's Options, applying the
// documented default substitutions for zero values.
func (c Config) SyncOptions() sync.Options {
	pattern := c.FilenamePattern
	if pattern == "" {
		pattern = "[yyyy-mm-dd] [Title].md"
	}
	return sync.Options{
		Strategy:       sync.Strategy(orDefault(c.ConflictStrategy, "newest-wins")),
		Direction:      sync.Direction(orDefault(c.Direction, "bidirectional")),
		FilePattern:    pattern,
		SeparateClosed: c.SeparateClosed,
	}
}

// ReportOptions converts Config into the report compiler's Options.
func (c Config) ReportOptions() report.Options {
	limit := c.CompletedLimit
	if limit <= 0 {
		limit = 10
	}
	return report.Options{
		CompletedLimit:   limit,
		IncludeCompleted: c.IncludeCompleted,
	}
}

// ConflictWindow converts the configured hour count into a time.Duration,
// defaulting to 24h when unset or non-positive.
func (c Config) ConflictWindow() time.Duration {
	if c.ConflictWindowHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.ConflictWindowHours) * time.Hour
}

// Debounce converts the configured millisecond count into a
// time.Duration, defaulting to 300ms when unset or non-positive.
func (c Config) Debounce() time.Duration {
	if c.DebounceMS <= 0 {
		return 300 * time.Millisecond
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// MirrorStrategyValue converts the configured mirror strategy string into
// the mirror package's Strategy type, defaulting to newest-wins.
func (c Config) MirrorStrategyValue() mirror.Strategy {
	return mirror.Strategy(orDefault(c.MirrorStrategy, "newest-wins"))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
