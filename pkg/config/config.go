// Package config provides configuration management for datameta.
// It supports multi-layer configuration with precedence:
//  1. Built-in defaults (lowest priority)
//  2. Global user config (~/.config/datameta/config.toml)
//  3. Project config (<root>/.datameta/config.toml or <root>/datameta.toml)
//  4. Environment variables (DATAMETA_*)
//  5. CLI flags (highest priority)
package config

import (
	"fmt"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
)

// Timestamp formats accepted by timestamp_format.
const (
	TimestampLegacy  = "legacy"
	TimestampRFC3339 = "rfc3339"
)

// TimestampFormats lists the accepted timestamp_format values.
var TimestampFormats = []string{TimestampLegacy, TimestampRFC3339}

// Config is the main configuration struct for datameta.
type Config struct {
	// Root overrides the working root. Empty means "parent of the
	// directory holding the executable".
	Root string `toml:"root"`

	// DataDir is the data directory, relative to the root.
	DataDir string `toml:"data_dir"`

	// Manifest is the manifest file name, relative to the root.
	Manifest string `toml:"manifest"`

	// Pattern is a doublestar glob matched against paths relative to DataDir.
	Pattern string `toml:"pattern"`

	// DefaultVersion seeds the version of a freshly created manifest.
	DefaultVersion string `toml:"default_version"`

	// TimestampFormat selects how last_updated is rendered ("legacy" or "rfc3339").
	TimestampFormat string `toml:"timestamp_format"`

	// Watch configures the watch command.
	Watch WatchConfig `toml:"watch"`

	// Output configures console output.
	Output OutputConfig `toml:"output"`
}

// WatchConfig holds watch-mode settings.
type WatchConfig struct {
	// DebounceMS is the quiet window before a re-run, in milliseconds.
	DebounceMS int `toml:"debounce_ms"`
}

// OutputConfig holds console output settings.
type OutputConfig struct {
	// NoColor disables ANSI colors even on a terminal.
	NoColor *bool `toml:"no_color"`
}

// NewConfig creates a new Config with built-in defaults.
func NewConfig() *Config {
	falseVal := false
	return &Config{
		DataDir:         "data",
		Manifest:        "metadata.json",
		Pattern:         "**/*.json",
		DefaultVersion:  "0.0.0",
		TimestampFormat: TimestampLegacy,
		Watch: WatchConfig{
			DebounceMS: 500,
		},
		Output: OutputConfig{
			NoColor: &falseVal,
		},
	}
}

// Merge merges another config into this one (other takes precedence).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Root != "" {
		c.Root = other.Root
	}
	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}
	if other.Manifest != "" {
		c.Manifest = other.Manifest
	}
	if other.Pattern != "" {
		c.Pattern = other.Pattern
	}
	if other.DefaultVersion != "" {
		c.DefaultVersion = other.DefaultVersion
	}
	if other.TimestampFormat != "" {
		c.TimestampFormat = other.TimestampFormat
	}
	if other.Watch.DebounceMS != 0 {
		c.Watch.DebounceMS = other.Watch.DebounceMS
	}
	if other.Output.NoColor != nil {
		c.Output.NoColor = other.Output.NoColor
	}
}

// NoColor reports whether colored output is disabled.
func (c *Config) NoColor() bool {
	return c.Output.NoColor != nil && *c.Output.NoColor
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if !filepath.IsLocal(c.DataDir) {
		return fmt.Errorf("data_dir %q must be a relative path inside the root", c.DataDir)
	}
	if !filepath.IsLocal(c.Manifest) {
		return fmt.Errorf("manifest %q must be a relative path inside the root", c.Manifest)
	}
	if !doublestar.ValidatePattern(c.Pattern) {
		return fmt.Errorf("invalid pattern %q", c.Pattern)
	}
	if !slices.Contains(TimestampFormats, c.TimestampFormat) {
		return fmt.Errorf("unknown timestamp_format %q (want one of %v)", c.TimestampFormat, TimestampFormats)
	}
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch.debounce_ms must not be negative, got %d", c.Watch.DebounceMS)
	}
	return nil
}
