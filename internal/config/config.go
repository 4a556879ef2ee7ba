// ============================================================================
// METADATA
// ============================================================================
// Configuration Management - clc Compiler
//
// Purpose: Load optional compiler settings from clc.toml. Loads from the
// path resolved by Resolve() and provides graceful fallback to hardcoded
// defaults when configuration is unavailable or invalid.
//
// Core Design: attempt config load, gracefully degrade to defaults on any
// failure, never block compilation.
//
// Dependencies:
//   External: github.com/BurntSushi/toml (TOML parsing for clc.toml)
//
// ============================================================================
// SETUP
// ============================================================================
package config

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// Config is the full set of compiler settings loadable from clc.toml.
type Config struct {
	Diagnostics DiagnosticsConfig `toml:"diagnostics"`
	Target      TargetConfig      `toml:"target"`
	Trace       TraceConfig       `toml:"trace"`
}

type DiagnosticsConfig struct {
	Color           bool `toml:"color"`
	VerboseWarnings bool `toml:"verbose_warnings"`
}

type TargetConfig struct {
	// WSLExitCodes overrides the $WSLENV auto-detection from spec §6.3 when
	// explicitly set in clc.toml. Nil-vs-unset is modeled with a pointer so
	// "absent" and "false" are distinguishable.
	WSLExitCodes *bool `toml:"wsl_exit_codes"`
}

type TraceConfig struct {
	Enabled     bool   `toml:"enabled"`
	Level       string `toml:"level"`       // "info" | "debug"
	Destination string `toml:"destination"` // "stderr" | a file path
}

// ============================================================================
// BODY
// ============================================================================

var (
	loaded     *Config
	loadedFrom string
	loadOnce   sync.Once
)

// Resolve finds the configuration file path, in priority order: explicit
// flag value, $CLC_CONFIG, then ~/.config/clc/clc.toml. An empty result
// means no candidate exists; Load treats that the same as a missing file.
func Resolve(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if env := os.Getenv("CLC_CONFIG"); env != "" {
		return env
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "clc", "clc.toml")
	}
	return ""
}

// Load reads path (as resolved by Resolve) and returns a Config. Any
// failure to find or parse the file is non-fatal: Load silently falls back
// to Defaults() and reports Loaded()==false. Load is idempotent per
// process: the first call's path wins for the lifetime of the program.
func Load(path string) *Config {
	loadOnce.Do(func() {
		cfg := Defaults()
		if path != "" {
			if _, err := toml.DecodeFile(path, cfg); err == nil {
				loadedFrom = path
			}
		}
		loaded = cfg
	})
	return loaded
}

// Loaded reports whether the last Load call successfully decoded a file,
// as opposed to falling back to defaults.
func Loaded() bool { return loadedFrom != "" }

// Defaults returns the hardcoded fallback configuration. These values
// reproduce spec.md's behavior exactly when no clc.toml is present: color
// off (the CLI layer enables it only on a detected TTY), verbose warnings
// on, WSL detection left to the environment ($WSLENV autodetection, hence
// the nil pointer), and trace disabled.
func Defaults() *Config {
	return &Config{
		Diagnostics: DiagnosticsConfig{
			Color:           false,
			VerboseWarnings: true,
		},
		Target: TargetConfig{
			WSLExitCodes: nil,
		},
		Trace: TraceConfig{
			Enabled:     false,
			Level:       "info",
			Destination: "stderr",
		},
	}
}

// ============================================================================
// CLOSING
// ============================================================================
// Library package (no entry point). Import: "clc/internal/config"
