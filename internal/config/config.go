// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/chatexport/internal/model"
	"github.com/jeranaias/chatexport/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete chatexport configuration.
type Config struct {
	// Store configuration
	Store StoreConfig `toml:"store" json:"store"`

	// Export configuration
	Export ExportConfig `toml:"export" json:"export"`

	// Log configuration
	Log LogConfig `toml:"log" json:"log"`
}

// StoreConfig locates the decrypted message database.
type StoreConfig struct {
	// Path is the SQLite database file.
	Path string `toml:"path" json:"path"`

	// ReportEvery is how many rows are scanned between progress callbacks.
	ReportEvery int `toml:"report_every" json:"report_every"`
}

// ExportConfig contains export job defaults.
type ExportConfig struct {
	// Format is one of json, html, xlsx, sql.
	Format string `toml:"format" json:"format"`

	// OutputDir receives the exported files. Created if missing.
	OutputDir string `toml:"output_dir" json:"output_dir"`

	// Streaming asks encoders to write incrementally.
	Streaming bool `toml:"streaming" json:"streaming"`

	// ThrottleMs is the minimum spacing of progress events (-1 disables).
	ThrottleMs int `toml:"throttle_ms" json:"throttle_ms"`

	// Buffer is the worker event channel capacity.
	Buffer int `toml:"buffer" json:"buffer"`

	// HTMLTheme is "light" or "dark".
	HTMLTheme string `toml:"html_theme" json:"html_theme"`

	// PrettyJSON indents non-streaming JSON output.
	PrettyJSON bool `toml:"pretty_json" json:"pretty_json"`
}

// LogConfig controls logrus output.
type LogConfig struct {
	// Level is a logrus level name (debug, info, warn, error).
	Level string `toml:"level" json:"level"`

	// Format is "text" or "json".
	Format string `toml:"format" json:"format"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Path:        "",
			ReportEvery: 200,
		},

		Export: ExportConfig{
			Format:     string(model.FormatJSON),
			OutputDir:  "exports",
			Streaming:  false,
			ThrottleMs: 120,
			Buffer:     64,
			HTMLTheme:  "dark",
			PrettyJSON: true,
		},

		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ThrottleInterval converts ThrottleMs to the worker's interval convention:
// negative disables throttling.
func (e ExportConfig) ThrottleInterval() time.Duration {
	if e.ThrottleMs < 0 {
		return -1
	}
	return time.Duration(e.ThrottleMs) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the chatexport configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".chatexport"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads ~/.chatexport/config.toml when it exists, then applies
// environment overrides, defaults and validation.
func Load() (*Config, error) {
	path, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes path over cfg. Keys absent from the file keep cfg's values.
func LoadTOML(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes cfg to path as TOML, atomically.
func Save(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# chatexport configuration file\n")
	buf.WriteString("# Environment overrides: CHATEXPORT_DB, CHATEXPORT_OUT, CHATEXPORT_FORMAT, CHATEXPORT_LOG_LEVEL\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Store.ReportEvery < 0 {
		errs = append(errs, ValidationError{
			Field:   "store.report_every",
			Message: fmt.Sprintf("must be >= 0, got %d", c.Store.ReportEvery),
		})
	}

	if f := model.ParseFormat(c.Export.Format); !f.Known() {
		errs = append(errs, ValidationError{
			Field:   "export.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: json, html, xlsx, sql", c.Export.Format),
		})
	}
	if c.Export.ThrottleMs < -1 {
		errs = append(errs, ValidationError{
			Field:   "export.throttle_ms",
			Message: fmt.Sprintf("must be -1 (disabled) or >= 0, got %d", c.Export.ThrottleMs),
		})
	}
	if c.Export.Buffer < 0 {
		errs = append(errs, ValidationError{
			Field:   "export.buffer",
			Message: fmt.Sprintf("must be >= 0, got %d", c.Export.Buffer),
		})
	}
	switch strings.ToLower(c.Export.HTMLTheme) {
	case "light", "dark":
	default:
		errs = append(errs, ValidationError{
			Field:   "export.html_theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: light, dark", c.Export.HTMLTheme),
		})
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s'", c.Log.Level),
		})
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: text, json", c.Log.Format),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value configuration fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Store.ReportEvery == 0 {
		c.Store.ReportEvery = defaults.Store.ReportEvery
	}

	if c.Export.Format == "" {
		c.Export.Format = defaults.Export.Format
	}
	c.Export.Format = string(model.ParseFormat(c.Export.Format))
	if c.Export.OutputDir == "" {
		c.Export.OutputDir = defaults.Export.OutputDir
	}
	if c.Export.Buffer == 0 {
		c.Export.Buffer = defaults.Export.Buffer
	}
	if c.Export.HTMLTheme == "" {
		c.Export.HTMLTheme = defaults.Export.HTMLTheme
	}
	c.Export.HTMLTheme = strings.ToLower(c.Export.HTMLTheme)

	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - CHATEXPORT_DB: overrides store.path
//   - CHATEXPORT_OUT: overrides export.output_dir
//   - CHATEXPORT_FORMAT: overrides export.format
//   - CHATEXPORT_STREAMING: set to "1" or "true" to enable streaming
//   - CHATEXPORT_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if db := os.Getenv("CHATEXPORT_DB"); db != "" {
		c.Store.Path = db
	}
	if out := os.Getenv("CHATEXPORT_OUT"); out != "" {
		c.Export.OutputDir = out
	}
	if format := os.Getenv("CHATEXPORT_FORMAT"); format != "" {
		c.Export.Format = format
	}
	if streaming := os.Getenv("CHATEXPORT_STREAMING"); streaming != "" {
		on, err := strconv.ParseBool(streaming)
		c.Export.Streaming = err == nil && on
	}
	if level := os.Getenv("CHATEXPORT_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the configuration as indented JSON for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
