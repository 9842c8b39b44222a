// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CHATEXPORT_DB", "CHATEXPORT_OUT", "CHATEXPORT_FORMAT", "CHATEXPORT_STREAMING", "CHATEXPORT_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "json", cfg.Export.Format)
	assert.Equal(t, 120*time.Millisecond, cfg.Export.ThrottleInterval())
}

func TestLoadFromPath(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[store]
path = "/data/msg.db"

[export]
format = "HTM"
streaming = true
html_theme = "light"

[log]
level = "debug"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/msg.db", cfg.Store.Path)
	assert.Equal(t, 200, cfg.Store.ReportEvery, "missing keys keep defaults")
	assert.Equal(t, "html", cfg.Export.Format, "format is normalized")
	assert.True(t, cfg.Export.Streaming)
	assert.Equal(t, "light", cfg.Export.HTMLTheme)
	assert.Equal(t, "exports", cfg.Export.OutputDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
}

func TestLoadFromPath_ThemeIsLowercased(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFromPath(writeConfig(t, "[export]\nhtml_theme = \"Light\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "light", cfg.Export.HTMLTheme)
}

func TestLoadFromPath_UnknownKey(t *testing.T) {
	clearEnv(t)
	_, err := LoadFromPath(writeConfig(t, "[export]\nformatt = \"json\"\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export.formatt")
}

func TestLoadFromPath_Invalid(t *testing.T) {
	clearEnv(t)
	_, err := LoadFromPath(writeConfig(t, `
[export]
format = "pdf"
throttle_ms = -5
html_theme = "neon"

[log]
level = "loud"
format = "xml"
`))
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, len(verrs))
	for i, v := range verrs {
		fields[i] = v.Field
	}
	assert.ElementsMatch(t, []string{"export.format", "export.throttle_ms", "export.html_theme", "log.level", "log.format"}, fields)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("CHATEXPORT_DB", "/env/msg.db")
	t.Setenv("CHATEXPORT_OUT", "/env/out")
	t.Setenv("CHATEXPORT_FORMAT", "xlsx")
	t.Setenv("CHATEXPORT_STREAMING", "true")
	t.Setenv("CHATEXPORT_LOG_LEVEL", "warn")

	cfg, err := LoadFromPath(writeConfig(t, "[store]\npath = \"/file/msg.db\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "/env/msg.db", cfg.Store.Path, "environment wins over the file")
	assert.Equal(t, "/env/out", cfg.Export.OutputDir)
	assert.Equal(t, "xlsx", cfg.Export.Format)
	assert.True(t, cfg.Export.Streaming)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestThrottleInterval(t *testing.T) {
	assert.Equal(t, time.Duration(0), ExportConfig{}.ThrottleInterval())
	assert.Less(t, ExportConfig{ThrottleMs: -1}.ThrottleInterval(), time.Duration(0))
	assert.Equal(t, 50*time.Millisecond, ExportConfig{ThrottleMs: 50}.ThrottleInterval())
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	cfg := Default()
	cfg.Store.Path = "/data/msg.db"
	cfg.Export.Format = "sql"
	cfg.Export.Streaming = true

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	require.NoError(t, Save(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestClone(t *testing.T) {
	cfg := Default()
	c := cfg.Clone()
	c.Export.Format = "sql"
	assert.Equal(t, "json", cfg.Export.Format)
	assert.Contains(t, cfg.String(), `"output_dir": "exports"`)
}
