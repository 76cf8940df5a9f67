// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaflens/leaflens-tui/internal/model"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "http://localhost:8000", cfg.API.URL)
	assert.Equal(t, 120, cfg.API.TimeoutSeconds)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "auto", cfg.UI.Theme)
	assert.Equal(t, model.DefaultSystemInstructions, cfg.Chat.SystemInstructions)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().API.URL, cfg.API.URL)
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
url = "http://greenhouse.local:9000"

[storage]
backend = "sqlite"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://greenhouse.local:9000", cfg.API.URL)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	// Unset fields fall back to defaults.
	assert.Equal(t, 120, cfg.API.TimeoutSeconds)
	assert.Equal(t, "auto", cfg.UI.Theme)
}

func TestLoadRejectsBadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("api = {"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LEAFLENS_API_URL", "http://override:8111")
	t.Setenv("LEAFLENS_STORAGE", "memory")
	t.Setenv("LEAFLENS_THEME", "dark")
	t.Setenv("LEAFLENS_TIMEOUT", "45")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, "http://override:8111", cfg.API.URL)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.Equal(t, 45, cfg.API.TimeoutSeconds)
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := Default()
	cfg.Storage.Backend = "cloud"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownTheme(t *testing.T) {
	cfg := Default()
	cfg.UI.Theme = "sepia"
	assert.Error(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.API.URL = "http://saved:8000"
	cfg.Chat.SystemInstructions = "You identify mosses only."
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://saved:8000", loaded.API.URL)
	assert.Equal(t, "You identify mosses only.", loaded.Chat.SystemInstructions)
}
