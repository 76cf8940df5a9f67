// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaflens/leaflens-tui/internal/config"
	"github.com/leaflens/leaflens-tui/internal/storage"
)

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

func TestArgParserFlagsAndPositionals(t *testing.T) {
	p := NewArgParser([]string{"show", "12345", "--format", "html", "--out=exports", "--no-images"})

	assert.Equal(t, "show", p.Subcommand())
	assert.Equal(t, "12345", p.Positional(1))
	assert.Equal(t, 2, p.PositionalCount())
	assert.Equal(t, "html", p.Flag("format"))
	assert.Equal(t, "exports", p.Flag("out"))
	assert.True(t, p.BoolFlag("no-images"))
	assert.False(t, p.BoolFlag("verbose"))
}

func TestArgParserDefaults(t *testing.T) {
	p := NewArgParser(nil)

	assert.Equal(t, "", p.Subcommand())
	assert.Equal(t, "", p.Flag("missing"))
	assert.Equal(t, "markdown", p.FlagOr("format", "markdown"))
	assert.Equal(t, "", p.Positional(5))
	assert.Equal(t, 0, p.PositionalCount())
}

func TestArgParserTrailingFlagIsBoolean(t *testing.T) {
	p := NewArgParser([]string{"--image", "leaf.png", "--verbose"})

	assert.Equal(t, "leaf.png", p.Flag("image"))
	assert.True(t, p.BoolFlag("verbose"))
}

// =============================================================================
// BACKEND SELECTION
// =============================================================================

func TestOpenBackendMemory(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "memory"

	kv, watchPath, err := openBackend(cfg)
	require.NoError(t, err)
	defer kv.Close()

	assert.Empty(t, watchPath)
	require.NoError(t, kv.Set("k", []byte("v")))
	got, err := kv.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestOpenBackendFileReturnsWatchPath(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "file"
	cfg.Storage.Path = t.TempDir()

	kv, watchPath, err := openBackend(cfg)
	require.NoError(t, err)
	defer kv.Close()

	assert.NotEmpty(t, watchPath)
	assert.Contains(t, watchPath, storage.StorageKey)
}
