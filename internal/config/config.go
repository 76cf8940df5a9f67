// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/leaflens/leaflens-tui/internal/model"
)

// =============================================================================
// CONFIGURATION TYPES
// =============================================================================

// Config is the full client configuration, loaded from TOML with
// environment overrides applied on top.
type Config struct {
	API     APIConfig     `toml:"api"`
	Storage StorageConfig `toml:"storage"`
	UI      UIConfig      `toml:"ui"`
	Chat    ChatConfig    `toml:"chat"`
}

// APIConfig describes the analysis backend.
type APIConfig struct {
	// URL is the backend base address, e.g. http://localhost:8000.
	URL string `toml:"url"`

	// TimeoutSeconds bounds each analysis request. Vision models can be
	// slow, so the default is generous.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// StorageConfig describes where conversations are kept.
type StorageConfig struct {
	// Backend selects the store: "file", "sqlite" or "memory".
	Backend string `toml:"backend"`

	// Path overrides the store location. Empty uses the data directory.
	Path string `toml:"path"`

	// QuotaBytes caps the serialized conversation list. Zero applies the
	// default quota, negative disables the cap.
	QuotaBytes int `toml:"quota_bytes"`

	// MaxConversations caps how many conversations are kept regardless
	// of space. Zero means no cap.
	MaxConversations int `toml:"max_conversations"`
}

// UIConfig holds display preferences.
type UIConfig struct {
	// Theme selects the glamour markdown style: "auto", "dark", "light".
	Theme string `toml:"theme"`
}

// ChatConfig holds conversation defaults.
type ChatConfig struct {
	// SystemInstructions is the persona sent with every request.
	SystemInstructions string `toml:"system_instructions"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		API: APIConfig{
			URL:            "http://localhost:8000",
			TimeoutSeconds: 120,
		},
		Storage: StorageConfig{
			Backend:          "file",
			QuotaBytes:       0,
			MaxConversations: 0,
		},
		UI: UIConfig{
			Theme: "auto",
		},
		Chat: ChatConfig{
			SystemInstructions: model.DefaultSystemInstructions,
		},
	}
}

// =============================================================================
// LOADING
// =============================================================================

// Dir returns the configuration directory, honoring XDG conventions.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate config directory: %w", err)
	}
	return filepath.Join(base, "leaflens"), nil
}

// DefaultPath returns where the config file is expected.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DataDir returns where the conversation store lives by default.
func DataDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

// Load reads the config file at path (DefaultPath when empty), fills in
// defaults for anything unset, applies environment overrides, and
// validates the result. A missing file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg := Default()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	cfg.fillDefaults()
	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fillDefaults restores defaults for fields the file left empty, so a
// partial config file stays valid.
func (c *Config) fillDefaults() {
	def := Default()
	if c.API.URL == "" {
		c.API.URL = def.API.URL
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = def.API.TimeoutSeconds
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = def.Storage.Backend
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
	if c.Chat.SystemInstructions == "" {
		c.Chat.SystemInstructions = def.Chat.SystemInstructions
	}
}

// ApplyEnvOverrides lets the environment win over the file:
//
//	LEAFLENS_API_URL   backend base address
//	LEAFLENS_STORAGE   storage backend (file|sqlite|memory)
//	LEAFLENS_THEME     ui theme
//	LEAFLENS_TIMEOUT   request timeout in seconds
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("LEAFLENS_API_URL"); v != "" {
		c.API.URL = v
	}
	if v := os.Getenv("LEAFLENS_STORAGE"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("LEAFLENS_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("LEAFLENS_TIMEOUT"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.API.TimeoutSeconds = secs
		}
	}
}

// Validate rejects configurations the client cannot run with.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("invalid storage backend %q (want file, sqlite or memory)", c.Storage.Backend)
	}
	switch c.UI.Theme {
	case "auto", "dark", "light", "notty":
	default:
		return fmt.Errorf("invalid theme %q (want auto, dark, light or notty)", c.UI.Theme)
	}
	if c.API.TimeoutSeconds <= 0 {
		return fmt.Errorf("invalid timeout %d (must be positive)", c.API.TimeoutSeconds)
	}
	return nil
}

// Save writes the configuration back to path (DefaultPath when empty).
func (c *Config) Save(path string) error {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer f.Close()
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// GLOBAL ACCESS
// =============================================================================

var (
	globalOnce sync.Once
	globalCfg  *Config
	globalErr  error
)

// Global returns the process-wide configuration, loading it on first use.
func Global() (*Config, error) {
	globalOnce.Do(func() {
		globalCfg, globalErr = Load("")
	})
	return globalCfg, globalErr
}
