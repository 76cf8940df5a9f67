// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/leaflens/leaflens-tui/internal/api"
	"github.com/leaflens/leaflens-tui/internal/config"
	"github.com/leaflens/leaflens-tui/internal/session"
	"github.com/leaflens/leaflens-tui/internal/storage"
)

// =============================================================================
// COMMAND DISPATCH
// =============================================================================

// Parse splits os.Args into the command name and its arguments. An empty
// command means "run the TUI".
func Parse() (string, []string) {
	if len(os.Args) < 2 {
		return "", nil
	}
	return os.Args[1], os.Args[2:]
}

// Usage prints the top-level help.
func Usage() {
	fmt.Println(`leaflens - terminal client for the plant image-analysis assistant

Usage:
  leaflens                 open the chat TUI
  leaflens ask [flags]     one-shot question, answer to stdout
  leaflens chat            plain-terminal chat (no TUI)
  leaflens history <cmd>   list | show <id> | delete <id>
  leaflens export <id>     write a conversation to a file
  leaflens config <cmd>    show | path | persona [text]
  leaflens version         print version
  leaflens help            this help

ask flags:
  --image <path>   attach a photo
  --prompt <text>  the question (default: describe the image)

export flags:
  --format <fmt>   markdown | json | html (default markdown)
  --out <dir>      output directory (default .)`)
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// App bundles everything a command needs.
type App struct {
	Config    *config.Config
	Client    *api.Client
	Store     *storage.Store
	StorePath string
}

// Setup loads configuration and opens the conversation store.
func Setup() (*App, error) {
	cfg, err := config.Global()
	if err != nil {
		return nil, err
	}

	kv, storePath, err := openBackend(cfg)
	if err != nil {
		return nil, err
	}

	client := api.New(cfg.API.URL).
		WithTimeout(time.Duration(cfg.API.TimeoutSeconds) * time.Second)

	return &App{
		Config:    cfg,
		Client:    client,
		Store:     storage.NewStore(kv, cfg.Storage.MaxConversations),
		StorePath: storePath,
	}, nil
}

// openBackend builds the configured KV backend. The returned path is the
// watchable store file, empty for backends with nothing to watch.
func openBackend(cfg *config.Config) (storage.KV, string, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemoryKV(cfg.Storage.QuotaBytes), "", nil

	case "sqlite":
		path := cfg.Storage.Path
		if path == "" {
			dir, err := config.DataDir()
			if err != nil {
				return nil, "", err
			}
			path = filepath.Join(dir, "leaflens.db")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, "", fmt.Errorf("failed to create data directory: %w", err)
			}
		}
		kv, err := storage.NewSQLiteKV(path, cfg.Storage.QuotaBytes)
		return kv, "", err

	default: // "file"
		dir := cfg.Storage.Path
		if dir == "" {
			var err error
			dir, err = config.DataDir()
			if err != nil {
				return nil, "", err
			}
		}
		kv, err := storage.NewFileKV(dir, cfg.Storage.QuotaBytes)
		if err != nil {
			return nil, "", err
		}
		return kv, kv.Path(storage.StorageKey), nil
	}
}

// NewSession builds a session over the app's client and store.
func (a *App) NewSession() *session.Session {
	return session.New(a.Client, a.Store, a.Config.Chat.SystemInstructions)
}
