// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/leaflens/leaflens-tui/internal/session"
	"github.com/leaflens/leaflens-tui/internal/storage"
)

// Run starts the chat TUI and blocks until the user quits. storePath,
// when non-empty, is watched so external rewrites of the store refresh
// the sidebar.
func Run(sess *session.Session, store *storage.Store, storePath, theme string) error {
	m, err := New(sess, store, theme)
	if err != nil {
		return fmt.Errorf("failed to build chat screen: %w", err)
	}

	p := tea.NewProgram(m, tea.WithAltScreen())

	if storePath != "" {
		watcher, err := storage.WatchFile(storePath, func() {
			p.Send(storeChangedMsg{})
		})
		if err == nil {
			defer watcher.Close()
		}
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat session failed: %w", err)
	}
	return nil
}
