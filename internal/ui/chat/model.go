// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/leaflens/leaflens-tui/internal/model"
	"github.com/leaflens/leaflens-tui/internal/session"
	"github.com/leaflens/leaflens-tui/internal/storage"
	"github.com/leaflens/leaflens-tui/internal/ui/components"
	"github.com/leaflens/leaflens-tui/internal/ui/styles"
)

// =============================================================================
// MODEL
// =============================================================================

// Focus tracks which pane receives key input.
type Focus int

const (
	FocusPrompt Focus = iota
	FocusSidebar
)

// Model is the root bubbletea model for the chat screen.
type Model struct {
	sess   *session.Session
	store  *storage.Store
	toasts *components.ToastManager

	prompt     textarea.Model
	transcript viewport.Model
	spin       spinner.Model
	renderer   *glamour.TermRenderer

	conversations []*model.Conversation
	selected      int
	focus         Focus
	showSidebar   bool
	// pendingDelete holds the conversation ID awaiting a second ctrl+d.
	pendingDelete string

	width  int
	height int
	ready  bool
	theme  string

	keys keyMap
}

// New creates the chat screen over an existing session and store.
// theme selects the glamour style: "auto", "dark", "light" or "notty".
func New(sess *session.Session, store *storage.Store, theme string) (*Model, error) {
	prompt := textarea.New()
	prompt.Placeholder = "Ask about a plant, or /attach <path> to add a photo..."
	prompt.CharLimit = 4000
	prompt.SetHeight(3)
	prompt.ShowLineNumbers = false
	prompt.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.AssistantLabelStyle

	renderer, err := newRenderer(theme, 80)
	if err != nil {
		return nil, err
	}

	m := &Model{
		sess:        sess,
		store:       store,
		toasts:      components.NewToastManager(),
		prompt:      prompt,
		spin:        spin,
		renderer:    renderer,
		theme:       theme,
		showSidebar: true,
		keys:        defaultKeyMap(),
	}
	return m, nil
}

func newRenderer(theme string, wrap int) (*glamour.TermRenderer, error) {
	switch theme {
	case "dark":
		return glamour.NewTermRenderer(glamour.WithStandardStyle("dark"), glamour.WithWordWrap(wrap))
	case "light":
		return glamour.NewTermRenderer(glamour.WithStandardStyle("light"), glamour.WithWordWrap(wrap))
	case "notty":
		return glamour.NewTermRenderer(glamour.WithStandardStyle("notty"), glamour.WithWordWrap(wrap))
	default:
		// Probe the terminal background once instead of per render.
		style := "light"
		if termenv.HasDarkBackground() {
			style = "dark"
		}
		return glamour.NewTermRenderer(glamour.WithStandardStyle(style), glamour.WithWordWrap(wrap))
	}
}

// Init loads the saved conversations and starts the spinner.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(loadConversationsCmd(m.store), m.spin.Tick)
}

// =============================================================================
// MESSAGES
// =============================================================================

// conversationsLoadedMsg delivers the sidebar contents.
type conversationsLoadedMsg struct {
	conversations []*model.Conversation
	warn          error
}

// submitDoneMsg delivers the outcome of a submission.
type submitDoneMsg struct {
	result *session.Result
	err    error
	at     time.Time
}

// attachDoneMsg delivers the outcome of /attach.
type attachDoneMsg struct {
	name string
	err  error
}

// storeChangedMsg reports an external rewrite of the store file.
type storeChangedMsg struct{}
