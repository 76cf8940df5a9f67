// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/leaflens/leaflens-tui/internal/session"
	"github.com/leaflens/leaflens-tui/internal/storage"
	"github.com/leaflens/leaflens-tui/internal/ui/components"
)

// =============================================================================
// COMMANDS
// =============================================================================

func loadConversationsCmd(store *storage.Store) tea.Cmd {
	return func() tea.Msg {
		convs, err := store.Load()
		if err != nil && !errors.Is(err, storage.ErrCorruptStore) {
			return conversationsLoadedMsg{warn: err}
		}
		return conversationsLoadedMsg{conversations: convs, warn: err}
	}
}

// submitCmd runs the backend call off the UI loop. Session enforces
// single-flight, so a second submit while one runs comes back ErrBusy.
func submitCmd(sess *session.Session, prompt string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		result, err := sess.Submit(ctx, prompt)
		return submitDoneMsg{result: result, err: err, at: time.Now()}
	}
}

func attachCmd(sess *session.Session, path string) tea.Cmd {
	return func() tea.Msg {
		err := sess.AttachFile(strings.TrimSpace(path))
		return attachDoneMsg{name: path, err: err}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update is the bubbletea update loop.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case conversationsLoadedMsg:
		if msg.warn != nil {
			if errors.Is(msg.warn, storage.ErrCorruptStore) {
				m.toasts.Warning("History Reset", "Saved conversations could not be read")
			} else {
				m.toasts.Error("Storage Error", msg.warn.Error())
			}
			cmds = append(cmds, components.ToastTickCmd())
		}
		m.conversations = msg.conversations
		m.clampSelection()

	case submitDoneMsg:
		cmds = append(cmds, m.handleSubmitDone(msg)...)

	case attachDoneMsg:
		if msg.err != nil {
			m.toasts.Error("Attach Failed", msg.err.Error())
		} else {
			m.toasts.Success("Photo Attached", msg.name)
		}
		cmds = append(cmds, components.ToastTickCmd())

	case storeChangedMsg:
		// Another process rewrote the store; pick up its version.
		cmds = append(cmds, loadConversationsCmd(m.store))

	case components.ToastTickMsg:
		if m.toasts.Expire() {
			cmds = append(cmds, components.ToastTickCmd())
		}

	case spinner.TickMsg:
		// The optimistic user turn is appended off the UI loop, after
		// submitCmd starts; redraw on each tick so it shows while the
		// request is still in flight.
		if m.sess.Busy() {
			m.refreshTranscript()
		}
	}

	var cmd tea.Cmd
	m.spin, cmd = m.spin.Update(msg)
	cmds = append(cmds, cmd)

	if m.focus == FocusPrompt && !m.sess.Busy() {
		m.prompt, cmd = m.prompt.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.transcript, cmd = m.transcript.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height

	bodyHeight := height - m.prompt.Height() - 3
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	transcriptWidth := width
	if m.showSidebar {
		transcriptWidth -= sidebarWidth
	}

	if !m.ready {
		m.transcript = viewport.New(transcriptWidth, bodyHeight)
		m.ready = true
	} else {
		m.transcript.Width = transcriptWidth
		m.transcript.Height = bodyHeight
	}
	m.prompt.SetWidth(transcriptWidth - 2)

	if r, err := newRenderer(m.theme, transcriptWidth-4); err == nil {
		m.renderer = r
	}
	m.refreshTranscript()
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keys.NewChat):
		if err := m.sess.NewChat(); err == nil {
			m.prompt.Reset()
			m.refreshTranscript()
		}
		return nil, true

	case key.Matches(msg, m.keys.ToggleSidebar):
		m.showSidebar = !m.showSidebar
		m.resize(m.width, m.height)
		return nil, true

	case key.Matches(msg, m.keys.ClearImage):
		if m.sess.Attachment() != nil {
			m.sess.ClearAttachment()
			m.toasts.Info("Photo Removed", "")
			return components.ToastTickCmd(), true
		}
		return nil, true

	case msg.String() == "tab" && m.showSidebar:
		if m.focus == FocusPrompt {
			m.focus = FocusSidebar
			m.prompt.Blur()
		} else {
			m.focus = FocusPrompt
			m.prompt.Focus()
		}
		return nil, true
	}

	if m.focus == FocusSidebar {
		return m.handleSidebarKey(msg), true
	}

	if key.Matches(msg, m.keys.Submit) {
		return m.handleSubmit(), true
	}
	return nil, false
}

func (m *Model) handleSidebarKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.conversations)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Open):
		if m.selected < len(m.conversations) {
			if err := m.sess.LoadConversation(m.conversations[m.selected]); err != nil {
				m.toasts.Warning("Busy", "Wait for the current analysis to finish")
				return components.ToastTickCmd()
			}
			m.focus = FocusPrompt
			m.prompt.Focus()
			m.refreshTranscript()
		}
	case key.Matches(msg, m.keys.Delete):
		if m.selected < len(m.conversations) {
			conv := m.conversations[m.selected]
			if m.pendingDelete != conv.ID {
				m.pendingDelete = conv.ID
				m.toasts.Warning("Delete?", "Press ctrl+d again to delete "+conv.Name)
				return components.ToastTickCmd()
			}
			m.pendingDelete = ""
			if err := m.store.Delete(conv.ID); err != nil {
				m.toasts.Error("Delete Failed", err.Error())
				return components.ToastTickCmd()
			}
			if m.sess.ResetIfCurrent(conv.ID) {
				m.refreshTranscript()
			}
			return tea.Batch(loadConversationsCmd(m.store), components.ToastTickCmd())
		}
	default:
		// Any other key cancels a pending delete.
		m.pendingDelete = ""
	}
	return nil
}

// =============================================================================
// SUBMIT FLOW
// =============================================================================

func (m *Model) handleSubmit() tea.Cmd {
	if m.sess.Busy() {
		return nil
	}
	prompt := m.prompt.Value()

	// /attach <path> stages a photo instead of submitting.
	if path, ok := strings.CutPrefix(strings.TrimSpace(prompt), "/attach "); ok {
		m.prompt.Reset()
		return attachCmd(m.sess, path)
	}

	if strings.TrimSpace(prompt) == "" && m.sess.Attachment() == nil {
		m.toasts.Error("No input provided", "Please attach an image or type a prompt")
		return components.ToastTickCmd()
	}

	// The prompt is consumed regardless of the outcome.
	m.prompt.Reset()
	m.refreshTranscript()
	return tea.Batch(submitCmd(m.sess, prompt), m.spin.Tick)
}

func (m *Model) handleSubmitDone(msg submitDoneMsg) []tea.Cmd {
	var cmds []tea.Cmd
	m.refreshTranscript()

	switch {
	case errors.Is(msg.err, session.ErrBusy), errors.Is(msg.err, session.ErrNothingToSend):
		m.toasts.Warning("Not Sent", msg.err.Error())
	case msg.err != nil:
		// The failure text is already in the transcript; the toast just
		// draws the eye.
		m.toasts.Error("Analysis Error", shortError(msg.err))
	default:
		if msg.result.SaveErr != nil {
			if errors.Is(msg.result.SaveErr, storage.ErrQuotaExceeded) {
				m.toasts.Warning("History Full", "Could not save chat history. Storage is full.")
			} else {
				m.toasts.Warning("Save Failed", shortError(msg.result.SaveErr))
			}
		}
		if msg.result.Kept != nil {
			m.conversations = msg.result.Kept
			m.clampSelection()
		}
	}

	cmds = append(cmds, components.ToastTickCmd())
	return cmds
}

func (m *Model) clampSelection() {
	if m.selected >= len(m.conversations) {
		m.selected = len(m.conversations) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func shortError(err error) string {
	s := err.Error()
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
