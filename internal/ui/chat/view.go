// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/leaflens/leaflens-tui/internal/model"
	"github.com/leaflens/leaflens-tui/internal/util"
	"github.com/leaflens/leaflens-tui/internal/ui/styles"
)

const sidebarWidth = 28

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}

	body := m.transcript.View()
	if m.showSidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.renderSidebar(), body)
	}

	sections := []string{
		body,
		m.renderStatus(),
		m.prompt.View(),
	}
	screen := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if overlay := m.toasts.Render(m.width, m.height); overlay != "" {
		// Toasts draw over the bottom-right corner.
		return screen + "\n" + overlay
	}
	return screen
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

// refreshTranscript rerenders the conversation into the viewport and
// follows the tail.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}
	m.transcript.SetContent(m.renderTranscript())
	m.transcript.GotoBottom()
}

func (m *Model) renderTranscript() string {
	turns := m.sess.Transcript()
	if len(turns) == 0 && !m.sess.Busy() {
		return styles.SubtleStyle.Render("\n  Attach a plant photo with /attach <path> and ask away.\n")
	}

	var sb strings.Builder
	for _, turn := range turns {
		sb.WriteString(m.renderTurn(turn))
		sb.WriteString("\n")
	}
	if m.sess.Busy() {
		sb.WriteString(m.spin.View() + styles.SubtleStyle.Render(" analyzing..."))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *Model) renderTurn(turn model.Turn) string {
	stamp := ""
	if !turn.When().IsZero() {
		stamp = " " + styles.SubtleStyle.Render(turn.When().Format("15:04"))
	}

	if ut, ok := turn.(model.UserTurn); ok {
		header := styles.UserLabelStyle.Render("You") + stamp
		body := ut.Content
		if ut.HasImage() {
			body = styles.AttachmentStyle.Render("[photo]") + " " + body
		}
		return styles.UserBubbleStyle.Render(header+"\n"+body) + "\n"
	}

	header := styles.AssistantLabelStyle.Render("Leaflens") + stamp
	body := turn.Text()
	if m.renderer != nil {
		if rendered, err := m.renderer.Render(body); err == nil {
			body = strings.TrimRight(rendered, "\n")
		}
	}
	return styles.AssistantBubbleStyle.Render(header+"\n"+body) + "\n"
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m *Model) renderSidebar() string {
	var sb strings.Builder
	sb.WriteString(styles.TitleStyle.Render("Conversations"))
	sb.WriteString("\n\n")

	if len(m.conversations) == 0 {
		sb.WriteString(styles.SubtleStyle.Render("nothing saved yet"))
	}

	for i, conv := range m.conversations {
		name := util.TruncateWidth(conv.Name, sidebarWidth-4)
		line := "  " + name
		if i == m.selected && m.focus == FocusSidebar {
			line = styles.SelectedItemStyle.Render("> " + name)
		}
		sb.WriteString(line + "\n")
	}

	height := m.transcript.Height
	return styles.SidebarStyle.
		Width(sidebarWidth - 1).
		Height(height).
		Render(sb.String())
}

// =============================================================================
// STATUS LINE
// =============================================================================

func (m *Model) renderStatus() string {
	var parts []string

	if m.sess.Busy() {
		parts = append(parts, m.spin.View()+"analyzing")
	} else {
		parts = append(parts, "idle")
	}

	if att := m.sess.Attachment(); att != nil {
		parts = append(parts, styles.AttachmentStyle.Render(
			fmt.Sprintf("photo: %s (%s)", att.Name, humanSize(len(att.Data)))))
	}

	parts = append(parts, styles.SubtleStyle.Render(
		"enter send | ctrl+n new | ctrl+b sidebar | tab focus | ctrl+x remove photo | ctrl+c quit"))

	return styles.StatusBarStyle.Width(m.width).Render(strings.Join(parts, "  "))
}

func humanSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
