// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles defines the color palette and shared lipgloss styles
// for the leaflens TUI.
package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// COLOR PALETTE
// =============================================================================

// Adaptive colors pick a variant per terminal background. The maroon is
// the historical user-bubble color; the greens fit the botanical domain.
var (
	// Maroon marks the user's turns.
	Maroon = lipgloss.AdaptiveColor{Light: "#822433", Dark: "#c26575"}

	// Moss marks assistant turns and affirmative accents.
	Moss = lipgloss.AdaptiveColor{Light: "#3f7d4e", Dark: "#7dbd8c"}

	// Fern is the secondary accent for borders and highlights.
	Fern = lipgloss.AdaptiveColor{Light: "#5a8a52", Dark: "#9ccf92"}

	// Amber flags warnings such as storage eviction.
	Amber = lipgloss.AdaptiveColor{Light: "#b45309", Dark: "#fbbf24"}

	// Rose flags errors.
	Rose = lipgloss.AdaptiveColor{Light: "#be123c", Dark: "#fb7185"}

	// Sky flags informational notices.
	Sky = lipgloss.AdaptiveColor{Light: "#0369a1", Dark: "#7dd3fc"}

	// Bark is muted foreground text.
	Bark = lipgloss.AdaptiveColor{Light: "#6a7a6d", Dark: "#8a9a8d"}

	// Parchment is the default foreground.
	Parchment = lipgloss.AdaptiveColor{Light: "#1d2a1f", Dark: "#d9e2d7"}

	// Soil is the subtle border color.
	Soil = lipgloss.AdaptiveColor{Light: "#d9e2d7", Dark: "#33402f"}
)

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle renders screen and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Moss)

	// SubtleStyle renders secondary text such as timestamps.
	SubtleStyle = lipgloss.NewStyle().
			Foreground(Bark)

	// ErrorStyle renders error lines.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Rose)

	// WarningStyle renders warnings.
	WarningStyle = lipgloss.NewStyle().
			Foreground(Amber)

	// UserLabelStyle labels the user's turns in the transcript.
	UserLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Maroon)

	// AssistantLabelStyle labels assistant turns.
	AssistantLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Moss)

	// UserBubbleStyle frames a user turn.
	UserBubbleStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder(), false, false, false, true).
			BorderForeground(Maroon).
			PaddingLeft(1)

	// AssistantBubbleStyle frames an assistant turn.
	AssistantBubbleStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder(), false, false, false, true).
				BorderForeground(Moss).
				PaddingLeft(1)

	// AttachmentStyle marks a staged or sent photo.
	AttachmentStyle = lipgloss.NewStyle().
			Foreground(Fern).
			Italic(true)

	// SidebarStyle frames the conversation list.
	SidebarStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, true, false, false).
			BorderForeground(Soil).
			PaddingRight(1)

	// SelectedItemStyle highlights the focused sidebar entry.
	SelectedItemStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Parchment).
				Background(Moss)

	// StatusBarStyle renders the bottom status line.
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(Bark).
			BorderTop(true).
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(Soil)
)
