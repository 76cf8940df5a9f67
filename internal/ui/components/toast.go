// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components holds reusable view pieces for the leaflens TUI.
package components

import (
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leaflens/leaflens-tui/internal/ui/styles"
)

// =============================================================================
// TOASTS
// =============================================================================

// ToastKind selects a toast's color and default lifetime.
type ToastKind int

const (
	ToastError ToastKind = iota
	ToastWarning
	ToastInfo
	ToastSuccess
)

// Toast is one transient notification, shown stacked in a corner until
// it expires.
type Toast struct {
	Kind      ToastKind
	Title     string
	Message   string
	ExpiresAt time.Time
}

func lifetime(kind ToastKind) time.Duration {
	switch kind {
	case ToastError:
		return 6 * time.Second
	case ToastWarning:
		return 4 * time.Second
	default:
		return 3 * time.Second
	}
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

const maxVisibleToasts = 3

// ToastManager collects active toasts and drops them as they expire.
// Safe for use from update and view code on different ticks.
type ToastManager struct {
	mu     sync.Mutex
	toasts []Toast
	now    func() time.Time
}

// NewToastManager creates an empty manager.
func NewToastManager() *ToastManager {
	return &ToastManager{now: time.Now}
}

// Push adds a toast with the default lifetime for its kind.
func (m *ToastManager) Push(kind ToastKind, title, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toasts = append(m.toasts, Toast{
		Kind:      kind,
		Title:     title,
		Message:   message,
		ExpiresAt: m.now().Add(lifetime(kind)),
	})
	if len(m.toasts) > maxVisibleToasts {
		m.toasts = m.toasts[len(m.toasts)-maxVisibleToasts:]
	}
}

// Error is shorthand for Push(ToastError, ...).
func (m *ToastManager) Error(title, message string) {
	m.Push(ToastError, title, message)
}

// Warning is shorthand for Push(ToastWarning, ...).
func (m *ToastManager) Warning(title, message string) {
	m.Push(ToastWarning, title, message)
}

// Info is shorthand for Push(ToastInfo, ...).
func (m *ToastManager) Info(title, message string) {
	m.Push(ToastInfo, title, message)
}

// Success is shorthand for Push(ToastSuccess, ...).
func (m *ToastManager) Success(title, message string) {
	m.Push(ToastSuccess, title, message)
}

// Expire drops toasts past their lifetime. Returns true when any remain,
// so the caller knows to keep ticking.
func (m *ToastManager) Expire() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	kept := m.toasts[:0]
	for _, toast := range m.toasts {
		if toast.ExpiresAt.After(now) {
			kept = append(kept, toast)
		}
	}
	m.toasts = kept
	return len(m.toasts) > 0
}

// Active returns the toasts currently visible.
func (m *ToastManager) Active() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Toast, len(m.toasts))
	copy(out, m.toasts)
	return out
}

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// ToastTickMsg drives toast expiry.
type ToastTickMsg struct{ Time time.Time }

// ToastTickCmd ticks while any toast is visible.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// =============================================================================
// RENDERING
// =============================================================================

func toastStyle(kind ToastKind) lipgloss.Style {
	base := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 1).
		MaxWidth(48)

	switch kind {
	case ToastError:
		return base.BorderForeground(styles.Rose).Foreground(styles.Rose)
	case ToastWarning:
		return base.BorderForeground(styles.Amber).Foreground(styles.Amber)
	case ToastSuccess:
		return base.BorderForeground(styles.Moss).Foreground(styles.Moss)
	default:
		return base.BorderForeground(styles.Sky).Foreground(styles.Sky)
	}
}

// Render stacks the active toasts for overlay in the bottom-right corner.
func (m *ToastManager) Render(width, height int) string {
	toasts := m.Active()
	if len(toasts) == 0 {
		return ""
	}

	rendered := make([]string, 0, len(toasts))
	for _, toast := range toasts {
		body := toast.Title
		if toast.Message != "" {
			body += "\n" + toast.Message
		}
		rendered = append(rendered, toastStyle(toast.Kind).Render(body))
	}
	stack := lipgloss.JoinVertical(lipgloss.Right, rendered...)

	return lipgloss.Place(width, height, lipgloss.Right, lipgloss.Bottom, stack)
}
