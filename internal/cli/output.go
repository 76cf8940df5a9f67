// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/leaflens/leaflens-tui/internal/ui/styles"
)

// =============================================================================
// TERMINAL OUTPUT
// =============================================================================

// Errorf prints a styled error line to stderr.
func Errorf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, styles.ErrorStyle.Render("error: ")+fmt.Sprintf(format, args...))
}

// Warnf prints a styled warning line to stderr.
func Warnf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, styles.WarningStyle.Render("warning: ")+fmt.Sprintf(format, args...))
}

// isTTY reports whether stdout is a terminal.
func isTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// terminalWidth returns the stdout width, defaulting to 80.
func terminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		if width > 120 {
			return 120
		}
		return width
	}
	return 80
}

// renderMarkdown pretty-prints markdown for TTYs and passes it through
// untouched when output is piped.
func renderMarkdown(content string) string {
	if !isTTY() {
		return content
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(terminalWidth()),
	)
	if err != nil {
		return content
	}
	out, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return out
}
