// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders saved conversations to shareable formats.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/leaflens/leaflens-tui/internal/model"
)

// =============================================================================
// EXPORTER INTERFACE
// =============================================================================

// Exporter renders a conversation to one output format.
type Exporter interface {
	Export(conv *model.Conversation) ([]byte, error)
	FileExtension() string
	MimeType() string
}

// ForFormat returns the exporter for a format name: "markdown" (or "md"),
// "json", or "html".
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch format {
	case "markdown", "md":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(), nil
	case "html":
		return NewHTMLExporter(opts), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want markdown, json or html)", format)
	}
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures export output.
type Options struct {
	// OutputDir is where exported files land. Default: current directory.
	OutputDir string

	// IncludeTimestamps adds per-turn timestamps.
	IncludeTimestamps bool

	// IncludeImages embeds attached previews (HTML) or notes them
	// (markdown).
	IncludeImages bool

	// Theme selects light or dark styling for HTML output.
	Theme string
}

// DefaultOptions returns the defaults used by the export command.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeTimestamps: true,
		IncludeImages:     true,
		Theme:             "light",
	}
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// ExportToFile renders the conversation and writes it next to a
// timestamped filename derived from its name. Returns the output path.
func ExportToFile(conv *model.Conversation, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export failed: %w", err)
	}

	filename := fmt.Sprintf("conversation_%s_%s%s",
		sanitizeFilename(conv.Name),
		time.Now().Format("20060102_150405"),
		exporter.FileExtension(),
	)

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(opts.OutputDir, filename)
	if err := os.WriteFile(outputPath, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return outputPath, nil
}

// sanitizeFilename keeps conversation names usable as filenames on both
// Windows and Unix.
func sanitizeFilename(s string) string {
	runes := []rune(s)
	if len(runes) > 50 {
		runes = runes[:50]
	}

	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			out = append(out, '-')
		case ' ', '\t', '\n', '\r':
			out = append(out, '_')
		default:
			if r < 32 || r == 127 {
				out = append(out, '-')
			} else {
				out = append(out, r)
			}
		}
	}
	if len(out) == 0 {
		return "conversation"
	}
	return string(out)
}

// roleLabel names a turn's speaker for rendered output.
func roleLabel(role model.Role) string {
	switch role {
	case model.RoleUser:
		return "User"
	case model.RoleAssistant:
		return "Assistant"
	}
	return string(role)
}
