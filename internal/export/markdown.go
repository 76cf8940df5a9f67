// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"strings"

	"github.com/leaflens/leaflens-tui/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders a conversation as a readable markdown document.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

func (e *MarkdownExporter) FileExtension() string { return ".md" }
func (e *MarkdownExporter) MimeType() string      { return "text/markdown" }

// Export renders the conversation.
func (e *MarkdownExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	turns := conv.Transcript()
	if len(turns) == 0 {
		return nil, fmt.Errorf("conversation has no turns")
	}

	var sb strings.Builder
	sb.WriteString("# " + conv.Name + "\n\n")
	sb.WriteString(fmt.Sprintf("- Created: %s\n", conv.CreatedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("- Turns: %d\n", len(turns)))
	if conv.SystemInstructions != "" && conv.SystemInstructions != model.DefaultSystemInstructions {
		sb.WriteString("- Persona: " + strings.ReplaceAll(conv.SystemInstructions, "\n", " ") + "\n")
	}
	sb.WriteString("\n---\n\n")

	for _, turn := range turns {
		sb.WriteString("## " + roleLabel(turn.Role()))
		if e.options.IncludeTimestamps && !turn.When().IsZero() {
			sb.WriteString(" (" + turn.When().Format("15:04:05") + ")")
		}
		sb.WriteString("\n\n")

		if ut, ok := turn.(model.UserTurn); ok && ut.HasImage() && e.options.IncludeImages {
			sb.WriteString("*[photo attached]*\n\n")
		}
		sb.WriteString(turn.Text())
		sb.WriteString("\n\n")
	}

	return []byte(sb.String()), nil
}
