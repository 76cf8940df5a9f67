// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaflens/leaflens-tui/internal/model"
)

func sampleConversation(t *testing.T) *model.Conversation {
	t.Helper()
	at := time.Date(2025, 4, 10, 14, 30, 0, 0, time.UTC)
	conv := model.NewConversation(at)
	conv.AddUserTurn("What is this?", "data:image/jpeg;base64,aaa", at)
	conv.AddAssistantTurn("Quercus alba, the white oak.\n\n```python\nprint(\"leaf\")\n```", at.Add(3*time.Second))
	conv.NormalizeName()
	return conv
}

// =============================================================================
// MARKDOWN
// =============================================================================

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(nil).Export(sampleConversation(t))
	require.NoError(t, err)

	s := string(out)
	assert.True(t, strings.HasPrefix(s, "# What is this?\n"))
	assert.Contains(t, s, "## User (14:30:00)")
	assert.Contains(t, s, "## Assistant (14:30:03)")
	assert.Contains(t, s, "*[photo attached]*")
	assert.Contains(t, s, "Quercus alba")
}

func TestMarkdownExportEmptyConversation(t *testing.T) {
	conv := model.NewConversation(time.Now())
	_, err := NewMarkdownExporter(nil).Export(conv)
	assert.Error(t, err)
}

// =============================================================================
// JSON
// =============================================================================

func TestJSONExportRoundTrip(t *testing.T) {
	conv := sampleConversation(t)
	out, err := NewJSONExporter().Export(conv)
	require.NoError(t, err)

	var decoded model.Conversation
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, conv.ID, decoded.ID)
	require.Len(t, decoded.Turns, 2)
	assert.Equal(t, "What is this?", decoded.Turns[0].Text())
}

// =============================================================================
// HTML
// =============================================================================

func TestHTMLExport(t *testing.T) {
	out, err := NewHTMLExporter(nil).Export(sampleConversation(t))
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "<title>What is this?</title>")
	assert.Contains(t, s, `class="turn user-turn"`)
	assert.Contains(t, s, `class="turn assistant-turn"`)
	// Preview embedded inline.
	assert.Contains(t, s, `src="data:image/jpeg;base64,aaa"`)
	// Fenced block went through the highlighter, not plain escaping.
	assert.Contains(t, s, "code-block")
	assert.NotContains(t, s, "```python")
}

func TestHTMLExportEscapesContent(t *testing.T) {
	at := time.Now()
	conv := model.NewConversation(at)
	conv.AddUserTurn("<script>alert('x')</script>", "", at)
	conv.AddAssistantTurn("ok", at)
	conv.NormalizeName()

	out, err := NewHTMLExporter(nil).Export(conv)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "<script>alert")
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	opts := DefaultOptions()
	opts.OutputDir = dir

	path, err := ExportToFile(sampleConversation(t), NewMarkdownExporter(opts), opts)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, ".md"))
	assert.Contains(t, path, "What_is_this")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Quercus alba")
}

func TestForFormat(t *testing.T) {
	for _, format := range []string{"markdown", "md", "json", "html"} {
		_, err := ForFormat(format, nil)
		assert.NoError(t, err, format)
	}
	_, err := ForFormat("pdf", nil)
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "What_is_this-", sanitizeFilename("What is this?"))
	assert.Equal(t, "conversation", sanitizeFilename(""))
	assert.Equal(t, "a-b", sanitizeFilename("a/b"))
}
