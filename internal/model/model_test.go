// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TURN TESTS
// =============================================================================

func TestTurnsJSONRoundTrip(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	turns := Turns{
		UserTurn{Content: "What is this?", Image: "data:image/jpeg;base64,aaa", At: at},
		AssistantTurn{Content: "This appears to be Quercus alba.", At: at.Add(2 * time.Second)},
	}

	data, err := json.Marshal(turns)
	require.NoError(t, err)

	// Legacy field names on the wire.
	assert.Contains(t, string(data), `"isUser":true`)
	assert.Contains(t, string(data), `"isUser":false`)
	assert.Contains(t, string(data), `"image":"data:image/jpeg;base64,aaa"`)

	var decoded Turns
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 2)

	ut, ok := decoded[0].(UserTurn)
	require.True(t, ok)
	assert.Equal(t, "What is this?", ut.Content)
	assert.True(t, ut.HasImage())

	at2, ok := decoded[1].(AssistantTurn)
	require.True(t, ok)
	assert.Equal(t, "This appears to be Quercus alba.", at2.Content)
}

func TestTurnsAssistantImageDropped(t *testing.T) {
	// Image on an assistant entry is impossible in our types; stray data
	// in an old store must not round-trip back out.
	raw := `[{"isUser":false,"content":"hi","image":"data:image/jpeg;base64,bbb","timestamp":"2025-01-01T00:00:00Z"}]`

	var decoded Turns
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	require.Len(t, decoded, 1)

	_, ok := decoded[0].(AssistantTurn)
	assert.True(t, ok)

	out, err := json.Marshal(decoded)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "bbb")
}

func TestTurnsHistoryStripsImages(t *testing.T) {
	turns := Turns{
		UserTurn{Content: "What is this?", Image: "data:image/jpeg;base64,aaa"},
		AssistantTurn{Content: "A white oak."},
	}

	hist := turns.History()
	require.Len(t, hist, 2)
	assert.Equal(t, HistoryEntry{IsUser: true, Content: "What is this?"}, hist[0])
	assert.Equal(t, HistoryEntry{IsUser: false, Content: "A white oak."}, hist[1])

	data, err := json.Marshal(hist)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "image")
}

// =============================================================================
// CONVERSATION TESTS
// =============================================================================

func TestNewConversationID(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	conv := NewConversation(now)

	assert.Equal(t, "1748779200000", conv.ID)
	assert.Equal(t, DefaultSystemInstructions, conv.SystemInstructions)
	assert.Empty(t, conv.Turns)
}

func TestNormalizeNameFromFirstUserTurn(t *testing.T) {
	conv := NewConversation(time.Now())
	conv.AddUserTurn("  What kind of fern is this?  ", "", time.Now())
	conv.AddAssistantTurn("Looks like a Boston fern.", time.Now())

	conv.NormalizeName()
	assert.Equal(t, "What kind of fern is this?", conv.Name)
}

func TestNormalizeNameKeepsFullLength(t *testing.T) {
	// Stored names are never truncated; the name must equal the first
	// user message exactly so it round-trips through the store. Views
	// shorten for display on their own.
	question := strings.TrimSpace(strings.Repeat("leaf ", 20))
	conv := NewConversation(time.Now())
	conv.AddUserTurn(question, "", time.Now())

	conv.NormalizeName()
	assert.Equal(t, question, conv.Name)
}

func TestNormalizeNameFallback(t *testing.T) {
	conv := NewConversation(time.Now())
	conv.AddUserTurn("", "data:image/jpeg;base64,ccc", time.Now())

	conv.NormalizeName()
	assert.Equal(t, FallbackName, conv.Name)
}

func TestNormalizeNameKeepsExisting(t *testing.T) {
	conv := NewConversation(time.Now())
	conv.Name = "My oak question"
	conv.AddUserTurn("something else", "", time.Now())

	conv.NormalizeName()
	assert.Equal(t, "My oak question", conv.Name)
}

func TestTranscriptSynthesizedFromLegacyFields(t *testing.T) {
	at := time.Date(2025, 2, 2, 8, 0, 0, 0, time.UTC)
	conv := &Conversation{
		ID:                 "1738483200000",
		Name:               "old one",
		CreatedAt:          at,
		ImagePreview:       "data:image/jpeg;base64,ddd",
		SystemInstructions: "Identify this plant.",
		Response:           "It is a maple.",
	}

	turns := conv.Transcript()
	require.Len(t, turns, 2)

	ut, ok := turns[0].(UserTurn)
	require.True(t, ok)
	assert.Equal(t, "Identify this plant.", ut.Content)
	assert.Equal(t, "data:image/jpeg;base64,ddd", ut.Image)
	assert.Equal(t, at, ut.At)

	at2, ok := turns[1].(AssistantTurn)
	require.True(t, ok)
	assert.Equal(t, "It is a maple.", at2.Content)
	assert.Equal(t, at.Add(time.Second), at2.At)
}

func TestTranscriptPrefersStoredTurns(t *testing.T) {
	conv := NewConversation(time.Now())
	conv.Response = "legacy reply"
	conv.AddUserTurn("real question", "", time.Now())

	turns := conv.Transcript()
	require.Len(t, turns, 1)
	assert.Equal(t, "real question", turns[0].Text())
}

func TestCloneIsIndependent(t *testing.T) {
	conv := NewConversation(time.Now())
	conv.AddUserTurn("original", "", time.Now())

	dup := conv.Clone()
	dup.AddAssistantTurn("added to copy", time.Now())
	dup.Name = "copy"

	assert.Len(t, conv.Turns, 1)
	assert.NotEqual(t, conv.Name, dup.Name)
}

func TestConversationJSONLegacyShape(t *testing.T) {
	conv := NewConversation(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	conv.Name = "oak"
	conv.AddUserTurn("What is this?", "", conv.CreatedAt)

	data, err := json.Marshal(conv)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"id":"1748779200000"`)
	assert.Contains(t, s, `"timestamp":`)
	assert.Contains(t, s, `"messages":`)
	assert.NotContains(t, s, `"imagePreview"`)
}
