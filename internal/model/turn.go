// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// =============================================================================
// ROLES
// =============================================================================

// Role identifies who produced a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// =============================================================================
// TURN VARIANTS
// =============================================================================

// Turn is one entry in a conversation transcript. There are exactly two
// variants: UserTurn, which may carry an attached image preview, and
// AssistantTurn, which never does. Keeping the variants as distinct types
// makes an assistant turn with an image unrepresentable.
type Turn interface {
	Role() Role
	Text() string
	When() time.Time
}

// UserTurn is a question from the user, optionally with a photo attached.
type UserTurn struct {
	Content string
	// Image is the compressed preview data URL, empty when no photo
	// accompanied the question.
	Image string
	At    time.Time
}

func (t UserTurn) Role() Role      { return RoleUser }
func (t UserTurn) Text() string    { return t.Content }
func (t UserTurn) When() time.Time { return t.At }

// HasImage reports whether a photo accompanied this turn.
func (t UserTurn) HasImage() bool { return t.Image != "" }

// AssistantTurn is a reply from the analysis backend. Error replies are
// stored as assistant turns too, with the error text as content.
type AssistantTurn struct {
	Content string
	At      time.Time
}

func (t AssistantTurn) Role() Role      { return RoleAssistant }
func (t AssistantTurn) Text() string    { return t.Content }
func (t AssistantTurn) When() time.Time { return t.At }

// =============================================================================
// WIRE FORMAT
// =============================================================================

// turnJSON is the stored shape of a turn. The field names predate this
// client; stores written by earlier versions must keep loading.
type turnJSON struct {
	IsUser    bool      `json:"isUser"`
	Content   string    `json:"content"`
	Image     string    `json:"image,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Turns is a transcript slice with the legacy JSON encoding.
type Turns []Turn

// MarshalJSON encodes the transcript as an array of
// {isUser, content, image?, timestamp} objects.
func (ts Turns) MarshalJSON() ([]byte, error) {
	out := make([]turnJSON, 0, len(ts))
	for _, t := range ts {
		entry := turnJSON{
			IsUser:    t.Role() == RoleUser,
			Content:   t.Text(),
			Timestamp: t.When(),
		}
		if ut, ok := t.(UserTurn); ok {
			entry.Image = ut.Image
		}
		out = append(out, entry)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the legacy array form back into typed turns.
// An image on a non-user entry is dropped rather than rejected.
func (ts *Turns) UnmarshalJSON(data []byte) error {
	var raw []turnJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode transcript: %w", err)
	}
	out := make(Turns, 0, len(raw))
	for _, entry := range raw {
		if entry.IsUser {
			out = append(out, UserTurn{
				Content: entry.Content,
				Image:   entry.Image,
				At:      entry.Timestamp,
			})
		} else {
			out = append(out, AssistantTurn{
				Content: entry.Content,
				At:      entry.Timestamp,
			})
		}
	}
	*ts = out
	return nil
}

// FirstUser returns the first user turn in the transcript, if any.
func (ts Turns) FirstUser() (UserTurn, bool) {
	for _, t := range ts {
		if ut, ok := t.(UserTurn); ok {
			return ut, true
		}
	}
	return UserTurn{}, false
}

// History returns the text-only {isUser, content} pairs sent to the
// backend as prior context. Images are stripped to keep payloads small.
func (ts Turns) History() []HistoryEntry {
	out := make([]HistoryEntry, 0, len(ts))
	for _, t := range ts {
		out = append(out, HistoryEntry{
			IsUser:  t.Role() == RoleUser,
			Content: t.Text(),
		})
	}
	return out
}

// HistoryEntry is the wire shape of one prior turn in an analysis request.
type HistoryEntry struct {
	IsUser  bool   `json:"isUser"`
	Content string `json:"content"`
}
