// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/leaflens/leaflens-tui/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// DefaultSystemInstructions is the persona sent with every request unless
// the user configures their own.
const DefaultSystemInstructions = "You are a distinguished scholar in botanical sciences. Your job is to identify plants from images and provide detailed, scientific, and practical information about them. You can also answer general botanical questions without an image. If the user asks a question without an image, answer it to the best of your botanical knowledge. If the image is not a plant, politely explain that your expertise is limited to botany."

// DefaultPrompt is the question sent when the user attaches a photo
// without typing anything.
const DefaultPrompt = "Analyze this image and tell me what you see."

// FallbackName labels conversations whose transcript has no user text.
const FallbackName = "Image analysis"

// MaxNameRunes bounds conversation names in the sidebar and history list.
const MaxNameRunes = 40

// =============================================================================
// CONVERSATION
// =============================================================================

// Conversation is one saved analysis session. Field names match the
// stored JSON written by earlier clients, so old stores keep loading.
//
// ImagePreview and Response duplicate data from the transcript; they are
// kept for conversations written before full transcripts were stored and
// are used to synthesize a two-turn transcript when Turns is empty.
type Conversation struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	CreatedAt          time.Time `json:"timestamp"`
	ImagePreview       string    `json:"imagePreview,omitempty"`
	SystemInstructions string    `json:"systemInstructions,omitempty"`
	Response           string    `json:"response,omitempty"`
	Turns              Turns     `json:"messages"`
}

// NewConversation creates an empty conversation stamped at now. The ID is
// the creation time in Unix milliseconds, matching IDs in existing stores.
func NewConversation(now time.Time) *Conversation {
	return &Conversation{
		ID:                 strconv.FormatInt(now.UnixMilli(), 10),
		CreatedAt:          now,
		SystemInstructions: DefaultSystemInstructions,
	}
}

// AddUserTurn appends a user turn to the transcript.
func (c *Conversation) AddUserTurn(content, image string, at time.Time) {
	c.Turns = append(c.Turns, UserTurn{Content: content, Image: image, At: at})
}

// AddAssistantTurn appends an assistant turn to the transcript.
func (c *Conversation) AddAssistantTurn(content string, at time.Time) {
	c.Turns = append(c.Turns, AssistantTurn{Content: content, At: at})
}

// NormalizeName fills in Name from the first user turn when it is
// missing. The stored name is kept at full length so it round-trips
// exactly; views truncate for display. A non-empty name is left alone,
// since a rename is indistinguishable from a legacy one. Conversations
// with no user text get FallbackName.
func (c *Conversation) NormalizeName() {
	if name := strings.TrimSpace(c.Name); name != "" {
		c.Name = name
		return
	}
	if ut, ok := c.Turns.FirstUser(); ok {
		if name := strings.TrimSpace(ut.Content); name != "" {
			c.Name = name
			return
		}
	}
	c.Name = FallbackName
}

// Transcript returns the turns to display. Conversations written by early
// clients stored only the question, preview and reply; for those the two
// turns are synthesized, with the reply stamped one second after the ask.
func (c *Conversation) Transcript() Turns {
	if len(c.Turns) > 0 {
		return c.Turns
	}
	// Only legacy records carry a response without turns; a fresh
	// conversation has neither.
	if c.Response == "" {
		return nil
	}
	return Turns{
		UserTurn{
			Content: c.SystemInstructions,
			Image:   c.ImagePreview,
			At:      c.CreatedAt,
		},
		AssistantTurn{
			Content: c.Response,
			At:      c.CreatedAt.Add(time.Second),
		},
	}
}

// Clone returns a deep copy safe to mutate independently.
func (c *Conversation) Clone() *Conversation {
	dup := *c
	dup.Turns = make(Turns, len(c.Turns))
	copy(dup.Turns, c.Turns)
	return &dup
}

// Preview returns a short single-line summary of the latest turn.
func (c *Conversation) Preview(maxRunes int) string {
	turns := c.Transcript()
	if len(turns) == 0 {
		return ""
	}
	last := turns[len(turns)-1]
	line := strings.ReplaceAll(last.Text(), "\n", " ")
	return util.TruncateRunes(strings.TrimSpace(line), maxRunes)
}
