// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/leaflens/leaflens-tui/internal/api"
	"github.com/leaflens/leaflens-tui/internal/imaging"
	"github.com/leaflens/leaflens-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNothingToSend indicates a submit with no prompt and no image.
	ErrNothingToSend = errors.New("nothing to send: attach an image or type a prompt")

	// ErrBusy indicates a submit while another one is in flight. The
	// session is strictly single-flight.
	ErrBusy = errors.New("a submission is already in progress")
)

// =============================================================================
// INTERFACES
// =============================================================================

// Analyzer is the backend call the session makes. *api.Client satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, req api.Request) (string, error)
}

// ConversationStore is the slice of *storage.Store the session needs,
// injected so tests can observe persistence.
type ConversationStore interface {
	Upsert(conv *model.Conversation) ([]*model.Conversation, error)
}

// =============================================================================
// SESSION
// =============================================================================

// State is the session's submission phase.
type State int

const (
	StateIdle State = iota
	StateSubmitting
)

// Attachment is a staged photo: the raw bytes that will be uploaded and
// the compressed preview that travels with the transcript.
type Attachment struct {
	Name    string
	Data    []byte
	Preview string
}

// Session holds the live conversation, the staged attachment, and the
// submit state machine. All methods are safe for concurrent use; Submit
// itself is single-flight and rejects overlapping calls with ErrBusy.
type Session struct {
	mu sync.Mutex

	client Analyzer
	store  ConversationStore
	now    func() time.Time

	conv               *model.Conversation
	attachment         *Attachment
	systemInstructions string
	state              State
}

// New creates an idle session with a fresh conversation. instructions
// empty applies the default persona.
func New(client Analyzer, store ConversationStore, instructions string) *Session {
	if instructions == "" {
		instructions = model.DefaultSystemInstructions
	}
	s := &Session{
		client:             client,
		store:              store,
		now:                time.Now,
		systemInstructions: instructions,
	}
	s.conv = s.freshConversation()
	return s
}

// WithClock overrides the session's clock, for tests.
func (s *Session) WithClock(now func() time.Time) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

func (s *Session) freshConversation() *model.Conversation {
	conv := model.NewConversation(s.now())
	conv.SystemInstructions = s.systemInstructions
	return conv
}

// State returns the current submission phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Busy reports whether a submission is in flight.
func (s *Session) Busy() bool {
	return s.State() == StateSubmitting
}

// Transcript returns a copy of the turns to display.
func (s *Session) Transcript() model.Turns {
	s.mu.Lock()
	defer s.mu.Unlock()
	turns := s.conv.Transcript()
	out := make(model.Turns, len(turns))
	copy(out, turns)
	return out
}

// Current returns a deep copy of the live conversation.
func (s *Session) Current() *model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv.Clone()
}

// SystemInstructions returns the persona in effect.
func (s *Session) SystemInstructions() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.systemInstructions
}

// SetSystemInstructions changes the persona for subsequent requests.
func (s *Session) SetSystemInstructions(instructions string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if instructions == "" {
		instructions = model.DefaultSystemInstructions
	}
	s.systemInstructions = instructions
	s.conv.SystemInstructions = instructions
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

// AttachFile stages the photo at path for the next submission. The
// preview is built eagerly; a preview failure does not block attaching,
// the turn simply shows without a thumbnail.
func (s *Session) AttachFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	return s.AttachBytes(filepath.Base(path), data)
}

// AttachBytes stages an in-memory photo for the next submission.
func (s *Session) AttachBytes(name string, data []byte) error {
	if len(data) > imaging.MaxInputBytes {
		return imaging.ErrImageTooLarge
	}

	var previewURL string
	if preview, err := imaging.EncodePreviewBytes(data); err == nil {
		previewURL = preview.DataURL
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachment = &Attachment{Name: name, Data: data, Preview: previewURL}
	return nil
}

// Attachment returns the currently staged photo, or nil.
func (s *Session) Attachment() *Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attachment
}

// ClearAttachment unstages the photo.
func (s *Session) ClearAttachment() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attachment = nil
}

// =============================================================================
// SUBMIT
// =============================================================================

// Result is what a submission produced. Kept is the conversation list
// actually persisted (after any quota eviction), for sidebar refresh;
// nil when no store is attached. SaveErr reports a persistence failure
// that did not affect the reply itself.
type Result struct {
	Reply   string
	Kept    []*model.Conversation
	SaveErr error
}

// Submit sends the prompt and any staged photo to the backend.
//
// The user turn is appended optimistically before the call, with the
// default question standing in when the prompt is empty. On success the
// reply is appended, the attachment cleared, and the conversation
// persisted. On failure the error is appended as an assistant turn and
// the attachment kept so the user can retry. The prompt is considered
// consumed either way.
func (s *Session) Submit(ctx context.Context, prompt string) (*Result, error) {
	s.mu.Lock()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" && s.attachment == nil {
		s.mu.Unlock()
		return nil, ErrNothingToSend
	}
	s.state = StateSubmitting

	question := prompt
	if question == "" {
		question = model.DefaultPrompt
	}

	// History is the transcript before this turn, text only.
	history := s.conv.Transcript().History()

	var image []byte
	var imageName, previewURL string
	if s.attachment != nil {
		image = s.attachment.Data
		imageName = s.attachment.Name
		previewURL = s.attachment.Preview
	}

	// Optimistic append: the question shows immediately.
	s.conv.AddUserTurn(question, previewURL, s.now())
	instructions := s.systemInstructions
	conv := s.conv
	s.mu.Unlock()

	reply, err := s.client.Analyze(ctx, api.Request{
		Image:              image,
		ImageName:          imageName,
		Prompt:             prompt,
		SystemInstructions: instructions,
		History:            history,
	})

	s.mu.Lock()
	defer func() {
		s.state = StateIdle
		s.mu.Unlock()
	}()

	if err != nil {
		// The failure joins the transcript; the attachment stays staged
		// so the user can fix things and retry.
		conv.AddAssistantTurn(failureText(err), s.now())
		return nil, err
	}

	conv.AddAssistantTurn(reply, s.now())
	conv.Response = reply
	if previewURL != "" {
		conv.ImagePreview = previewURL
	}
	conv.NormalizeName()
	s.attachment = nil

	result := &Result{Reply: reply}
	if s.store != nil {
		kept, saveErr := s.store.Upsert(conv.Clone())
		result.Kept = kept
		result.SaveErr = saveErr
	}
	return result, nil
}

// failureText maps a submit error onto the assistant turn recorded for
// it. Backend-reported failures keep their traceback; unreachable
// backends get the fixed no-response line.
func failureText(err error) string {
	var serverErr *api.ServerError
	switch {
	case errors.As(err, &serverErr):
		return serverErr.TranscriptText()
	case errors.Is(err, api.ErrNoResponse):
		return api.NoResponseText
	default:
		return err.Error()
	}
}

// =============================================================================
// CONVERSATION SWITCHING
// =============================================================================

// NewChat abandons the live conversation and starts a fresh one with the
// default persona. The staged attachment is dropped too. Returns ErrBusy
// while a submission is in flight, so a late reply cannot land in (or
// clear the attachment of) a chat it does not belong to.
func (s *Session) NewChat() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		return ErrBusy
	}
	s.reset()
	return nil
}

// reset replaces the live conversation. Callers hold mu.
func (s *Session) reset() {
	s.systemInstructions = model.DefaultSystemInstructions
	s.conv = s.freshConversation()
	s.attachment = nil
}

// LoadConversation resumes a saved conversation. Legacy conversations
// without a stored transcript get one synthesized from their question
// and reply. Returns ErrBusy while a submission is in flight.
func (s *Session) LoadConversation(conv *model.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		return ErrBusy
	}

	resumed := conv.Clone()
	resumed.Turns = resumed.Transcript()
	resumed.NormalizeName()

	s.conv = resumed
	if resumed.SystemInstructions != "" {
		s.systemInstructions = resumed.SystemInstructions
	}
	s.attachment = nil
	return nil
}

// ResetIfCurrent starts a new chat when the live conversation has the
// given ID. Used after a delete so the UI never shows a ghost. Reports
// false while a submission is in flight.
func (s *Session) ResetIfCurrent(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting || s.conv.ID != id {
		return false
	}
	s.reset()
	return true
}
