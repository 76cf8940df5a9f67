// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaflens/leaflens-tui/internal/api"
	"github.com/leaflens/leaflens-tui/internal/model"
	"github.com/leaflens/leaflens-tui/internal/storage"
)

// fakeAnalyzer scripts backend behavior and records what it was sent.
type fakeAnalyzer struct {
	mu      sync.Mutex
	reply   string
	err     error
	delay   time.Duration
	lastReq api.Request
	calls   int
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req api.Request) (string, error) {
	f.mu.Lock()
	f.lastReq = req
	f.calls++
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delay):
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeAnalyzer) last() api.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 20, G: 90, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newTestStore() *storage.Store {
	return storage.NewStore(storage.NewMemoryKV(0), 0)
}

// tickingClock hands out strictly increasing timestamps so conversation
// IDs never collide within one test.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

// =============================================================================
// SUBMIT: HAPPY PATH
// =============================================================================

func TestSubmitWithPhotoAndPrompt(t *testing.T) {
	backend := &fakeAnalyzer{reply: "This appears to be Quercus alba, the white oak."}
	store := newTestStore()
	sess := New(backend, store, "")

	require.NoError(t, sess.AttachBytes("oak.png", pngBytes(t, 400, 300)))

	result, err := sess.Submit(context.Background(), "What is this?")
	require.NoError(t, err)
	assert.Equal(t, "This appears to be Quercus alba, the white oak.", result.Reply)

	turns := sess.Transcript()
	require.Len(t, turns, 2)

	ut, ok := turns[0].(model.UserTurn)
	require.True(t, ok)
	assert.Equal(t, "What is this?", ut.Content)
	assert.True(t, ut.HasImage(), "user turn carries the preview")

	at, ok := turns[1].(model.AssistantTurn)
	require.True(t, ok)
	assert.Equal(t, "This appears to be Quercus alba, the white oak.", at.Content)

	// Attachment cleared on success.
	assert.Nil(t, sess.Attachment())
	assert.Equal(t, StateIdle, sess.State())

	// Persisted with the question as the name.
	saved, err := store.Load()
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "What is this?", saved[0].Name)
	require.Len(t, saved[0].Turns, 2)
}

func TestSubmitEmptyPromptDefaultsQuestion(t *testing.T) {
	backend := &fakeAnalyzer{reply: "A leaf."}
	sess := New(backend, newTestStore(), "")
	require.NoError(t, sess.AttachBytes("leaf.png", pngBytes(t, 100, 100)))

	_, err := sess.Submit(context.Background(), "   ")
	require.NoError(t, err)

	// The displayed turn carries the default question; the raw prompt
	// sent to the backend stays empty.
	turns := sess.Transcript()
	assert.Equal(t, model.DefaultPrompt, turns[0].Text())
	assert.Equal(t, "", backend.last().Prompt)
	assert.Equal(t, model.DefaultSystemInstructions, backend.last().SystemInstructions)
}

func TestSubmitSendsPriorHistoryOnly(t *testing.T) {
	backend := &fakeAnalyzer{reply: "first reply"}
	sess := New(backend, newTestStore(), "")

	_, err := sess.Submit(context.Background(), "first question")
	require.NoError(t, err)
	assert.Empty(t, backend.last().History, "first turn has no history")

	backend.reply = "second reply"
	_, err = sess.Submit(context.Background(), "second question")
	require.NoError(t, err)

	hist := backend.last().History
	require.Len(t, hist, 2, "history excludes the turn being submitted")
	assert.Equal(t, model.HistoryEntry{IsUser: true, Content: "first question"}, hist[0])
	assert.Equal(t, model.HistoryEntry{IsUser: false, Content: "first reply"}, hist[1])
}

func TestSubmitPromptOnlyNoImage(t *testing.T) {
	backend := &fakeAnalyzer{reply: "General botany answer."}
	sess := New(backend, newTestStore(), "")

	_, err := sess.Submit(context.Background(), "Do ferns flower?")
	require.NoError(t, err)

	assert.Nil(t, backend.last().Image)
	turns := sess.Transcript()
	ut := turns[0].(model.UserTurn)
	assert.False(t, ut.HasImage())
}

// =============================================================================
// SUBMIT: REJECTIONS
// =============================================================================

func TestSubmitNothingToSend(t *testing.T) {
	backend := &fakeAnalyzer{reply: "unused"}
	sess := New(backend, newTestStore(), "")

	_, err := sess.Submit(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNothingToSend)

	// No state change at all.
	assert.Empty(t, sess.Transcript())
	assert.Equal(t, 0, backend.calls)
	assert.Equal(t, StateIdle, sess.State())
}

func TestSubmitSingleFlight(t *testing.T) {
	backend := &fakeAnalyzer{reply: "slow reply", delay: 300 * time.Millisecond}
	sess := New(backend, newTestStore(), "")

	done := make(chan error, 1)
	go func() {
		_, err := sess.Submit(context.Background(), "first")
		done <- err
	}()

	// Wait until the first submit is in flight.
	require.Eventually(t, sess.Busy, time.Second, 5*time.Millisecond)

	_, err := sess.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)

	require.NoError(t, <-done)
	assert.Equal(t, 1, backend.calls)

	// The rejected submit left no trace in the transcript.
	turns := sess.Transcript()
	require.Len(t, turns, 2)
	assert.Equal(t, "first", turns[0].Text())
}

// =============================================================================
// SUBMIT: FAILURES
// =============================================================================

func TestSubmitBackendErrorBecomesAssistantTurn(t *testing.T) {
	backend := &fakeAnalyzer{err: &api.ServerError{
		Status:    400,
		Message:   "Unsupported image format",
		Traceback: "ValueError: bad magic",
	}}
	sess := New(backend, newTestStore(), "")
	require.NoError(t, sess.AttachBytes("bad.png", pngBytes(t, 50, 50)))

	_, err := sess.Submit(context.Background(), "What is this?")
	require.Error(t, err)

	turns := sess.Transcript()
	require.Len(t, turns, 2)
	assert.Equal(t, "Error: Unsupported image format\n\nTraceback: ValueError: bad magic",
		turns[1].Text())
	assert.Equal(t, model.RoleAssistant, turns[1].Role())

	// The attachment survives a failure so the user can retry.
	assert.NotNil(t, sess.Attachment())
	assert.Equal(t, StateIdle, sess.State())
}

func TestSubmitErrorEnvelopeNotPersisted(t *testing.T) {
	// A 200 response carrying {error: ...} surfaces as a ServerError with
	// no HTTP status. It must behave like any other failure: error turn
	// appended, nothing saved, attachment kept for the retry.
	backend := &fakeAnalyzer{err: &api.ServerError{
		Message:   "Unsupported image format",
		Traceback: "No traceback available",
	}}
	store := newTestStore()
	sess := New(backend, store, "")
	require.NoError(t, sess.AttachBytes("weird.png", pngBytes(t, 50, 50)))

	_, err := sess.Submit(context.Background(), "")
	require.Error(t, err)

	turns := sess.Transcript()
	require.Len(t, turns, 2)
	assert.Equal(t, "Error: Unsupported image format\n\nTraceback: No traceback available",
		turns[1].Text())

	saved, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, saved, "failed submissions never create a snapshot")
	assert.NotNil(t, sess.Attachment(), "photo stays staged for a retry")
}

func TestSubmitUnreachableBackend(t *testing.T) {
	backend := &fakeAnalyzer{err: api.ErrNoResponse}
	store := newTestStore()
	sess := New(backend, store, "")

	_, err := sess.Submit(context.Background(), "hello?")
	require.Error(t, err)

	turns := sess.Transcript()
	require.Len(t, turns, 2)
	assert.Equal(t, "No response from server. Check if the backend is running.", turns[1].Text())

	// Failures are not persisted.
	saved, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, saved)
}

// =============================================================================
// EVICTION VISIBILITY
// =============================================================================

func TestSubmitEvictionSurfacesInResult(t *testing.T) {
	// Quota sized so one chunky conversation fits but two do not.
	store := storage.NewStore(storage.NewMemoryKV(8192), 0)
	filler := strings.Repeat("botanical detail ", 100)

	backend := &fakeAnalyzer{reply: filler}
	sess := New(backend, store, "").WithClock(tickingClock())
	_, err := sess.Submit(context.Background(), "first question")
	require.NoError(t, err)

	require.NoError(t, sess.NewChat())
	backend.mu.Lock()
	backend.reply = filler + " again"
	backend.mu.Unlock()

	result, err := sess.Submit(context.Background(), "second question")
	require.NoError(t, err)
	require.NoError(t, result.SaveErr)

	// The old conversation was evicted to make room; the persisted list
	// matches what the store reported back.
	require.Len(t, result.Kept, 1)
	assert.Equal(t, "second question", result.Kept[0].Name)

	saved, err := store.Load()
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "second question", saved[0].Name)
}

// =============================================================================
// CONVERSATION SWITCHING
// =============================================================================

func TestNewChatResetsEverything(t *testing.T) {
	backend := &fakeAnalyzer{reply: "a reply"}
	sess := New(backend, newTestStore(), "custom persona").WithClock(tickingClock())

	require.NoError(t, sess.AttachBytes("x.png", pngBytes(t, 10, 10)))
	_, err := sess.Submit(context.Background(), "q")
	require.NoError(t, err)

	oldID := sess.Current().ID
	require.NoError(t, sess.NewChat())

	assert.Empty(t, sess.Transcript())
	assert.Nil(t, sess.Attachment())
	assert.NotEqual(t, oldID, sess.Current().ID)
	assert.Equal(t, model.DefaultSystemInstructions, sess.SystemInstructions())
}

func TestNewChatWhileSubmitting(t *testing.T) {
	backend := &fakeAnalyzer{reply: "slow reply", delay: 300 * time.Millisecond}
	sess := New(backend, newTestStore(), "")
	require.NoError(t, sess.AttachBytes("x.png", pngBytes(t, 10, 10)))

	done := make(chan error, 1)
	go func() {
		_, err := sess.Submit(context.Background(), "in flight")
		done <- err
	}()
	require.Eventually(t, sess.Busy, time.Second, 5*time.Millisecond)

	// Neither reset may land while the reply is pending; a late success
	// would otherwise write into the wrong chat.
	assert.ErrorIs(t, sess.NewChat(), ErrBusy)
	assert.False(t, sess.ResetIfCurrent(sess.Current().ID))

	require.NoError(t, <-done)
	turns := sess.Transcript()
	require.Len(t, turns, 2)
	assert.Equal(t, "slow reply", turns[1].Text())
}

func TestLoadConversationRestoresTranscript(t *testing.T) {
	backend := &fakeAnalyzer{reply: "saved reply"}
	sess := New(backend, newTestStore(), "")

	saved := model.NewConversation(time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC))
	saved.SystemInstructions = "moss persona"
	saved.AddUserTurn("old question", "", saved.CreatedAt)
	saved.AddAssistantTurn("old answer", saved.CreatedAt.Add(time.Second))

	require.NoError(t, sess.LoadConversation(saved))

	turns := sess.Transcript()
	require.Len(t, turns, 2)
	assert.Equal(t, "old question", turns[0].Text())
	assert.Equal(t, "moss persona", sess.SystemInstructions())
}

func TestLoadLegacyConversationSynthesizesTurns(t *testing.T) {
	sess := New(&fakeAnalyzer{}, newTestStore(), "")

	legacy := &model.Conversation{
		ID:                 "1700000000000",
		CreatedAt:          time.Date(2023, 11, 14, 22, 13, 20, 0, time.UTC),
		ImagePreview:       "data:image/jpeg;base64,fff",
		SystemInstructions: "Identify this plant.",
		Response:           "A dandelion.",
	}

	require.NoError(t, sess.LoadConversation(legacy))

	turns := sess.Transcript()
	require.Len(t, turns, 2)
	ut := turns[0].(model.UserTurn)
	assert.Equal(t, "Identify this plant.", ut.Content)
	assert.True(t, ut.HasImage())
	assert.Equal(t, "A dandelion.", turns[1].Text())
}

func TestResetIfCurrent(t *testing.T) {
	sess := New(&fakeAnalyzer{}, newTestStore(), "").WithClock(tickingClock())
	id := sess.Current().ID

	assert.False(t, sess.ResetIfCurrent("other-id"))
	assert.Equal(t, id, sess.Current().ID)

	assert.True(t, sess.ResetIfCurrent(id))
	assert.NotEqual(t, id, sess.Current().ID)
}
