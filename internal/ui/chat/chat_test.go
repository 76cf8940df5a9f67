// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaflens/leaflens-tui/internal/api"
	"github.com/leaflens/leaflens-tui/internal/session"
	"github.com/leaflens/leaflens-tui/internal/storage"
)

// stalledAnalyzer blocks until released, keeping the session busy for as
// long as a test needs.
type stalledAnalyzer struct {
	release chan struct{}
}

func (a *stalledAnalyzer) Analyze(ctx context.Context, req api.Request) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-a.release:
		return "All done.", nil
	}
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", humanSize(512))
	assert.Equal(t, "2.0 KB", humanSize(2048))
	assert.Equal(t, "1.5 MB", humanSize(3<<19))
}

func TestShortError(t *testing.T) {
	assert.Equal(t, "Error: bad", shortError(errors.New("Error: bad\n\nTraceback: long details")))

	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, shortError(errors.New(string(long))), 120)
}

func TestClampSelection(t *testing.T) {
	m := &Model{selected: 5}
	m.clampSelection()
	assert.Equal(t, 0, m.selected)
}

func TestTranscriptShowsPendingTurnWhileBusy(t *testing.T) {
	backend := &stalledAnalyzer{release: make(chan struct{})}
	store := storage.NewStore(storage.NewMemoryKV(0), 0)
	sess := session.New(backend, store, "")

	m, err := New(sess, store, "notty")
	require.NoError(t, err)
	m.resize(80, 24)

	cmd := submitCmd(sess, "Is this moss?")
	done := make(chan struct{})
	var doneMsg submitDoneMsg
	go func() {
		doneMsg = cmd().(submitDoneMsg)
		close(done)
	}()
	require.Eventually(t, sess.Busy, time.Second, 5*time.Millisecond)

	// The user turn is appended after submitCmd starts; a spinner tick
	// must pull it into the viewport while the reply is still pending.
	m.Update(spinner.TickMsg{})
	view := m.transcript.View()
	assert.Contains(t, view, "Is this moss?")
	assert.Contains(t, view, "analyzing")

	close(backend.release)
	<-done
	m.Update(doneMsg)
	assert.Contains(t, m.transcript.View(), "All done")
}
