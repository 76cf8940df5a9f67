// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/leaflens/leaflens-tui/internal/model"
)

// =============================================================================
// CONVERSATION STORE
// =============================================================================

var (
	// ErrCorruptStore indicates the stored blob did not parse. Callers
	// treat this as a warning: the store starts over empty rather than
	// refusing to run.
	ErrCorruptStore = errors.New("conversation store is corrupt")

	// ErrNotFound indicates no conversation has the requested ID.
	ErrNotFound = errors.New("conversation not found")
)

// Store persists the full conversation list as one JSON array under
// StorageKey, newest conversation first. When the backend rejects a write
// for space, the oldest conversation is evicted and the write retried, so
// the in-memory list always matches what is actually on disk.
//
// Writes are last-writer-wins: two processes sharing one store file can
// clobber each other. The fsnotify watcher detects external rewrites but
// does not prevent them.
type Store struct {
	mu  sync.Mutex
	kv  KV
	max int
}

// NewStore creates a conversation store over the given backend. max caps
// how many conversations are kept regardless of space; zero means no cap.
func NewStore(kv KV, max int) *Store {
	return &Store{kv: kv, max: max}
}

// Load reads every saved conversation, newest first, normalizing missing
// names. A missing key yields an empty list. A blob that does not parse
// yields an empty list and ErrCorruptStore, which callers surface as a
// warning.
func (s *Store) Load() ([]*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Save persists the list, evicting the oldest conversation and retrying
// whenever the backend reports ErrQuotaExceeded. It returns the list that
// was actually persisted. When even a single conversation does not fit,
// ErrQuotaExceeded is returned and nothing is written.
func (s *Store) Save(convs []*model.Conversation) ([]*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(convs)
}

func (s *Store) saveLocked(convs []*model.Conversation) ([]*model.Conversation, error) {
	if s.max > 0 && len(convs) > s.max {
		convs = convs[:s.max]
	}

	for {
		data, err := json.Marshal(convs)
		if err != nil {
			return nil, fmt.Errorf("failed to encode conversations: %w", err)
		}

		err = s.kv.Set(StorageKey, data)
		if err == nil {
			return convs, nil
		}
		if !errors.Is(err, ErrQuotaExceeded) {
			return nil, fmt.Errorf("failed to save conversations: %w", err)
		}
		if len(convs) <= 1 {
			return nil, err
		}
		// List is newest first; the last element is the oldest.
		convs = convs[:len(convs)-1]
	}
}

// Upsert replaces the conversation with a matching ID, or prepends it as
// the newest. The persisted list (after any eviction) is returned.
func (s *Store) Upsert(conv *model.Conversation) ([]*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs, err := s.loadLocked()
	if err != nil && !errors.Is(err, ErrCorruptStore) {
		return nil, err
	}

	replaced := false
	for i, existing := range convs {
		if existing.ID == conv.ID {
			convs[i] = conv
			replaced = true
			break
		}
	}
	if !replaced {
		convs = append([]*model.Conversation{conv}, convs...)
	}
	return s.saveLocked(convs)
}

// Get returns the conversation with the given ID, or ErrNotFound.
func (s *Store) Get(id string) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs, err := s.loadLocked()
	if err != nil {
		return nil, err
	}
	for _, conv := range convs {
		if conv.ID == id {
			return conv, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Delete removes the conversation with the given ID. Deleting an unknown
// ID returns ErrNotFound.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs, err := s.loadLocked()
	if err != nil {
		return err
	}
	kept := convs[:0]
	found := false
	for _, conv := range convs {
		if conv.ID == id {
			found = true
			continue
		}
		kept = append(kept, conv)
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	_, err = s.saveLocked(kept)
	return err
}

// Rename sets a conversation's display name.
func (s *Store) Rename(id, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	convs, err := s.loadLocked()
	if err != nil {
		return err
	}
	for _, conv := range convs {
		if conv.ID == id {
			conv.Name = name
			conv.NormalizeName()
			_, err = s.saveLocked(convs)
			return err
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Close releases the underlying backend.
func (s *Store) Close() error {
	return s.kv.Close()
}

func (s *Store) loadLocked() ([]*model.Conversation, error) {
	data, err := s.kv.Get(StorageKey)
	if errors.Is(err, ErrKeyNotFound) {
		return []*model.Conversation{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}
	var convs []*model.Conversation
	if err := json.Unmarshal(data, &convs); err != nil {
		return []*model.Conversation{}, fmt.Errorf("%w: %v", ErrCorruptStore, err)
	}
	for _, conv := range convs {
		conv.NormalizeName()
	}
	return convs, nil
}
