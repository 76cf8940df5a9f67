// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"errors"
	"sync"
)

// =============================================================================
// KEY-VALUE ABSTRACTION
// =============================================================================

// StorageKey is the single key all conversations live under. The value is
// a JSON array, newest conversation first. The key name predates this
// client and must not change.
const StorageKey = "imageAnalysisConversations"

var (
	// ErrQuotaExceeded indicates a value does not fit in the backend's
	// remaining space. The store reacts by evicting old conversations.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrKeyNotFound indicates the key has never been written.
	ErrKeyNotFound = errors.New("key not found")
)

// KV is the minimal backend contract the conversation store needs.
// Implementations: MemoryKV (tests), FileKV (default), SQLiteKV.
type KV interface {
	// Get returns the stored value, or ErrKeyNotFound.
	Get(key string) ([]byte, error)

	// Set writes the value, or returns ErrQuotaExceeded when it does
	// not fit.
	Set(key string, value []byte) error

	// Delete removes the key. Deleting a missing key is not an error.
	Delete(key string) error

	// Close releases backend resources.
	Close() error
}

// =============================================================================
// IN-MEMORY BACKEND
// =============================================================================

// MemoryKV is a map-backed KV with an optional byte quota per value.
// Used in tests and as the ephemeral backend.
type MemoryKV struct {
	mu    sync.Mutex
	data  map[string][]byte
	quota int
}

// NewMemoryKV creates an in-memory backend. quota caps the size of any
// single value in bytes; zero means unlimited.
func NewMemoryKV(quota int) *MemoryKV {
	return &MemoryKV{
		data:  make(map[string][]byte),
		quota: quota,
	}
}

func (m *MemoryKV) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.quota > 0 && len(value) > m.quota {
		return ErrQuotaExceeded
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	return nil
}

func (m *MemoryKV) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryKV) Close() error { return nil }
