// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leaflens/leaflens-tui/internal/util"
)

// =============================================================================
// FILE BACKEND
// =============================================================================

// DefaultQuotaBytes mirrors the ~5 MB budget browsers give localStorage,
// which is what existing stores were sized against.
const DefaultQuotaBytes = 5 << 20

// FileKV stores each key as a JSON file in a directory. Writes are atomic
// so a crash never leaves a half-written store. A byte quota per value
// gives the same failure mode as a full localStorage.
type FileKV struct {
	dir   string
	quota int
}

// NewFileKV creates a file backend rooted at dir. quota caps the size of
// any single value in bytes; zero applies DefaultQuotaBytes, negative
// disables the cap.
func NewFileKV(dir string, quota int) (*FileKV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	if quota == 0 {
		quota = DefaultQuotaBytes
	}
	return &FileKV{dir: dir, quota: quota}, nil
}

// Path returns the file a key is stored at. Watchers use this to follow
// external rewrites of the store.
func (f *FileKV) Path(key string) string {
	return filepath.Join(f.dir, sanitizeKey(key)+".json")
}

func (f *FileKV) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(f.Path(key))
	if os.IsNotExist(err) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, nil
}

func (f *FileKV) Set(key string, value []byte) error {
	if f.quota > 0 && len(value) > f.quota {
		return ErrQuotaExceeded
	}
	if err := util.AtomicWriteFile(f.Path(key), value, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (f *FileKV) Delete(key string) error {
	err := os.Remove(f.Path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (f *FileKV) Close() error { return nil }

// sanitizeKey keeps key-derived filenames flat and path-safe.
func sanitizeKey(key string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_", ":", "_")
	return replacer.Replace(key)
}
