// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// STORE FILE WATCHER
// =============================================================================

// Watcher notifies when another process rewrites the store file, so the
// UI can reload instead of showing stale conversations. Detection is best
// effort: concurrent writers still race last-writer-wins.
type Watcher struct {
	fw   *fsnotify.Watcher
	done chan struct{}
}

// debounceWindow coalesces the create+write burst an atomic rename emits.
const debounceWindow = 200 * time.Millisecond

// WatchFile watches path and invokes onChange (on a background goroutine)
// after each external modification. The parent directory is watched, not
// the file itself, because atomic writes replace the inode.
func WatchFile(path string, onChange func()) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(path), err)
	}

	w := &Watcher{fw: fw, done: make(chan struct{})}
	target := filepath.Clean(path)

	go func() {
		var timer *time.Timer
		for {
			select {
			case <-w.done:
				if timer != nil {
					timer.Stop()
				}
				return
			case event, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debounceWindow, onChange)
			case _, ok := <-fw.Errors:
				if !ok {
					return
				}
				// Watch errors are non-fatal; the store still works,
				// only external-change detection degrades.
			}
		}
	}()

	return w, nil
}

// Close stops watching. Safe to call once.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}
