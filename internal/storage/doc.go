// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage persists conversations behind a small key-value
// abstraction.
//
// Everything lives under one key as a JSON array, newest conversation
// first, matching the layout written by earlier clients. Three backends
// implement the KV contract: MemoryKV for tests and ephemeral use, FileKV
// writing atomically to a directory, and SQLiteKV for a single portable
// database file. All backends enforce a byte quota; when a write does not
// fit, the store evicts the oldest conversation and retries until the
// write lands or one conversation remains.
//
// Concurrent processes sharing one store race last-writer-wins. WatchFile
// detects external rewrites so a running UI can reload, but it cannot
// prevent the race.
package storage
