// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small shared helpers for the leaflens client.
//
// String helpers are rune- and width-aware so conversation names and
// transcript previews never split multi-byte UTF-8 characters. File
// helpers write atomically so the conversation store survives crashes.
package util
