// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the main TUI screen: a conversation sidebar,
// a markdown-rendered transcript, and the prompt box with photo
// attachment support.
package chat
