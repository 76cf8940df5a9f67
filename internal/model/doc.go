// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model defines conversations and the turns they contain.
//
// A transcript holds two turn variants: UserTurn, which may carry a
// compressed image preview, and AssistantTurn, which never does. The JSON
// encoding of both conversations and turns is the legacy shape written by
// earlier clients, so existing stores load unchanged.
package model
