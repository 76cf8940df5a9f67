// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session drives one analysis conversation at a time.
//
// A session owns the live conversation, a staged photo attachment, and
// an idle/submitting state machine. Submit appends the user turn before
// calling the backend so the question shows immediately, then appends
// either the reply or the failure text as the assistant turn. Successful
// turns are persisted through the injected store; failures keep the
// attachment staged for retry. Submissions are single-flight.
package session
