// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads client configuration from
// ~/.config/leaflens/config.toml, fills in defaults for unset fields,
// and applies LEAFLENS_* environment overrides on top.
package config
