// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements leaflens command-line commands and dispatch.
package cli

import "strings"

// =============================================================================
// ARGUMENT PARSING
// =============================================================================

// ArgParser gives every command the same flag handling:
//
//	--flag value    --flag=value    --flag (boolean)    positional args
//
// The first positional argument is the subcommand.
type ArgParser struct {
	subcommand string
	flags      map[string]string
	boolFlags  map[string]bool
	positional []string
}

// NewArgParser parses raw arguments.
func NewArgParser(raw []string) *ArgParser {
	p := &ArgParser{
		flags:     make(map[string]string),
		boolFlags: make(map[string]bool),
	}

	i := 0
	for i < len(raw) {
		arg := raw[i]
		if !strings.HasPrefix(arg, "-") {
			p.positional = append(p.positional, arg)
			i++
			continue
		}

		name := strings.TrimLeft(arg, "-")
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			p.flags[name[:eq]] = name[eq+1:]
			i++
			continue
		}
		if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
			p.flags[name] = raw[i+1]
			i += 2
			continue
		}
		p.boolFlags[name] = true
		i++
	}

	if len(p.positional) > 0 {
		p.subcommand = p.positional[0]
	}
	return p
}

// Subcommand returns the first positional argument, or "".
func (p *ArgParser) Subcommand() string { return p.subcommand }

// Flag returns a string flag's value, or "".
func (p *ArgParser) Flag(name string) string { return p.flags[name] }

// FlagOr returns a string flag's value, or def when unset.
func (p *ArgParser) FlagOr(name, def string) string {
	if v, ok := p.flags[name]; ok {
		return v
	}
	return def
}

// BoolFlag reports whether a boolean flag was set.
func (p *ArgParser) BoolFlag(name string) bool { return p.boolFlags[name] }

// Positional returns the positional argument at index, or "".
func (p *ArgParser) Positional(index int) string {
	if index < len(p.positional) {
		return p.positional[index]
	}
	return ""
}

// PositionalCount returns how many positional arguments were given.
func (p *ArgParser) PositionalCount() int { return len(p.positional) }
