// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/leaflens/leaflens-tui/internal/config"
	"github.com/leaflens/leaflens-tui/internal/model"
)

// =============================================================================
// CONFIG COMMAND
// =============================================================================

// HandleConfig inspects and edits the config file: show, path,
// persona [text], reset-persona.
func HandleConfig(args []string) error {
	parsed := NewArgParser(args)

	switch parsed.Subcommand() {
	case "", "show":
		return configShow()
	case "path":
		return configPath()
	case "persona":
		var words []string
		for i := 1; i < parsed.PositionalCount(); i++ {
			words = append(words, parsed.Positional(i))
		}
		return configPersona(strings.Join(words, " "))
	case "reset-persona":
		return configPersona(model.DefaultSystemInstructions)
	default:
		return fmt.Errorf("unknown config subcommand %q (want show, path, persona or reset-persona)", parsed.Subcommand())
	}
}

func configShow() error {
	cfg, err := config.Global()
	if err != nil {
		return err
	}
	return toml.NewEncoder(os.Stdout).Encode(cfg)
}

func configPath() error {
	path, err := config.DefaultPath()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

// configPersona prints the current persona when text is empty, otherwise
// writes the new persona to the config file.
func configPersona(text string) error {
	cfg, err := config.Global()
	if err != nil {
		return err
	}
	if text == "" {
		fmt.Println(cfg.Chat.SystemInstructions)
		return nil
	}

	cfg.Chat.SystemInstructions = text
	if err := cfg.Save(""); err != nil {
		return err
	}
	fmt.Println("persona saved")
	return nil
}
