// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/leaflens/leaflens-tui/internal/export"
)

// =============================================================================
// EXPORT COMMAND
// =============================================================================

// HandleExport writes a saved conversation to a file in the requested
// format.
func HandleExport(args []string) error {
	parsed := NewArgParser(args)

	id := parsed.Positional(0)
	if id == "" {
		return fmt.Errorf("usage: leaflens export <id> [--format markdown|json|html] [--out <dir>]")
	}

	app, err := Setup()
	if err != nil {
		return err
	}
	defer app.Store.Close()

	conv, err := app.Store.Get(id)
	if err != nil {
		return err
	}

	opts := &export.Options{
		OutputDir:         parsed.FlagOr("out", "."),
		IncludeTimestamps: true,
		IncludeImages:     !parsed.BoolFlag("no-images"),
		Theme:             app.Config.UI.Theme,
	}
	exporter, err := export.ForFormat(parsed.FlagOr("format", "markdown"), opts)
	if err != nil {
		return err
	}

	path, err := export.ExportToFile(conv, exporter, opts)
	if err != nil {
		return err
	}

	fmt.Printf("exported to %s\n", path)
	return nil
}
