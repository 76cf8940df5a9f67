// leaflens - a terminal client for the plant image-analysis assistant.
//
// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"os"

	"github.com/leaflens/leaflens-tui/internal/cli"
	"github.com/leaflens/leaflens-tui/internal/ui/chat"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	command, args := cli.Parse()

	var err error
	switch command {
	case "":
		err = runTUI()
	case "ask":
		err = cli.HandleAsk(args)
	case "chat":
		err = cli.HandleChat(args)
	case "history":
		err = cli.HandleHistory(args)
	case "export":
		err = cli.HandleExport(args)
	case "config":
		err = cli.HandleConfig(args)
	case "version", "--version", "-v":
		cli.HandleVersion(Version, GitCommit, BuildDate)
	case "help", "--help", "-h":
		cli.Usage()
	default:
		cli.Errorf("unknown command %q", command)
		cli.Usage()
		os.Exit(2)
	}

	if err != nil {
		cli.Errorf("%v", err)
		os.Exit(1)
	}
}

func runTUI() error {
	app, err := cli.Setup()
	if err != nil {
		return err
	}
	defer app.Store.Close()

	return chat.Run(app.NewSession(), app.Store, app.StorePath, app.Config.UI.Theme)
}
