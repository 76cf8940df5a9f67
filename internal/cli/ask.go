// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// ASK COMMAND
// =============================================================================

// HandleAsk runs a one-shot analysis: optional --image, prompt from
// --prompt or the positional args, answer to stdout. The exchange is
// saved to history like any other conversation.
func HandleAsk(args []string) error {
	parsed := NewArgParser(args)

	prompt := parsed.Flag("prompt")
	if prompt == "" {
		var words []string
		for i := 0; i < parsed.PositionalCount(); i++ {
			words = append(words, parsed.Positional(i))
		}
		prompt = strings.Join(words, " ")
	}
	imagePath := parsed.Flag("image")

	if prompt == "" && imagePath == "" {
		return fmt.Errorf("nothing to ask: pass a prompt or --image <path>")
	}

	app, err := Setup()
	if err != nil {
		return err
	}
	defer app.Store.Close()

	sess := app.NewSession()
	if imagePath != "" {
		if err := sess.AttachFile(imagePath); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(app.Config.API.TimeoutSeconds)*time.Second)
	defer cancel()

	result, err := sess.Submit(ctx, prompt)
	if err != nil {
		// The session already shaped the transcript text; show that.
		turns := sess.Transcript()
		if len(turns) > 0 {
			fmt.Println(turns[len(turns)-1].Text())
		}
		return err
	}

	fmt.Print(renderMarkdown(result.Reply))
	if result.SaveErr != nil {
		Warnf("reply shown but not saved: %v", result.SaveErr)
	}
	return nil
}

// =============================================================================
// VERSION COMMAND
// =============================================================================

// HandleVersion prints build information.
func HandleVersion(version, commit, date string) {
	fmt.Printf("leaflens %s", version)
	if commit != "" {
		fmt.Printf(" (%s)", commit)
	}
	if date != "" {
		fmt.Printf(" built %s", date)
	}
	fmt.Println()
}
