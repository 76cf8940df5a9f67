// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"

	"github.com/leaflens/leaflens-tui/internal/config"
	"github.com/leaflens/leaflens-tui/internal/session"
)

// =============================================================================
// PLAIN-TERMINAL CHAT
// =============================================================================

// ChatCLI is the line-based chat loop for terminals where the TUI is
// unwanted (ssh, scripts, screen readers).
type ChatCLI struct {
	app         *App
	sess        *session.Session
	line        *liner.State
	historyPath string
}

// HandleChat runs the plain chat REPL.
func HandleChat(args []string) error {
	app, err := Setup()
	if err != nil {
		return err
	}
	defer app.Store.Close()

	c, err := newChatCLI(app)
	if err != nil {
		return err
	}
	defer c.close()

	return c.run()
}

func newChatCLI(app *App) (*ChatCLI, error) {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &ChatCLI{
		app:  app,
		sess: app.NewSession(),
		line: line,
	}

	if dir, err := config.Dir(); err == nil {
		c.historyPath = filepath.Join(dir, "chat_history")
		if f, err := os.Open(c.historyPath); err == nil {
			line.ReadHistory(f)
			f.Close()
		}
	}
	return c, nil
}

func (c *ChatCLI) close() {
	if c.historyPath != "" {
		if err := os.MkdirAll(filepath.Dir(c.historyPath), 0o755); err == nil {
			if f, err := os.OpenFile(c.historyPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
				c.line.WriteHistory(f)
				f.Close()
			}
		}
	}
	c.line.Close()
}

func (c *ChatCLI) run() error {
	fmt.Println("leaflens chat - /attach <path> to add a photo, /new to start over, /quit to exit")

	for {
		input, err := c.line.Prompt("you> ")
		if err != nil {
			// Ctrl+C or EOF ends the session.
			fmt.Println()
			return nil
		}
		input = strings.TrimSpace(input)
		if input == "" && c.sess.Attachment() == nil {
			continue
		}
		if input != "" {
			c.line.AppendHistory(input)
		}

		if done, err := c.handleCommand(input); done {
			return err
		} else if err != nil {
			Errorf("%v", err)
			continue
		} else if strings.HasPrefix(input, "/") {
			continue
		}

		c.submit(input)
	}
}

// handleCommand processes slash commands. done reports that the REPL
// should exit.
func (c *ChatCLI) handleCommand(input string) (done bool, err error) {
	switch {
	case input == "/quit" || input == "/exit":
		return true, nil

	case input == "/new":
		if err := c.sess.NewChat(); err != nil {
			return false, err
		}
		fmt.Println("started a new conversation")
		return false, nil

	case strings.HasPrefix(input, "/attach "):
		path := strings.TrimSpace(strings.TrimPrefix(input, "/attach "))
		if err := c.sess.AttachFile(path); err != nil {
			return false, err
		}
		fmt.Printf("attached %s\n", filepath.Base(path))
		return false, nil

	case strings.HasPrefix(input, "/persona "):
		c.sess.SetSystemInstructions(strings.TrimSpace(strings.TrimPrefix(input, "/persona ")))
		fmt.Println("persona updated for this conversation")
		return false, nil

	case strings.HasPrefix(input, "/"):
		return false, fmt.Errorf("unknown command %q", strings.Fields(input)[0])
	}
	return false, nil
}

func (c *ChatCLI) submit(prompt string) {
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(c.app.Config.API.TimeoutSeconds)*time.Second)
	defer cancel()

	result, err := c.sess.Submit(ctx, prompt)
	if err != nil {
		turns := c.sess.Transcript()
		if len(turns) > 0 {
			fmt.Println(turns[len(turns)-1].Text())
		} else {
			Errorf("%v", err)
		}
		return
	}

	fmt.Print(renderMarkdown(result.Reply))
	if result.SaveErr != nil {
		Warnf("reply shown but not saved: %v", result.SaveErr)
	}
}
