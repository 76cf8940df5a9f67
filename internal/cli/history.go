// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leaflens/leaflens-tui/internal/model"
	"github.com/leaflens/leaflens-tui/internal/storage"
	"github.com/leaflens/leaflens-tui/internal/ui/styles"
	"github.com/leaflens/leaflens-tui/internal/util"
)

// =============================================================================
// HISTORY COMMAND
// =============================================================================

// HandleHistory manages saved conversations: list, show <id>, delete <id>,
// rename <id> <name>.
func HandleHistory(args []string) error {
	parsed := NewArgParser(args)

	app, err := Setup()
	if err != nil {
		return err
	}
	defer app.Store.Close()

	switch parsed.Subcommand() {
	case "", "list":
		return historyList(app)
	case "show":
		return historyShow(app, parsed.Positional(1))
	case "delete":
		return historyDelete(app, parsed.Positional(1))
	case "rename":
		return historyRename(app, parsed.Positional(1), parsed.Positional(2))
	default:
		return fmt.Errorf("unknown history subcommand %q (want list, show, delete or rename)", parsed.Subcommand())
	}
}

func historyList(app *App) error {
	convs, err := app.Store.Load()
	if err != nil && !errors.Is(err, storage.ErrCorruptStore) {
		return err
	}
	if errors.Is(err, storage.ErrCorruptStore) {
		Warnf("saved history was unreadable and has been reset")
	}
	if len(convs) == 0 {
		fmt.Println("no saved conversations")
		return nil
	}

	for _, conv := range convs {
		marker := "  "
		if conv.ImagePreview != "" {
			marker = "* "
		}
		fmt.Printf("%s%s  %s  %s\n",
			marker,
			conv.ID,
			conv.CreatedAt.Format("2006-01-02 15:04"),
			util.TruncateRunes(conv.Name, model.MaxNameRunes))
	}
	fmt.Printf("\n%d conversation(s), * = has photo\n", len(convs))
	return nil
}

func historyShow(app *App, id string) error {
	if id == "" {
		return fmt.Errorf("usage: leaflens history show <id>")
	}
	conv, err := app.Store.Get(id)
	if err != nil {
		return err
	}

	fmt.Println(styles.TitleStyle.Render(conv.Name))
	fmt.Printf("%s  %s\n\n", conv.ID, conv.CreatedAt.Format("2006-01-02 15:04:05"))

	for _, turn := range conv.Transcript() {
		label := "assistant"
		if turn.Role() == model.RoleUser {
			label = "you"
		}
		fmt.Printf("[%s %s]\n", label, turn.When().Format("15:04:05"))
		if user, ok := turn.(model.UserTurn); ok && user.HasImage() {
			fmt.Println("(photo attached)")
		}
		body := turn.Text()
		if turn.Role() == model.RoleAssistant {
			body = renderMarkdown(body)
		}
		fmt.Println(strings.TrimRight(body, "\n"))
		fmt.Println()
	}
	return nil
}

func historyDelete(app *App, id string) error {
	if id == "" {
		return fmt.Errorf("usage: leaflens history delete <id>")
	}
	if err := app.Store.Delete(id); err != nil {
		return err
	}
	fmt.Printf("deleted %s\n", id)
	return nil
}

func historyRename(app *App, id, name string) error {
	if id == "" || name == "" {
		return fmt.Errorf("usage: leaflens history rename <id> <name>")
	}
	if err := app.Store.Rename(id, name); err != nil {
		return err
	}
	fmt.Printf("renamed %s\n", id)
	return nil
}
