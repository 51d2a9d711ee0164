// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - Transcript store commands.
//
// Command: history [list|show|delete]
// Short:   Browse saved conversations
//
// Examples:
//   askai history list
//   askai history list --limit 5 --json
//   askai history show 3f2a9c1e
//   askai history delete 3f2a

package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jeranaias/askai-tui/internal/storage"
)

// DefaultHistoryLimit is how many conversations "history list" shows.
const DefaultHistoryLimit = 20

func newHistoryCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"hist"},
		Short:   "Browse saved conversations",
		Long: `Browse conversations saved in the transcript store.

IDs may be shortened to any unique prefix.`,
	}

	var limit int
	var jsonOut bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved conversations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(g, cmd, func(ctx context.Context, a *app, out io.Writer) error {
				metas, err := a.store.List(ctx, limit)
				if err != nil {
					if jsonOut {
						_ = NewJSONErrorResponse("history list", err).Print(out)
					}
					return err
				}
				if jsonOut {
					return NewJSONResponse("history list", historyListData(metas)).Print(out)
				}
				fmt.Fprint(out, storage.FormatList(metas))
				return nil
			})
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", DefaultHistoryLimit, "max conversations (0 = all)")
	listCmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")

	var raw bool
	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(g, cmd, func(ctx context.Context, a *app, out io.Writer) error {
				conv, err := a.store.Load(ctx, args[0])
				if err != nil {
					return err
				}
				doc := conv.ExportMarkdown()
				if raw || !isTerminalWriter(out) {
					fmt.Fprint(out, doc)
					return nil
				}
				fmt.Fprintln(out, a.renderMarkdown(doc))
				return nil
			})
		},
	}
	showCmd.Flags().BoolVar(&raw, "raw", false, "print Markdown source")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(g, cmd, func(ctx context.Context, a *app, out io.Writer) error {
				if err := a.store.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintln(out, SuccessStyle.Render("Deleted "+args[0]))
				return nil
			})
		},
	}

	cmd.AddCommand(listCmd, showCmd, deleteCmd)
	return cmd
}

// withStore runs fn with an app whose transcript store is open.
func withStore(g *globalFlags, cmd *cobra.Command, fn func(context.Context, *app, io.Writer) error) error {
	a, err := newApp(g, appOptions{storage: true, console: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a, cmd.OutOrStdout())
}

// historyEntry is the JSON form of a listed conversation.
type historyEntry struct {
	ID        string `json:"id"`
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	Turns     int    `json:"turns"`
	Preview   string `json:"preview"`
}

func historyListData(metas []storage.ConversationMeta) []historyEntry {
	out := make([]historyEntry, 0, len(metas))
	for _, m := range metas {
		out = append(out, historyEntry{
			ID:        m.ID,
			Model:     m.Model,
			CreatedAt: m.CreatedAt.UTC().Format(timeLayout),
			UpdatedAt: m.UpdatedAt.UTC().Format(timeLayout),
			Turns:     m.TurnCount,
			Preview:   m.Preview,
		})
	}
	return out
}
