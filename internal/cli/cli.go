// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Root command for askai.

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/askai-tui/internal/ui/chat"
	"github.com/jeranaias/askai-tui/internal/ui/styles"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// versionString is printed by --version.
func versionString() string {
	return fmt.Sprintf("askai %s (commit %s, built %s, %s/%s)\n",
		Version, GitCommit, BuildDate, runtime.GOOS, runtime.GOARCH)
}

// NewRootCmd builds the askai command tree.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "askai",
		Short: "Ask an AI from your terminal",
		Long: `askai - a streaming chat client for Gemini in the terminal.

Usage modes:
  askai                  Full-screen chat (default)
  askai ask "question"   One question, answer on stdout
  askai chat             Line-mode chat with input history

The API key comes from GEMINI_API_KEY or api.key in ~/.askai/config.toml.
Run 'askai config init' to create the file.`,
		Args:          cobra.NoArgs,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := RequiresTTY("start the chat interface"); err != nil {
				return err
			}
			return runTUI(cmd.Context(), g)
		},
	}
	root.SetVersionTemplate(versionString())

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "config file (default ~/.askai/config.toml)")
	root.PersistentFlags().StringVarP(&g.model, "model", "m", "", "model to use (overrides config)")
	root.PersistentFlags().StringVarP(&g.system, "system", "s", "", "system instruction (overrides config)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		newAskCmd(g),
		newChatCmd(g),
		newTranscribeCmd(g),
		newHistoryCmd(g),
		newConfigCmd(g),
	)
	return root
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	return execute(context.Background(), NewRootCmd(), os.Args[1:], os.Stderr)
}

func execute(ctx context.Context, root *cobra.Command, args []string, errOut io.Writer) int {
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		DisplayError(errOut, err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// runTUI starts the full-screen interface.
func runTUI(ctx context.Context, g *globalFlags) error {
	// Logs go to the file only; the TUI owns the terminal.
	a, err := newApp(g, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	theme := styles.Default()

	sess := a.newSession()
	err = chat.Run(ctx, sess, a.cfg, chat.RunOptions{
		ConfigPath: a.configPath,
		Logger:     a.log.Named("tui"),
		Model: []chat.Option{
			chat.WithTheme(theme),
			chat.WithConfigAdjust(g.apply),
			chat.WithApplyHook(a.applyConfig),
		},
	})
	if err != nil {
		a.log.Error("tui exited with error", zap.Error(err))
	}
	return err
}
