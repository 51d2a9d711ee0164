// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode chat command.
//
// Command: chat
// Short:   Chat in a simple read-eval-print loop
//
// Flags:
//   --resume ID         Continue a stored conversation
//
// Interactive Commands (during chat):
//   /image <path>       Attach an image to the next question
//   /new                Start a new conversation
//   /help               Show available commands
//   /quit, /exit        Exit chat
//   Ctrl+C              Cancel the answer being streamed
//   Ctrl+D              Exit chat

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/askai-tui/internal/config"
	"github.com/jeranaias/askai-tui/internal/model"
	"github.com/jeranaias/askai-tui/internal/session"
	"github.com/jeranaias/askai-tui/internal/ui/chat"
)

const chatHelp = `Commands:
  /image <path>   attach an image to the next question
  /new            start a new conversation
  /help           show this help
  /quit           exit (also Ctrl+D)
Ctrl+C cancels an answer while it streams.`

func newChatCmd(g *globalFlags) *cobra.Command {
	var resume string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat in a simple read-eval-print loop",
		Long: `Chat in a line-mode loop with persistent input history.

Answers stream as plain text. Use the default command (askai with no
arguments) for the full-screen interface. With --resume the chat picks up
a conversation from 'askai history list'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := RequiresTTY("chat"); err != nil {
				return err
			}
			return runChat(cmd.Context(), g, resume, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&resume, "resume", "", "continue a stored conversation (ID or unique prefix)")
	return cmd
}

func runChat(ctx context.Context, g *globalFlags, resume string, out, errOut io.Writer) error {
	a, err := newApp(g, appOptions{console: errOut, storage: resume != ""})
	if err != nil {
		return err
	}
	defer a.Close()

	line := newLineInput(a.log)
	defer line.Close()

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	sess, events := a.newStreamingSession()
	restored := 0
	if resume != "" {
		if restored, err = a.resume(ctx, sess, resume); err != nil {
			return err
		}
	}
	r := &repl{
		in:         line,
		out:        out,
		sess:       sess,
		events:     events,
		interrupts: interrupts,
		log:        a.log,
	}
	fmt.Fprintln(out, TitleStyle.Render("askai chat"))
	fmt.Fprintln(out, RenderField("Model", a.cfg.API.Model))
	fmt.Fprintln(out, RenderField("Conversation", sess.ConversationID()))
	if restored > 0 {
		fmt.Fprintln(out, RenderField("Resumed", fmt.Sprintf("%d turns", restored)))
	}
	fmt.Fprintln(out, RenderSeparator(min(renderWidth(), 60)))
	fmt.Fprintln(out, DimStyle.Render("Type /help for commands."))
	fmt.Fprintln(out)
	return r.run(ctx)
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader is the part of liner the REPL uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

// lineInput provides line editing with history persisted across runs.
type lineInput struct {
	*liner.State
	historyFile string
	log         *zap.Logger
}

func newLineInput(log *zap.Logger) *lineInput {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)

	l := &lineInput{State: state, log: log}
	if path, err := config.HistoryFile(); err == nil {
		l.historyFile = path
		if f, err := os.Open(path); err == nil {
			_, _ = state.ReadHistory(f)
			f.Close()
		}
	}
	return l
}

// Close saves history with owner-only permissions and restores the terminal.
func (l *lineInput) Close() {
	if l.historyFile != "" {
		if err := l.saveHistory(); err != nil {
			l.log.Debug("failed to save input history", zap.Error(err))
		}
	}
	_ = l.State.Close()
}

func (l *lineInput) saveHistory() error {
	if err := os.MkdirAll(filepath.Dir(l.historyFile), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(l.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = l.WriteHistory(f)
	return err
}

// =============================================================================
// REPL
// =============================================================================

// repl is the chat loop over one session.
type repl struct {
	in         lineReader
	out        io.Writer
	sess       *session.Session
	events     <-chan session.Event
	interrupts <-chan os.Signal
	log        *zap.Logger

	images []model.Blob
}

// run reads lines until EOF or /quit.
func (r *repl) run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		prompt := "> "
		if n := len(r.images); n > 0 {
			prompt = fmt.Sprintf("[%d] > ", n)
		}
		input, err := r.in.Prompt(prompt)
		switch {
		case errors.Is(err, liner.ErrPromptAborted):
			fmt.Fprintln(r.out, DimStyle.Render("Use /quit or Ctrl+D to exit."))
			continue
		case errors.Is(err, io.EOF):
			fmt.Fprintln(r.out)
			return nil
		case err != nil:
			return fmt.Errorf("failed to read input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		r.in.AppendHistory(input)

		if cmd, ok := chat.ParseCommand(input); ok {
			if quit := r.command(cmd); quit {
				return nil
			}
			continue
		}
		r.ask(ctx, input)
	}
}

// command runs a slash command and reports whether to quit.
func (r *repl) command(cmd chat.Command) bool {
	switch cmd.Name {
	case chat.CmdQuit, chat.CmdExit:
		return true
	case chat.CmdNew:
		r.sess.Reset()
		r.images = nil
		fmt.Fprintln(r.out, SuccessStyle.Render("New conversation."))
	case chat.CmdImage:
		if cmd.Args == "" {
			fmt.Fprintln(r.out, WarningStyle.Render("Usage: /image <path>"))
			return false
		}
		blob, err := model.LoadImage(chat.ExpandPath(cmd.Args))
		if err != nil {
			fmt.Fprintln(r.out, ErrorStyle.Render("Could not attach image: "+err.Error()))
			return false
		}
		r.images = append(r.images, blob)
		fmt.Fprintln(r.out, DimStyle.Render("Attached "+filepath.Base(cmd.Args)))
	case chat.CmdHelp:
		fmt.Fprintln(r.out, chatHelp)
	default:
		fmt.Fprintln(r.out, WarningStyle.Render(cmd.Name+" is only available in the full-screen chat."))
	}
	return false
}

// ask submits text with any attached images and streams the answer.
func (r *repl) ask(ctx context.Context, text string) {
	ex := r.sess.SubmitPrompt(session.Prompt{Text: text, Images: r.images})
	r.images = nil
	if ex == nil {
		return
	}

	// Drop an interrupt left over from the prompt.
	select {
	case <-r.interrupts:
	default:
	}

	fmt.Fprint(r.out, PromptStyle.Render("AI")+" ")
	live := &countingWriter{w: r.out}
	_, err := followExchange(ctx, r.sess, r.events, ex, live, r.interrupts)
	if err != nil {
		if live.n > 0 {
			fmt.Fprintln(r.out)
		}
		r.log.Debug("chat exchange failed", zap.Error(err))
		fmt.Fprintln(r.out, ErrorStyle.Render(err.Error()))
		fmt.Fprintln(r.out)
		return
	}
	fmt.Fprint(r.out, "\n\n")
}
