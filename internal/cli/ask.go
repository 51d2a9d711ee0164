// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// ask.go - Single question command.
//
// Command: ask [prompt...]
// Short:   Ask a single question
//
// Examples:
//   askai ask "What is the capital of France?"
//   askai ask --image chart.png "Summarize this chart"
//   git diff | askai ask "Review this change"
//   askai ask --raw "Write a haiku" > haiku.md
//   askai ask --resume 3f2a9c1b "And in French?"
//
// Flags:
//   -i, --image FILE    Attach an image (repeatable)
//   --raw               Print the answer as it streams, without rendering
//   --resume ID         Continue a stored conversation

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/askai-tui/internal/model"
	"github.com/jeranaias/askai-tui/internal/session"
)

// MaxStdinPrompt bounds how much piped input ask reads.
const MaxStdinPrompt = 1 << 20

// askOptions holds the ask command's flags.
type askOptions struct {
	images []string
	raw    bool
	resume string
}

func newAskCmd(g *globalFlags) *cobra.Command {
	opts := &askOptions{}
	cmd := &cobra.Command{
		Use:   "ask [prompt...]",
		Short: "Ask a single question",
		Long: `Ask a single question and print the answer.

The prompt is the arguments joined by spaces. Piped stdin is appended to
it, so "git diff | askai ask review this" works. On a terminal the answer
is rendered as Markdown when it completes; with --raw or when stdout is
piped the text is printed as it streams.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(args, cmd.InOrStdin(), !IsTTY())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runAsk(ctx, g, opts, prompt, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringArrayVarP(&opts.images, "image", "i", nil, "attach an image (repeatable)")
	cmd.Flags().BoolVar(&opts.raw, "raw", false, "print the answer as it streams, without rendering")
	cmd.Flags().StringVar(&opts.resume, "resume", "", "continue a stored conversation (ID or unique prefix)")
	return cmd
}

// readPrompt joins args and, when piped is set, appends stdin.
func readPrompt(args []string, stdin io.Reader, piped bool) (string, error) {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if piped && stdin != nil {
		data, err := io.ReadAll(io.LimitReader(stdin, MaxStdinPrompt))
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		if piped := strings.TrimSpace(string(data)); piped != "" {
			if prompt != "" {
				prompt += "\n\n"
			}
			prompt += piped
		}
	}
	return prompt, nil
}

func runAsk(ctx context.Context, g *globalFlags, opts *askOptions, prompt string, out, errOut io.Writer) error {
	var images []model.Blob
	for _, path := range opts.images {
		blob, err := model.LoadImage(path)
		if err != nil {
			return fmt.Errorf("cannot attach %s: %w", path, err)
		}
		images = append(images, blob)
	}
	if prompt == "" && len(images) == 0 {
		return &UsageError{Reason: "no prompt given", Example: `askai ask "What is a goroutine?"`}
	}

	a, err := newApp(g, appOptions{console: errOut, storage: opts.resume != ""})
	if err != nil {
		return err
	}
	defer a.Close()

	sess, events := a.newStreamingSession()
	if opts.resume != "" {
		if _, err := a.resume(ctx, sess, opts.resume); err != nil {
			return err
		}
	}
	ex := sess.SubmitPrompt(session.Prompt{Text: prompt, Images: images})
	if ex == nil {
		return &UsageError{Reason: "no prompt given"}
	}

	rendered := !opts.raw && isTerminalWriter(out)
	counter := &countingWriter{w: out}
	var live io.Writer
	if !rendered {
		live = counter
	}

	msg, err := followExchange(ctx, sess, events, ex, live, nil)
	if err != nil {
		a.log.Debug("ask failed", zap.Error(err))
		if counter.n > 0 {
			fmt.Fprintln(out)
		}
		return err
	}

	if !rendered {
		if !strings.HasSuffix(msg.Content, "\n") {
			fmt.Fprintln(out)
		}
		return nil
	}

	fmt.Fprintln(out, a.renderMarkdown(msg.Content))
	if a.cfg.UI.ShowStats {
		if stats := msg.FormatStats(); stats != "" {
			fmt.Fprintln(errOut, DimStyle.Render(stats))
		}
	}
	return nil
}
