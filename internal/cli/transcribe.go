// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// transcribe.go - Audio transcription command.
//
// Command: transcribe <audio>
// Short:   Transcribe an audio file
//
// Examples:
//   askai transcribe memo.webm
//   askai transcribe --timeout 5m lecture.mp3 > lecture.txt

package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/askai-tui/internal/model"
	"github.com/jeranaias/askai-tui/internal/session"
	"github.com/jeranaias/askai-tui/internal/ui/chat"
)

func newTranscribeCmd(g *globalFlags) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "transcribe <audio>",
		Short: "Transcribe an audio file",
		Long: `Transcribe an audio file with the dictation model and print the text.

Supported inputs are the audio formats the API accepts (webm, ogg, mp3,
wav, flac, aac) up to 20 MiB.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return runTranscribe(ctx, g, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", chat.DefaultTranscribeTimeout, "give up after this long")
	return cmd
}

func runTranscribe(ctx context.Context, g *globalFlags, path string, out, errOut io.Writer) error {
	audio, mime, err := model.LoadAudio(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	a, err := newApp(g, appOptions{console: errOut})
	if err != nil {
		return err
	}
	defer a.Close()

	a.log.Info("transcribing", zap.String("mime", mime), zap.Int("bytes", len(audio)))
	text, err := a.newSession().Transcribe(ctx, audio, mime)
	if err != nil {
		kind := session.Classify(err)
		return &ExchangeError{Kind: kind, Message: session.UserMessage(kind, a.cfg.SessionConfig().DictationModel), Err: err}
	}
	if text == "" {
		fmt.Fprintln(errOut, WarningStyle.Render("Nothing was transcribed."))
		return nil
	}
	fmt.Fprintln(out, text)
	return nil
}
