// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/askai-tui/internal/model"
	"github.com/jeranaias/askai-tui/internal/session"
	"github.com/jeranaias/askai-tui/internal/ui/components"
	"github.com/jeranaias/askai-tui/internal/util"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// Slash command names.
const (
	CmdImage   = "/image"
	CmdDictate = "/dictate"
	CmdCopy    = "/copy"
	CmdNew     = "/new"
	CmdQuit    = "/quit"
	CmdExit    = "/exit"
	CmdHelp    = "/help"
)

// commandNames are the recognised commands. Other input that starts with
// "/", such as a file path, is an ordinary prompt.
var commandNames = map[string]bool{
	CmdImage:   true,
	CmdDictate: true,
	CmdCopy:    true,
	CmdNew:     true,
	CmdQuit:    true,
	CmdExit:    true,
	CmdHelp:    true,
}

// helpNotice is the one-line command summary shown for /help.
const helpNotice = "/image <path>  /dictate <file>  /copy  /new  /quit"

// DefaultTranscribeTimeout bounds a /dictate request.
const DefaultTranscribeTimeout = 2 * time.Minute

// Command is a parsed slash command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses input that starts with a known command name. The
// name is matched case-insensitively; the rest of the line, trimmed, is
// the argument.
func ParseCommand(input string) (Command, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return Command{}, false
	}
	name, args, _ := strings.Cut(input, " ")
	name = strings.ToLower(name)
	if !commandNames[name] {
		return Command{}, false
	}
	return Command{Name: name, Args: strings.TrimSpace(args)}, true
}

// runCommand executes a slash command.
func (m Model) runCommand(cmd Command) (Model, tea.Cmd) {
	m.input.Reset()

	switch cmd.Name {
	case CmdImage:
		return m.attachImage(cmd.Args)
	case CmdDictate:
		return m.dictate(cmd.Args)
	case CmdCopy:
		return m.copyLastAnswer()
	case CmdNew:
		return m.newChat()
	case CmdQuit, CmdExit:
		m.sess.Cancel()
		m.quitting = true
		return m, tea.Quit
	case CmdHelp:
		return m.setNotice(helpNotice)
	}
	return m, nil
}

// =============================================================================
// /image
// =============================================================================

func (m Model) attachImage(arg string) (Model, tea.Cmd) {
	if arg == "" {
		return m.setNotice("Usage: /image <path>")
	}
	blob, err := model.LoadImage(ExpandPath(arg))
	if err != nil {
		m.log.Debug("image attach failed", zap.Error(err))
		return m.setNotice("Could not attach image: " + err.Error())
	}
	m.images = append(m.images, blob)
	m.status.Attachments = len(m.images)
	return m.setNotice("Attached " + filepath.Base(arg))
}

// =============================================================================
// /dictate
// =============================================================================

func (m Model) dictate(arg string) (Model, tea.Cmd) {
	if arg == "" {
		return m.setNotice("Usage: /dictate <audio file>")
	}
	if m.transcribing {
		return m.setNotice("Already transcribing")
	}
	m.transcribing = true
	m.status.SetStatus(components.StatusTranscribing)
	return m, tea.Batch(transcribeCmd(m.sess, ExpandPath(arg), m.transcribeTimeout), m.spinner.Tick)
}

// transcribeCmd reads the audio file and transcribes it off the UI loop.
func transcribeCmd(sess *session.Session, path string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		audio, mime, err := model.LoadAudio(path)
		if err != nil {
			return TranscribedMsg{Path: path, Err: err}
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		text, err := sess.Transcribe(ctx, audio, mime)
		return TranscribedMsg{Path: path, Text: text, Err: err}
	}
}

func (m Model) handleTranscribed(msg TranscribedMsg) (Model, tea.Cmd) {
	m.transcribing = false
	m.status.SetStatus(m.idleStatus())

	if msg.Err != nil {
		m.log.Warn("dictation failed", zap.String("file", filepath.Base(msg.Path)), zap.Error(msg.Err))
		kind := session.Classify(msg.Err)
		text := session.UserMessage(kind, m.sess.Config().DictationModel)
		if kind == model.ErrorTransport {
			text = "Dictation failed: " + msg.Err.Error()
		}
		return m.setNotice(text)
	}
	if msg.Text == "" {
		return m.setNotice("Nothing was transcribed")
	}

	current := strings.TrimSpace(m.input.Value())
	if current != "" {
		current += " "
	}
	m.input.SetValue(current + msg.Text)
	m.input.CursorEnd()
	m.dictated = true
	m.status.Dictated = true
	return m.setNotice("Dictation ready, press Enter to send")
}

// =============================================================================
// /copy
// =============================================================================

func (m Model) copyLastAnswer() (Model, tea.Cmd) {
	msgs := m.sess.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		msg := msgs[i]
		if msg.Role != model.RoleModel || msg.IsError || msg.IsStreaming || msg.Content == "" {
			continue
		}
		if err := m.copy(msg.Content); err != nil {
			m.log.Warn("clipboard write failed", zap.Error(err))
			return m.setNotice("Failed to copy: " + err.Error())
		}
		return m.setNotice(fmt.Sprintf("Copied answer (%s)", sizeLabel(util.RuneLen(msg.Content))))
	}
	return m.setNotice("No answer to copy")
}

// copyToClipboard copies the given text to the system clipboard.
func copyToClipboard(text string) error {
	return clipboard.WriteAll(text)
}

func sizeLabel(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d chars", n)
	}
	return fmt.Sprintf("%.1fK chars", float64(n)/1000)
}

// =============================================================================
// HELPERS
// =============================================================================

// ExpandPath strips surrounding quotes and expands a leading "~".
func ExpandPath(p string) string {
	p = strings.TrimSpace(p)
	if len(p) >= 2 && (p[0] == '"' || p[0] == '\'') && p[len(p)-1] == p[0] {
		p = p[1 : len(p)-1]
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			p = filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
