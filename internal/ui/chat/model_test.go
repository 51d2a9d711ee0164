// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/askai-tui/internal/config"
	"github.com/jeranaias/askai-tui/internal/gemini"
	"github.com/jeranaias/askai-tui/internal/model"
	"github.com/jeranaias/askai-tui/internal/session"
	"github.com/jeranaias/askai-tui/internal/ui/components"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// stubBackend answers every stream with the same deltas.
type stubBackend struct {
	deltas     []string
	transcript string
	genErr     error
}

func (b *stubBackend) StreamGenerate(context.Context, string, gemini.Request) (io.ReadCloser, error) {
	var sb strings.Builder
	for _, d := range b.deltas {
		sb.WriteString(`data: {"candidates":[{"content":{"parts":[{"text":"` + d + `"}]}}]}` + "\n\n")
	}
	return io.NopCloser(strings.NewReader(sb.String())), nil
}

func (b *stubBackend) Transcribe(context.Context, string, []byte, string) (string, error) {
	if b.genErr != nil {
		return "", b.genErr
	}
	return b.transcript, nil
}

func testAppConfig() *config.Config {
	cfg := config.Default()
	cfg.API.Key = "test-key"
	cfg.API.Model = "chat-model"
	return cfg
}

func newTestModel(t *testing.T, backend session.Backend, opts ...Option) Model {
	t.Helper()
	cfg := testAppConfig()
	sess := session.New(cfg.SessionConfig(), backend)
	m := New(sess, cfg, opts...)
	return update(m, tea.WindowSizeMsg{Width: 100, Height: 30})
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func typeText(m Model, text string) Model {
	m.input.SetValue(text)
	return m
}

func enter(m Model) Model {
	return update(m, tea.KeyMsg{Type: tea.KeyEnter})
}

func waitIdle(t *testing.T, m Model) Model {
	t.Helper()
	require.Eventually(t, func() bool { return !m.Session().Busy() }, 5*time.Second, 10*time.Millisecond)
	return update(m, SessionEventsMsg{Events: []session.Event{{Kind: session.EventCompleted}}})
}

// =============================================================================
// PARSING
// =============================================================================

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Command
		ok    bool
	}{
		{"plain text", "hello", Command{}, false},
		{"bare slash", "/", Command{}, false},
		{"unknown name", "/frobnicate", Command{}, false},
		{"absolute path", "/etc/hosts format?", Command{}, false},
		{"help", "/help", Command{Name: "/help"}, true},
		{"no args", "/copy", Command{Name: "/copy"}, true},
		{"args", "/image ~/cat.png", Command{Name: "/image", Args: "~/cat.png"}, true},
		{"upper case", "  /NEW  ", Command{Name: "/new"}, true},
		{"args trimmed", "/dictate   memo.wav  ", Command{Name: "/dictate", Args: "memo.wav"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCommand(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/a b.png", ExpandPath(`"/tmp/a b.png"`))
	assert.Equal(t, "/tmp/x.png", ExpandPath(" '/tmp/x.png' "))
	assert.Equal(t, filepath.Join(home, "pics/cat.png"), ExpandPath("~/pics/cat.png"))
	assert.Equal(t, "~user/x", ExpandPath("~user/x"))
}

func TestSizeLabel(t *testing.T) {
	assert.Equal(t, "12 chars", sizeLabel(12))
	assert.Equal(t, "1.5K chars", sizeLabel(1500))
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestSubmit_StreamsAnswer(t *testing.T) {
	m := newTestModel(t, &stubBackend{deltas: []string{"Hel", "lo"}})
	assert.Equal(t, StateHome, m.GetState())

	m = enter(typeText(m, "hi there"))
	assert.Equal(t, StateChat, m.GetState())
	assert.Empty(t, m.InputValue())

	m = waitIdle(t, m)
	msgs := m.Session().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "hi there", msgs[0].Content)
	assert.Equal(t, "Hello", msgs[1].Content)
	assert.Equal(t, components.StatusReady, m.status.Status)
	assert.Contains(t, m.View(), "Hello")
}

func TestSubmit_EmptyInputIgnored(t *testing.T) {
	m := newTestModel(t, &stubBackend{})
	m = enter(typeText(m, "   "))
	assert.Equal(t, StateHome, m.GetState())
	assert.Empty(t, m.Session().Messages())
}

func TestSubmit_NoKeyShowsError(t *testing.T) {
	cfg := config.Default()
	sess := session.New(cfg.SessionConfig(), &stubBackend{})
	m := update(New(sess, cfg), tea.WindowSizeMsg{Width: 100, Height: 30})

	m = enter(typeText(m, "hello"))
	assert.Equal(t, components.StatusError, m.status.Status)

	msgs := m.Session().Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[1].IsError)
	assert.Equal(t, model.ErrorConfiguration, msgs[1].ErrorKind)
}

// =============================================================================
// COMMANDS
// =============================================================================

func TestCommand_ImageAttaches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pic.png")
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
	require.NoError(t, os.WriteFile(path, png, 0o600))

	m := newTestModel(t, &stubBackend{deltas: []string{"A cat"}})
	m = enter(typeText(m, "/image "+path))
	assert.Equal(t, 1, m.PendingImages())
	assert.Equal(t, "Attached pic.png", m.Notice())
	assert.Equal(t, StateHome, m.GetState())

	m = enter(typeText(m, "what is this?"))
	assert.Equal(t, 0, m.PendingImages())
	m = waitIdle(t, m)

	msgs := m.Session().Messages()
	require.Len(t, msgs, 2)
	assert.Len(t, msgs[0].Images, 1)
}

func TestCommand_ImageErrors(t *testing.T) {
	m := newTestModel(t, &stubBackend{})

	m = enter(typeText(m, "/image"))
	assert.Equal(t, "Usage: /image <path>", m.Notice())

	m = enter(typeText(m, "/image /does/not/exist.png"))
	assert.True(t, strings.HasPrefix(m.Notice(), "Could not attach image"))
	assert.Zero(t, m.PendingImages())
}

func TestCommand_Copy(t *testing.T) {
	var copied string
	m := newTestModel(t, &stubBackend{deltas: []string{"the answer"}},
		WithClipboard(func(s string) error { copied = s; return nil }))

	m = enter(typeText(m, "/copy"))
	assert.Equal(t, "No answer to copy", m.Notice())

	m = enter(typeText(m, "question"))
	m = waitIdle(t, m)
	m = enter(typeText(m, "/copy"))
	assert.Equal(t, "the answer", copied)
	assert.Equal(t, "Copied answer (10 chars)", m.Notice())
}

func TestCommand_CopyFailure(t *testing.T) {
	m := newTestModel(t, &stubBackend{deltas: []string{"x"}},
		WithClipboard(func(string) error { return errors.New("no clipboard") }))
	m = enter(typeText(m, "q"))
	m = waitIdle(t, m)

	m = enter(typeText(m, "/copy"))
	assert.Equal(t, "Failed to copy: no clipboard", m.Notice())
}

func TestCommand_PathIsSubmittedAsPrompt(t *testing.T) {
	m := newTestModel(t, &stubBackend{deltas: []string{"It maps names"}})
	m = enter(typeText(m, "/etc/hosts format?"))
	assert.Empty(t, m.Notice())
	assert.Empty(t, m.InputValue())

	m = waitIdle(t, m)
	msgs := m.Session().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "/etc/hosts format?", msgs[0].Content)
	assert.Equal(t, "It maps names", msgs[1].Content)
}

func TestCommand_Help(t *testing.T) {
	m := newTestModel(t, &stubBackend{})
	m = enter(typeText(m, "/help"))
	assert.Equal(t, helpNotice, m.Notice())
	assert.Empty(t, m.Session().Messages())
}

func TestCommand_Quit(t *testing.T) {
	m := newTestModel(t, &stubBackend{})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.True(t, next.(Model).IsQuitting())
	assert.Empty(t, next.(Model).View())
}

// =============================================================================
// DICTATION
// =============================================================================

func TestDictate_Flow(t *testing.T) {
	m := newTestModel(t, &stubBackend{transcript: "turn on the lights"})

	m = enter(typeText(m, "/dictate"))
	assert.Equal(t, "Usage: /dictate <audio file>", m.Notice())

	m = typeText(m, "please")
	m = update(m, TranscribedMsg{Path: "memo.wav", Text: "turn on the lights"})
	assert.Equal(t, "please turn on the lights", m.InputValue())
	assert.True(t, m.Dictated())
	assert.Equal(t, "Dictation ready, press Enter to send", m.Notice())
	assert.Equal(t, components.StatusReady, m.status.Status)

	m = update(m, TranscribedMsg{Path: "memo.wav"})
	assert.Equal(t, "Nothing was transcribed", m.Notice())
}

func TestDictate_CommandRunsTranscription(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memo.wav")
	wav := append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 32)...)
	require.NoError(t, os.WriteFile(path, wav, 0o600))

	sess := session.New(testAppConfig().SessionConfig(), &stubBackend{transcript: " hello world "})
	msg := transcribeCmd(sess, path, time.Second)()

	got, ok := msg.(TranscribedMsg)
	require.True(t, ok)
	require.NoError(t, got.Err)
	assert.Equal(t, "hello world", got.Text)
}

func TestDictate_FailureNotice(t *testing.T) {
	m := newTestModel(t, &stubBackend{})
	m = update(m, TranscribedMsg{Path: "memo.wav", Err: errors.New("connection reset")})
	assert.Equal(t, "Dictation failed: connection reset", m.Notice())
	assert.False(t, m.Dictated())
}

// =============================================================================
// NEW CHAT AND CONFIG RELOAD
// =============================================================================

func TestNewChat_AppliesPendingConfig(t *testing.T) {
	var applied *config.Config
	m := newTestModel(t, &stubBackend{deltas: []string{"ok"}},
		WithConfigAdjust(func(c *config.Config) { c.API.SystemInstruction = "be brief" }),
		WithApplyHook(func(c *config.Config) { applied = c }))

	m = enter(typeText(m, "first"))
	m = waitIdle(t, m)
	oldID := m.Session().ConversationID()

	reloaded := testAppConfig()
	reloaded.API.Model = "other-model"
	m = update(m, ConfigReloadedMsg{Config: reloaded})
	assert.True(t, m.HasPendingConfig())
	assert.Equal(t, "chat-model", m.Session().Config().Model)
	assert.Nil(t, applied)

	m = update(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.False(t, m.HasPendingConfig())
	assert.Equal(t, StateHome, m.GetState())
	assert.Equal(t, "New conversation with updated settings", m.Notice())
	assert.Equal(t, "other-model", m.Session().Config().Model)
	require.NotNil(t, applied)
	assert.Equal(t, "other-model", applied.API.Model)
	assert.Equal(t, "be brief", m.Session().Config().SystemInstruction)
	assert.NotEqual(t, oldID, m.Session().ConversationID())
	assert.Empty(t, m.Session().Messages())
}

func TestConfigReload_Error(t *testing.T) {
	m := newTestModel(t, &stubBackend{})
	m = update(m, ConfigReloadedMsg{Err: errors.New("bad toml")})
	assert.False(t, m.HasPendingConfig())
	assert.Equal(t, "Config reload failed: bad toml", m.Notice())
}

func TestNotice_ClearedOnlyByMatchingID(t *testing.T) {
	m := newTestModel(t, &stubBackend{})
	m = enter(typeText(m, "/help"))
	stale := m.noticeID - 1

	m = update(m, clearNoticeMsg{id: stale})
	assert.NotEmpty(t, m.Notice())

	m = update(m, clearNoticeMsg{id: m.noticeID})
	assert.Empty(t, m.Notice())
}

// =============================================================================
// VIEW
// =============================================================================

func TestView_HomeAndLoading(t *testing.T) {
	cfg := testAppConfig()
	m := New(session.New(cfg.SessionConfig(), &stubBackend{}), cfg)
	assert.Equal(t, "Loading...", m.View())

	m = update(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	view := m.View()
	assert.Contains(t, view, components.HomeTitle)
	assert.Contains(t, view, "askai")
}

func TestContentTracker(t *testing.T) {
	tr := newContentTracker()
	assert.True(t, tr.ShouldUpdate("a"))
	assert.False(t, tr.ShouldUpdate("a"))
	assert.True(t, tr.ShouldUpdate("b"))

	tr.Force()
	assert.True(t, tr.ShouldUpdate("b"))

	updates, skips := tr.Stats()
	assert.Equal(t, uint64(4), updates)
	assert.Equal(t, uint64(1), skips)
}
