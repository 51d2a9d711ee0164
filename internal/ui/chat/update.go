// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/askai-tui/internal/session"
	"github.com/jeranaias/askai-tui/internal/ui/components"
)

// Layout heights of the fixed rows around the transcript.
const (
	headerHeight    = 2 // title + border
	inputAreaHeight = 2 // border + input line
	statusBarHeight = 1
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case SessionEventsMsg:
		return m.handleSessionEvents(msg)

	case TranscribedMsg:
		return m.handleTranscribed(msg)

	case ConfigReloadedMsg:
		return m.handleConfigReloaded(msg)

	case clearNoticeMsg:
		if msg.id == m.noticeID {
			m.status.SetNotice("")
		}
		return m, nil

	case spinner.TickMsg:
		// Ticking stops once nothing is in flight.
		if !m.sess.Busy() && !m.transcribing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.status.Spinner = m.spinner.View()
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(m.width, m.height)

	bodyHeight := m.height - headerHeight - inputAreaHeight - statusBarHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	m.viewport.Width = max(m.width, 1)
	m.viewport.Height = bodyHeight

	// "> " plus container padding.
	m.input.Width = max(m.width-6, 10)

	m.header.SetWidth(m.width)
	m.status.SetWidth(m.width)
	m.welcome.SetSize(m.width, bodyHeight)
	m.list.SetWidth(max(m.width-2, 10))

	m.tracker.Force()
	m.refresh(false)
	return m, nil
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.sess.Cancel()
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Cancel):
		if m.sess.Cancel() {
			m.status.SetStatus(m.idleStatus())
			m.refresh(false)
			return m.setNotice("Stopped")
		}
		return m, nil

	case key.Matches(msg, m.keys.NewChat):
		return m.newChat()

	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case m.keys.IsNavigationKey(msg.String()):
		return m.handleNavigationKeys(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleNavigationKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.ViewUp()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.ViewDown()
	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
	}
	return m, nil
}

// =============================================================================
// SUBMIT / NEW CHAT
// =============================================================================

func (m Model) submit() (tea.Model, tea.Cmd) {
	value := m.input.Value()
	if cmd, ok := ParseCommand(value); ok {
		return m.runCommand(cmd)
	}

	text := strings.TrimSpace(value)
	if text == "" && len(m.images) == 0 {
		return m, nil
	}

	ex := m.sess.SubmitPrompt(session.Prompt{
		Text:     value,
		Images:   m.images,
		Dictated: m.dictated,
	})

	m.input.Reset()
	m.images = nil
	m.dictated = false
	m.status.Attachments = 0
	m.status.Dictated = false
	m.state = StateChat
	m.refresh(true)

	if ex == nil {
		return m, nil
	}
	select {
	case <-ex.Done():
		// Rejected before any request, e.g. no API key.
		if ex.Err() != nil {
			m.status.SetStatus(components.StatusError)
			return m, nil
		}
	default:
	}
	m.status.SetStatus(components.StatusStreaming)
	return m, m.spinner.Tick
}

// newChat resets the session, applying a reloaded config if one is pending.
func (m Model) newChat() (Model, tea.Cmd) {
	m.input.Reset()
	notice := "New conversation"
	if m.pending != nil {
		m.cfg = m.pending
		m.pending = nil
		notice = "New conversation with updated settings"
		if m.onApply != nil {
			m.onApply(m.cfg)
		}
	}
	m.sess.ResetWith(m.cfg.SessionConfig())

	m.images = nil
	m.dictated = false
	m.status.Attachments = 0
	m.status.Dictated = false
	m.status.SetStatus(components.StatusReady)
	m.state = StateHome
	m.list.Invalidate()
	m.applyUIConfig()
	m.refresh(false)
	return m.setNotice(notice)
}

// =============================================================================
// SESSION EVENTS
// =============================================================================

func (m Model) handleSessionEvents(msg SessionEventsMsg) (tea.Model, tea.Cmd) {
	if msg.Has(session.EventReset) {
		m.list.Invalidate()
	}
	if len(m.sess.Messages()) > 0 {
		m.state = StateChat
	}

	switch {
	case m.sess.Busy():
		m.status.SetStatus(components.StatusStreaming)
	case msg.Has(session.EventFailed):
		m.status.SetStatus(components.StatusError)
	case msg.Has(session.EventCompleted), msg.Has(session.EventCancelled), msg.Has(session.EventReset):
		m.status.SetStatus(m.idleStatus())
	}

	m.refresh(false)
	return m, nil
}

func (m Model) idleStatus() components.Status {
	if m.transcribing {
		return components.StatusTranscribing
	}
	return components.StatusReady
}

// =============================================================================
// CONFIG RELOAD
// =============================================================================

func (m Model) handleConfigReloaded(msg ConfigReloadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.log.Warn("config reload failed", zap.Error(msg.Err))
		return m.setNotice("Config reload failed: " + msg.Err.Error())
	}
	if msg.Config == nil {
		return m, nil
	}
	cfg := msg.Config
	if m.adjust != nil {
		m.adjust(cfg)
	}
	m.pending = cfg
	m.log.Info("config reloaded", zap.String("model", cfg.API.Model))
	return m.setNotice("Settings changed, Ctrl+N starts a chat with them")
}

// =============================================================================
// HELPERS
// =============================================================================

// setNotice shows a transient status notice.
func (m Model) setNotice(text string) (Model, tea.Cmd) {
	m.noticeID++
	id := m.noticeID
	m.status.SetNotice(text)
	return m, tea.Tick(NoticeDuration, func(time.Time) tea.Msg {
		return clearNoticeMsg{id: id}
	})
}

// refresh re-renders the transcript into the viewport. The view stays
// pinned to the bottom if it was there; jump moves it there regardless.
func (m *Model) refresh(jump bool) {
	content := m.list.View(m.sess.Messages())
	if !m.tracker.ShouldUpdate(content) {
		return
	}
	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(content)
	if jump || atBottom {
		m.viewport.GotoBottom()
	}
}
