// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/askai-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents the current application status
type Status int

const (
	StatusReady Status = iota
	StatusStreaming
	StatusTranscribing
	StatusError
)

// String returns the display string for the status
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusStreaming:
		return "Streaming..."
	case StatusTranscribing:
		return "Transcribing..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns an icon for the status
// ACCESSIBILITY: Uses distinct shapes alongside colors for colorblind users
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.IndicatorSuccess
	case StatusStreaming, StatusTranscribing:
		return "~"
	case StatusError:
		return styles.IndicatorError
	default:
		return "-"
	}
}

// Shortcut is a key hint shown on the right of the status bar.
type Shortcut struct {
	Key  string
	Desc string
}

// DefaultShortcuts are the chat view key hints.
var DefaultShortcuts = []Shortcut{
	{"Enter", "send"},
	{"Esc", "stop"},
	{"^N", "new"},
	{"^C", "quit"},
}

// StatusBar is the bottom line of the chat view.
type StatusBar struct {
	Status      Status
	ModelName   string
	Attachments int
	Dictated    bool
	Notice      string
	Spinner     string
	Width       int
	Shortcuts   []Shortcut
	theme       *styles.Theme
}

// NewStatusBar creates a new StatusBar component
func NewStatusBar(theme *styles.Theme) *StatusBar {
	if theme == nil {
		theme = styles.Default()
	}
	return &StatusBar{
		Status:    StatusReady,
		Width:     80,
		Shortcuts: DefaultShortcuts,
		theme:     theme,
	}
}

// SetWidth updates the status bar width
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetStatus updates the current status
func (s *StatusBar) SetStatus(status Status) {
	s.Status = status
}

// SetModel updates the model name
func (s *StatusBar) SetModel(name string) {
	s.ModelName = name
}

// SetNotice sets a transient message such as "Copied to clipboard".
func (s *StatusBar) SetNotice(notice string) {
	s.Notice = notice
}

// View renders the status bar
func (s *StatusBar) View() string {
	sep := s.theme.ShortcutDesc.Render(" | ")

	var left []string
	status := s.Status.Icon() + " " + s.Status.String()
	if s.Spinner != "" && (s.Status == StatusStreaming || s.Status == StatusTranscribing) {
		status = s.Spinner + " " + s.Status.String()
	}
	left = append(left, s.statusStyle().Render(status))
	if s.ModelName != "" && s.Width >= 60 {
		left = append(left, s.ModelName)
	}
	if s.Attachments > 0 {
		left = append(left, s.theme.ImageBadge.Render(imageLabel(s.Attachments)))
	}
	if s.Dictated {
		left = append(left, s.theme.DictationBadge.Render("dictated"))
	}
	if s.Notice != "" {
		left = append(left, s.theme.Notice.Render(s.Notice))
	}
	leftText := strings.Join(left, sep)

	inner := s.Width - s.theme.StatusBar.GetHorizontalFrameSize()
	right := s.renderShortcuts()
	gap := inner - lipgloss.Width(leftText) - lipgloss.Width(right)
	line := leftText
	if right != "" && gap >= 1 {
		line += strings.Repeat(" ", gap) + right
	}

	return s.theme.StatusBar.Width(s.Width).MaxWidth(s.Width).Render(line)
}

// renderShortcuts renders keyboard shortcut hints
func (s *StatusBar) renderShortcuts() string {
	if s.Width < 60 {
		return ""
	}
	hints := make([]string, 0, len(s.Shortcuts))
	for _, sc := range s.Shortcuts {
		hints = append(hints, s.theme.ShortcutKey.Render(sc.Key)+" "+s.theme.ShortcutDesc.Render(sc.Desc))
	}
	return strings.Join(hints, "  ")
}

func (s *StatusBar) statusStyle() lipgloss.Style {
	switch s.Status {
	case StatusStreaming, StatusTranscribing:
		return s.theme.Spinner
	case StatusError:
		return lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(styles.Emerald)
	}
}
