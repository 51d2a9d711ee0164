// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/askai-tui/internal/ui/styles"
)

// Home view copy.
const (
	HomeTitle    = "Ask with AI. Tell me what's on your mind."
	HomeSubtitle = "Type a question, attach an image or dictate from an audio file."
)

// HomeHints are the command hints under the subtitle.
var HomeHints = []string{
	"/image <path>    attach an image to the next question",
	"/dictate <path>  transcribe an audio file into the input",
	"/copy            copy the last answer",
	"/new             start a new conversation",
}

// =============================================================================
// WELCOME (HOME) COMPONENT
// =============================================================================

// Welcome is the home view shown until the first question is sent.
type Welcome struct {
	theme     *styles.Theme
	width     int
	height    int
	modelName string
}

// NewWelcome creates the home view.
func NewWelcome(theme *styles.Theme) Welcome {
	if theme == nil {
		theme = styles.Default()
	}
	return Welcome{theme: theme, width: 80, height: 24}
}

// SetModelName sets the model shown under the hints.
func (w *Welcome) SetModelName(name string) {
	w.modelName = name
}

// SetSize sets the area the view is centered in.
func (w *Welcome) SetSize(width, height int) {
	w.width = width
	w.height = height
}

// View renders the welcome screen.
// Responsive: the hints are dropped first when the area is short.
func (w Welcome) View() string {
	width := w.width
	if width <= 0 {
		width = 80
	}
	height := w.height
	if height <= 0 {
		height = 24
	}

	textWidth := width - 4
	if textWidth < minContentWidth {
		textWidth = minContentWidth
	}

	sections := []string{
		w.theme.HomeTitle.Width(textWidth).Render(HomeTitle),
		w.theme.HomeSubtitle.Width(textWidth).Render(HomeSubtitle),
	}

	if height >= 12 {
		hints := make([]string, len(HomeHints))
		for i, h := range HomeHints {
			hints[i] = w.theme.HomeHint.Render(h)
		}
		block := lipgloss.NewStyle().Align(lipgloss.Left).Render(strings.Join(hints, "\n"))
		sections = append(sections, "", lipgloss.PlaceHorizontal(textWidth, lipgloss.Center, block))
	}
	if w.modelName != "" {
		sections = append(sections, "", w.theme.HomeHint.Width(textWidth).Render(w.modelName))
	}

	content := lipgloss.JoinVertical(lipgloss.Center, sections...)
	if lipgloss.Height(content) >= height {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, content)
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
