// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/askai-tui/internal/ui/styles"
	"github.com/jeranaias/askai-tui/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the one-line title bar of the chat view.
type Header struct {
	Title          string
	ModelName      string
	ConversationID string
	Width          int
	theme          *styles.Theme
}

// NewHeader creates a new Header component with default values
func NewHeader(theme *styles.Theme) *Header {
	if theme == nil {
		theme = styles.Default()
	}
	return &Header{
		Title: "askai",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetModel updates the current model name
func (h *Header) SetModel(model string) {
	h.ModelName = model
}

// SetConversation sets the conversation shown in the header.
func (h *Header) SetConversation(id string) {
	h.ConversationID = id
}

// View renders the header. The conversation ID is dropped first and the
// model name truncated when the terminal is narrow.
func (h *Header) View() string {
	width := h.Width
	if width < 20 {
		width = 20
	}

	brand := h.theme.HeaderBrand.Render(h.Title)
	sep := h.theme.ShortcutDesc.Render(" | ")

	parts := []string{brand}
	if h.ModelName != "" {
		avail := width - lipgloss.Width(brand) - lipgloss.Width(sep)
		parts = append(parts, h.theme.HeaderModel.Render(util.TruncateWidth(h.ModelName, avail)))
	}
	line := strings.Join(parts, sep)

	if h.ConversationID != "" && width >= 60 {
		conv := h.theme.ShortcutDesc.Render("#" + shortID(h.ConversationID))
		if lipgloss.Width(line)+lipgloss.Width(sep)+lipgloss.Width(conv) <= width {
			line += sep + conv
		}
	}

	return lipgloss.NewStyle().
		Width(width).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(styles.Overlay).
		Render(line)
}

// shortID returns the leading eight characters of an ID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
