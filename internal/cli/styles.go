// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styling for askai commands.

package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// init configures lipgloss color profile based on terminal capabilities.
func init() {
	lipgloss.SetColorProfile(GetColorProfile())
}

// =============================================================================
// SHARED STYLES FOR ALL CLI COMMANDS
// =============================================================================

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // Cyan

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")). // Light gray
			Width(14)

	// ValueStyle is used for regular values and text
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")) // Off-white

	// SuccessStyle is used for success messages
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")). // Green
			Bold(true)

	// ErrorStyle is used for error messages and failures
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)

	// WarningStyle is used for warnings and cautions
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Yellow/Orange

	// DimStyle is used for secondary information and hints
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")) // Dim gray

	// SeparatorStyle is used for visual separators
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // Dark gray

	// PromptStyle colors the REPL speaker labels.
	PromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

// =============================================================================
// HELPER FUNCTIONS FOR COMMON PATTERNS
// =============================================================================

// RenderSeparator renders a horizontal separator line of the specified width.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 40
	}
	return SeparatorStyle.Render(strings.Repeat("─", width))
}

// RenderField renders "label value" with an aligned label.
func RenderField(label, value string) string {
	return LabelStyle.Render(label) + ValueStyle.Render(value)
}
