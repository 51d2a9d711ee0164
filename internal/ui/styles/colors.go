// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// All colors are AdaptiveColor so they follow the detected (or forced)
// terminal background.

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Purple - Primary accent, model messages, headings
var Purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}

// Cyan - Brand color, user label, inline code
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}

// Emerald - Success states
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"}

// Rose - Errors
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}

// Amber - Warnings, dictation badge
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#FBBF24"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

// SurfaceDim - Code blocks, status bar
var SurfaceDim = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#181825"}

// SurfaceBright - Table first column tint, inline code background
var SurfaceBright = lipgloss.AdaptiveColor{Light: "#EDE9FE", Dark: "#313244"}

// Overlay - Borders, separators
var Overlay = lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"}

// OverlayDim - Language badges
var OverlayDim = lipgloss.AdaptiveColor{Light: "#D4D4D4", Dark: "#45475A"}

// =============================================================================
// TEXT COLORS
// =============================================================================

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"}

// TextSecondary - Labels, subtitles
var TextSecondary = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#A6ADC8"}

// TextMuted - Hints, timestamps, statistics
var TextMuted = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"}

// LinkColor - Hyperlinks
var LinkColor = lipgloss.AdaptiveColor{Light: "#2563EB", Dark: "#60A5FA"}

// =============================================================================
// MESSAGE COLORS
// =============================================================================

var UserBubbleBg = lipgloss.AdaptiveColor{Light: "#DBEAFE", Dark: "#1D4ED8"}
var UserBubbleFg = lipgloss.AdaptiveColor{Light: "#1E40AF", Dark: "#E0F2FE"}
var UserBubbleBorder = lipgloss.AdaptiveColor{Light: "#3B82F6", Dark: "#3B82F6"}

var ErrorBg = lipgloss.AdaptiveColor{Light: "#FEE2E2", Dark: "#881337"}
var ErrorFg = lipgloss.AdaptiveColor{Light: "#991B1B", Dark: "#FECACA"}

// =============================================================================
// STATUS HELPERS
// =============================================================================

// Shape indicators accompany status colors for colorblind users.
const (
	IndicatorSuccess = "[OK]"
	IndicatorError   = "[X]"
	IndicatorInfo    = "[i]"
)

// RenderSuccess renders a success line for CLI output.
func RenderSuccess(message string) string {
	return lipgloss.NewStyle().Foreground(Emerald).Bold(true).Render(IndicatorSuccess + " " + message)
}

// RenderError renders an error line for CLI output.
func RenderError(message string) string {
	return lipgloss.NewStyle().Foreground(Rose).Bold(true).Render(IndicatorError + " " + message)
}

// RenderInfo renders an informational line for CLI output.
func RenderInfo(message string) string {
	return lipgloss.NewStyle().Foreground(Cyan).Render(IndicatorInfo + " " + message)
}
