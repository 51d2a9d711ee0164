// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme modes accepted by NewThemeFor.
const (
	ModeAuto  = "auto"
	ModeDark  = "dark"
	ModeLight = "light"
)

// Theme holds all the styled components for the application.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// SyntaxStyle is the chroma style used for fenced code.
	SyntaxStyle string

	// ==========================================================================
	// HOME VIEW STYLES
	// ==========================================================================

	HomeTitle    lipgloss.Style
	HomeSubtitle lipgloss.Style
	HomeHint     lipgloss.Style

	// ==========================================================================
	// HEADER AND STATUS STYLES
	// ==========================================================================

	HeaderBrand  lipgloss.Style
	HeaderModel  lipgloss.Style
	StatusBar    lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style
	Spinner      lipgloss.Style
	Notice       lipgloss.Style

	// ==========================================================================
	// MESSAGE STYLES
	// ==========================================================================

	UserLabel      lipgloss.Style
	ModelLabel     lipgloss.Style
	UserBubble     lipgloss.Style
	ModelBody      lipgloss.Style
	ErrorMessage   lipgloss.Style
	DictationBadge lipgloss.Style
	ImageBadge     lipgloss.Style
	Stats          lipgloss.Style
	Cursor         lipgloss.Style

	// ==========================================================================
	// MARKDOWN STYLES
	// ==========================================================================

	// Heading is indexed by level-1.
	Heading    [4]lipgloss.Style
	Paragraph  lipgloss.Style
	Bold       lipgloss.Style
	Italic     lipgloss.Style
	InlineCode lipgloss.Style
	Link       lipgloss.Style
	Bullet     lipgloss.Style

	CodeBlock     lipgloss.Style
	CodeLangBadge lipgloss.Style
	CodeLineNum   lipgloss.Style

	TableHeader   lipgloss.Style
	TableFirstCol lipgloss.Style
	TableCell     lipgloss.Style
	TableBorder   lipgloss.Style

	// ==========================================================================
	// INPUT STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputPlaceholder lipgloss.Style
}

// NewTheme creates a theme for the detected terminal background.
func NewTheme() *Theme {
	return NewThemeFor(ModeAuto)
}

// NewThemeFor creates a theme for mode ("auto", "dark" or "light"). Forcing
// a mode also switches lipgloss' adaptive colors.
func NewThemeFor(mode string) *Theme {
	isDark := termenv.HasDarkBackground()
	switch mode {
	case ModeDark:
		isDark = true
		lipgloss.SetHasDarkBackground(true)
	case ModeLight:
		isDark = false
		lipgloss.SetHasDarkBackground(false)
	}

	t := &Theme{
		IsDark:       isDark,
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	if t.IsDark {
		t.SyntaxStyle = "monokai"
	} else {
		t.SyntaxStyle = "github"
	}

	// Home
	t.HomeTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		Align(lipgloss.Center)
	t.HomeSubtitle = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true).
		Align(lipgloss.Center)
	t.HomeHint = lipgloss.NewStyle().
		Foreground(TextMuted).
		Align(lipgloss.Center)

	// Header and status
	t.HeaderBrand = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.HeaderModel = lipgloss.NewStyle().Foreground(TextSecondary)
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)
	t.Spinner = lipgloss.NewStyle().Foreground(Purple)
	t.Notice = lipgloss.NewStyle().Foreground(Amber)

	// Messages
	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.ModelLabel = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1)
	t.ModelBody = lipgloss.NewStyle().
		Foreground(TextPrimary).
		PaddingLeft(1)
	t.ErrorMessage = lipgloss.NewStyle().
		Foreground(ErrorFg).
		Background(ErrorBg).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Rose).
		BorderLeft(true).
		PaddingLeft(1)
	t.DictationBadge = lipgloss.NewStyle().Foreground(Amber).Italic(true)
	t.ImageBadge = lipgloss.NewStyle().Foreground(TextMuted)
	t.Stats = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
	t.Cursor = lipgloss.NewStyle().Foreground(Purple).Blink(true)

	// Markdown
	t.Heading[0] = lipgloss.NewStyle().Bold(true).Underline(true).Foreground(Purple)
	t.Heading[1] = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.Heading[2] = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.Heading[3] = lipgloss.NewStyle().Bold(true).Foreground(TextSecondary)
	t.Paragraph = lipgloss.NewStyle().Foreground(TextPrimary)
	t.Bold = lipgloss.NewStyle().Bold(true)
	t.Italic = lipgloss.NewStyle().Italic(true)
	t.InlineCode = lipgloss.NewStyle().
		Foreground(Cyan).
		Background(SurfaceBright)
	t.Link = lipgloss.NewStyle().Foreground(LinkColor).Underline(true)
	t.Bullet = lipgloss.NewStyle().Foreground(Purple)

	t.CodeBlock = lipgloss.NewStyle().
		Background(SurfaceDim).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.CodeLangBadge = lipgloss.NewStyle().
		Foreground(TextMuted).
		Background(OverlayDim).
		Padding(0, 1).
		Bold(true)
	t.CodeLineNum = lipgloss.NewStyle().
		Foreground(TextMuted).
		Align(lipgloss.Right)

	t.TableHeader = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.TableFirstCol = lipgloss.NewStyle().Background(SurfaceBright)
	t.TableCell = lipgloss.NewStyle().Foreground(TextPrimary)
	t.TableBorder = lipgloss.NewStyle().Foreground(OverlayDim)

	// Input
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.InputPlaceholder = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
}

// HeadingStyle returns the style for a heading level, clamped to 1..4.
func (t *Theme) HeadingStyle(level int) lipgloss.Style {
	if level < 1 {
		level = 1
	}
	if level > len(t.Heading) {
		level = len(t.Heading)
	}
	return t.Heading[level-1]
}

// SetSize updates the theme dimensions for responsive layouts.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// GetLayoutMode returns the current layout mode based on width.
func (t *Theme) GetLayoutMode() LayoutMode {
	if t.Width < 60 {
		return LayoutNarrow
	}
	if t.Width < 100 {
		return LayoutMedium
	}
	return LayoutWide
}

// LayoutMode represents the current responsive layout mode.
type LayoutMode int

const (
	LayoutNarrow LayoutMode = iota // < 60 columns
	LayoutMedium                   // 60-100 columns
	LayoutWide                     // >= 100 columns
)

// =============================================================================
// SHARED THEME
// =============================================================================

var (
	defaultMu    sync.Mutex
	defaultTheme *Theme
)

// Default returns the shared theme, creating it on first use.
func Default() *Theme {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultTheme == nil {
		defaultTheme = NewTheme()
	}
	return defaultTheme
}

// SetDefault replaces the shared theme.
func SetDefault(t *Theme) {
	defaultMu.Lock()
	defaultTheme = t
	defaultMu.Unlock()
}
