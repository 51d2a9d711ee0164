// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/askai-tui/internal/ui/styles"
)

// =============================================================================
// CODE BLOCK RENDERER
// =============================================================================

// CodeBlock renders a fenced code block with syntax highlighting.
type CodeBlock struct {
	Language    string
	Lines       []string
	MaxWidth    int
	LineNumbers bool
	theme       *styles.Theme
}

// NewCodeBlock creates a code block for the given language tag and lines.
func NewCodeBlock(theme *styles.Theme, language string, lines []string) CodeBlock {
	return CodeBlock{
		Language: language,
		Lines:    lines,
		MaxWidth: 80,
		theme:    theme,
	}
}

// Render renders the framed block. Code that does not fit is cut at the
// frame rather than wrapped, so indentation stays intact.
func (c CodeBlock) Render() string {
	code := strings.Join(c.Lines, "\n")
	highlighted := highlightCode(code, c.Language, c.theme.SyntaxStyle, c.theme.ColorProfile)
	lines := strings.Split(highlighted, "\n")

	if c.LineNumbers {
		numWidth := len(strconv.Itoa(len(lines)))
		numStyle := c.theme.CodeLineNum.Width(numWidth).MarginRight(1)
		for i, line := range lines {
			lines[i] = numStyle.Render(strconv.Itoa(i+1)) + line
		}
	}

	body := strings.Join(lines, "\n")
	if c.Language != "" {
		body = c.theme.CodeLangBadge.Render(c.Language) + "\n" + body
	}

	maxWidth := c.MaxWidth
	if maxWidth < 20 {
		maxWidth = 20
	}
	return c.theme.CodeBlock.MaxWidth(maxWidth).Render(body)
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// highlightCode applies chroma highlighting. It returns code unchanged when
// the terminal has no color or highlighting fails.
func highlightCode(code, language, styleName string, profile termenv.Profile) string {
	if profile == termenv.Ascii || code == "" {
		return code
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatterName := "terminal256"
	switch profile {
	case termenv.TrueColor:
		formatterName = "terminal16m"
	case termenv.ANSI:
		formatterName = "terminal16"
	}
	formatter := formatters.Get(formatterName)
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// renderBadge renders a short label such as a language tag.
func renderBadge(style lipgloss.Style, label string) string {
	if label == "" {
		return ""
	}
	return style.Render(label)
}
