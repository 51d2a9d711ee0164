// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/jeranaias/askai-tui/internal/markdown"
	"github.com/jeranaias/askai-tui/internal/ui/styles"
	"github.com/jeranaias/askai-tui/internal/util"
)

// BulletGlyph prefixes unordered list items.
const BulletGlyph = "•"

// minContentWidth is the narrowest width the renderer lays out for.
const minContentWidth = 10

// =============================================================================
// MARKDOWN RENDERER
// =============================================================================

// MarkdownRenderer turns model output into styled terminal text.
type MarkdownRenderer struct {
	theme *styles.Theme
	width int

	// Hyperlinks emits OSC-8 sequences for links instead of "label (href)".
	Hyperlinks bool
}

// NewMarkdownRenderer creates a renderer for the given width.
func NewMarkdownRenderer(theme *styles.Theme, width int) *MarkdownRenderer {
	if theme == nil {
		theme = styles.Default()
	}
	if width < minContentWidth {
		width = minContentWidth
	}
	return &MarkdownRenderer{theme: theme, width: width}
}

// RenderMarkdown parses text and renders it with the shared theme.
func RenderMarkdown(text string, width int, hyperlinks bool) string {
	r := NewMarkdownRenderer(styles.Default(), width)
	r.Hyperlinks = hyperlinks
	return r.Render(text)
}

// Render parses text and renders every block, one after another.
func (r *MarkdownRenderer) Render(text string) string {
	return r.RenderBlocks(markdown.Parse(text))
}

// RenderBlocks renders already-parsed blocks.
func (r *MarkdownRenderer) RenderBlocks(blocks []markdown.Block) string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, r.renderBlock(b))
	}
	return strings.Join(out, "\n")
}

func (r *MarkdownRenderer) renderBlock(b markdown.Block) string {
	switch b.Kind {
	case markdown.Heading:
		return r.wrap(r.theme.HeadingStyle(b.Level), r.renderSpans(b.Spans), r.width)
	case markdown.ListItem:
		return r.renderListItem(b)
	case markdown.CodeBlock:
		cb := NewCodeBlock(r.theme, b.Language, b.Lines)
		cb.MaxWidth = r.width
		return cb.Render()
	case markdown.Table:
		return r.renderTable(b)
	case markdown.Blank:
		return ""
	default:
		return r.wrap(r.theme.Paragraph, r.renderSpans(b.Spans), r.width)
	}
}

// wrap word-wraps already-styled text to width.
func (r *MarkdownRenderer) wrap(style lipgloss.Style, text string, width int) string {
	if width < 1 {
		width = 1
	}
	return style.Width(width).Render(text)
}

// =============================================================================
// INLINE SPANS
// =============================================================================

func (r *MarkdownRenderer) renderSpans(spans []markdown.Span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(r.renderSpan(s))
	}
	return sb.String()
}

func (r *MarkdownRenderer) renderSpan(s markdown.Span) string {
	switch s.Kind {
	case markdown.Bold:
		return r.theme.Bold.Render(s.Text)
	case markdown.Italic:
		return r.theme.Italic.Render(s.Text)
	case markdown.Code:
		return r.theme.InlineCode.Render(s.Text)
	case markdown.Link:
		return r.renderLink(s)
	default:
		return s.Text
	}
}

func (r *MarkdownRenderer) renderLink(s markdown.Span) string {
	label := r.theme.Link.Render(s.Text)
	if r.Hyperlinks && r.theme.ColorProfile != termenv.Ascii {
		return termenv.Hyperlink(s.Href, label)
	}
	if s.Href == "" || s.Href == s.Text {
		return label
	}
	return label + " (" + s.Href + ")"
}

// =============================================================================
// LIST ITEMS
// =============================================================================

func (r *MarkdownRenderer) renderListItem(b markdown.Block) string {
	marker := BulletGlyph
	if b.Ordered {
		marker = b.Marker + "."
	}
	prefix := strings.Repeat("  ", b.Indent) + r.theme.Bullet.Render(marker) + " "
	prefixWidth := lipgloss.Width(prefix)

	bodyWidth := r.width - prefixWidth
	if bodyWidth < minContentWidth {
		bodyWidth = minContentWidth
	}
	body := r.wrap(r.theme.Paragraph, r.renderSpans(b.Spans), bodyWidth)

	// Continuation lines hang under the first character of the text.
	return lipgloss.JoinHorizontal(lipgloss.Top, prefix, body)
}

// =============================================================================
// TABLES
// =============================================================================

const (
	tableColSep    = " │ "
	tableCrossSep  = "─┼─"
	tableMinColumn = 3
)

func (r *MarkdownRenderer) renderTable(b markdown.Block) string {
	cols := len(b.Headers)
	for _, row := range b.Rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return ""
	}

	header := cellTexts(b.Headers, cols)
	rows := make([][]string, len(b.Rows))
	for i, row := range b.Rows {
		rows[i] = cellTexts(row, cols)
	}

	widths := make([]int, cols)
	measure := func(cells []string) {
		for i, c := range cells {
			if w := util.StringWidth(c); w > widths[i] {
				widths[i] = w
			}
		}
	}
	if len(b.Headers) > 0 {
		measure(header)
	}
	for _, row := range rows {
		measure(row)
	}
	fitColumns(widths, r.width-util.StringWidth(tableColSep)*(cols-1))

	var lines []string
	if len(b.Headers) > 0 {
		lines = append(lines, r.renderRow(header, widths, true))
		seps := make([]string, cols)
		for i, w := range widths {
			seps[i] = strings.Repeat("─", w)
		}
		lines = append(lines, r.theme.TableBorder.Render(strings.Join(seps, tableCrossSep)))
	}
	for _, row := range rows {
		lines = append(lines, r.renderRow(row, widths, false))
	}
	return strings.Join(lines, "\n")
}

func (r *MarkdownRenderer) renderRow(cells []string, widths []int, header bool) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		text := util.PadRight(util.TruncateWidth(c, widths[i]), widths[i])
		switch {
		case header:
			parts[i] = r.theme.TableHeader.Render(text)
		case i == 0:
			parts[i] = r.theme.TableFirstCol.Render(text)
		default:
			parts[i] = r.theme.TableCell.Render(text)
		}
	}
	return strings.Join(parts, r.theme.TableBorder.Render(tableColSep))
}

// cellTexts flattens cells to plain text, padding short rows to cols.
func cellTexts(cells []markdown.Cell, cols int) []string {
	out := make([]string, cols)
	for i := 0; i < cols && i < len(cells); i++ {
		out[i] = markdown.PlainText(cells[i])
	}
	return out
}

// fitColumns shrinks the widest columns until the total fits in avail.
func fitColumns(widths []int, avail int) {
	total := 0
	for _, w := range widths {
		total += w
	}
	for total > avail {
		widest := 0
		for i, w := range widths {
			if w > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= tableMinColumn {
			return
		}
		widths[widest]--
		total--
	}
}
