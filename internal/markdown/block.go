// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"strings"
	"unicode"
)

// =============================================================================
// BLOCK TYPES
// =============================================================================

// BlockKind identifies a structural element.
type BlockKind int

const (
	Paragraph BlockKind = iota
	Heading
	ListItem
	CodeBlock
	Table
	Blank
)

// String returns the block kind name.
func (k BlockKind) String() string {
	switch k {
	case Paragraph:
		return "paragraph"
	case Heading:
		return "heading"
	case ListItem:
		return "list_item"
	case CodeBlock:
		return "code_block"
	case Table:
		return "table"
	case Blank:
		return "blank"
	default:
		return "unknown"
	}
}

// Cell is one table cell.
type Cell []Span

// Block is one structural element. Which fields are set depends on Kind:
//
//	Paragraph  Spans
//	Heading    Level (1-4), Spans
//	ListItem   Ordered, Marker ("-", "*" or the ordinal label such as "3"), Indent, Spans
//	CodeBlock  Language, Lines (verbatim)
//	Table      Headers (empty when the table has no header row), Rows
//	Blank      nothing
type Block struct {
	Kind BlockKind

	Spans []Span

	Level int

	Ordered bool
	Marker  string
	Indent  int

	Language string
	Lines    []string

	Headers []Cell
	Rows    [][]Cell
}

// MaxHeadingLevel is the deepest heading recognised.
const MaxHeadingLevel = 4

const fence = "```"

// =============================================================================
// BLOCK PARSER
// =============================================================================

// Parse splits text into blocks. It never fails: markup that does not fit a
// rule degrades to a paragraph. Parse is a pure function of its input, so
// re-parsing a growing text on every update is safe.
//
// At each line the rules are tried in order: code fence, table, heading,
// list item, blank, paragraph.
func Parse(text string) []Block {
	lines := strings.Split(text, "\n")
	blocks := make([]Block, 0, len(lines))

	for i := 0; i < len(lines); {
		line := strings.TrimSuffix(lines[i], "\r")
		trimmed := strings.TrimSpace(line)

		if lang, ok := fenceOpen(trimmed); ok {
			block, next := parseCodeBlock(lines, i+1, lang)
			blocks = append(blocks, block)
			i = next
			continue
		}

		if block, next, ok := parseTable(lines, i); ok {
			blocks = append(blocks, block)
			i = next
			continue
		}

		if level, rest, ok := headingLine(line); ok {
			blocks = append(blocks, Block{Kind: Heading, Level: level, Spans: ParseInline(rest)})
			i++
			continue
		}

		if block, ok := listItem(line, trimmed); ok {
			blocks = append(blocks, block)
			i++
			continue
		}

		if trimmed == "" {
			blocks = append(blocks, Block{Kind: Blank})
			i++
			continue
		}

		blocks = append(blocks, Block{Kind: Paragraph, Spans: ParseInline(trimmed)})
		i++
	}

	return blocks
}

// =============================================================================
// CODE FENCES
// =============================================================================

// fenceOpen reports whether trimmed opens a code block. Anything after the
// backticks is the language tag and may not itself contain a backtick.
func fenceOpen(trimmed string) (string, bool) {
	if !strings.HasPrefix(trimmed, fence) {
		return "", false
	}
	lang := strings.TrimSpace(trimmed[len(fence):])
	if strings.Contains(lang, "`") {
		return "", false
	}
	return lang, true
}

// parseCodeBlock collects lines verbatim from start until a closing fence or
// end of input. next is the index after the closing fence.
func parseCodeBlock(lines []string, start int, lang string) (Block, int) {
	block := Block{Kind: CodeBlock, Language: lang, Lines: []string{}}
	i := start
	for ; i < len(lines); i++ {
		line := strings.TrimSuffix(lines[i], "\r")
		if strings.HasPrefix(strings.TrimSpace(line), fence) {
			return block, i + 1
		}
		block.Lines = append(block.Lines, line)
	}
	return block, i
}

// =============================================================================
// TABLES
// =============================================================================

// parseTable recognises a table at lines[i]: the line contains a pipe and
// either it or the following line is a separator row. The header row exists
// only when the separator follows it.
func parseTable(lines []string, i int) (Block, int, bool) {
	line := strings.TrimSpace(strings.TrimSuffix(lines[i], "\r"))
	if !strings.Contains(line, "|") {
		return Block{}, 0, false
	}

	block := Block{Kind: Table, Headers: []Cell{}, Rows: [][]Cell{}}
	next := i + 1

	switch {
	case isSeparatorRow(line):
	case i+1 < len(lines) && isSeparatorRow(strings.TrimSpace(lines[i+1])):
		block.Headers = splitRow(line)
		next = i + 2
	default:
		return Block{}, 0, false
	}

	for next < len(lines) {
		row := strings.TrimSpace(strings.TrimSuffix(lines[next], "\r"))
		if !strings.HasPrefix(row, "|") {
			break
		}
		block.Rows = append(block.Rows, splitRow(row))
		next++
	}
	return block, next, true
}

// isSeparatorRow reports whether a trimmed line is a header separator such
// as "|---|:--:|": only pipes, dashes, colons and spaces, at least one pipe
// and at least three dashes.
func isSeparatorRow(line string) bool {
	if !strings.Contains(line, "|") || strings.Count(line, "-") < 3 {
		return false
	}
	for _, r := range line {
		switch r {
		case '|', '-', ':', ' ', '\t':
		default:
			return false
		}
	}
	return true
}

// splitRow splits a trimmed table row into cells. The empty cell produced by
// a leading or trailing pipe is dropped; inner empty cells are kept.
func splitRow(line string) []Cell {
	parts := strings.Split(line, "|")
	if strings.HasPrefix(line, "|") {
		parts = parts[1:]
	}
	if len(parts) > 0 && strings.HasSuffix(line, "|") {
		parts = parts[:len(parts)-1]
	}

	cells := make([]Cell, 0, len(parts))
	for _, p := range parts {
		cells = append(cells, Cell(ParseInline(strings.TrimSpace(p))))
	}
	return cells
}

// =============================================================================
// HEADINGS AND LISTS
// =============================================================================

// headingLine matches one to four leading '#' at the very start of line.
func headingLine(line string) (int, string, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > MaxHeadingLevel {
		return 0, "", false
	}
	return level, strings.TrimSpace(line[level:]), true
}

// listItem matches "- x", "* x" and "12. x" on the trimmed line.
func listItem(line, trimmed string) (Block, bool) {
	indent := indentWidth(line) / 2

	if len(trimmed) >= 2 && (trimmed[0] == '-' || trimmed[0] == '*') && isSpace(trimmed[1]) {
		return Block{
			Kind:   ListItem,
			Marker: trimmed[:1],
			Indent: indent,
			Spans:  ParseInline(strings.TrimSpace(trimmed[2:])),
		}, true
	}

	digits := 0
	for digits < len(trimmed) && trimmed[digits] >= '0' && trimmed[digits] <= '9' {
		digits++
	}
	if digits > 0 && digits+1 < len(trimmed) && trimmed[digits] == '.' && isSpace(trimmed[digits+1]) {
		return Block{
			Kind:    ListItem,
			Ordered: true,
			Marker:  trimmed[:digits],
			Indent:  indent,
			Spans:   ParseInline(strings.TrimSpace(trimmed[digits+2:])),
		}, true
	}

	return Block{}, false
}

// indentWidth counts leading whitespace, a tab counting as four columns.
func indentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch {
		case r == '\t':
			width += 4
		case unicode.IsSpace(r):
			width++
		default:
			return width
		}
	}
	return width
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t'
}
