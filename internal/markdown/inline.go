// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import "strings"

// =============================================================================
// SPAN TYPES
// =============================================================================

// SpanKind identifies the styling of an inline span.
type SpanKind int

const (
	Plain SpanKind = iota
	Bold
	Italic
	Link
	Code
)

// String returns the span kind name.
func (k SpanKind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Bold:
		return "bold"
	case Italic:
		return "italic"
	case Link:
		return "link"
	case Code:
		return "code"
	default:
		return "unknown"
	}
}

// Span is a run of inline text with one style. Href is set for links only.
type Span struct {
	Kind SpanKind
	Text string
	Href string
}

// =============================================================================
// INLINE PARSER
// =============================================================================

// ParseInline splits one line into styled spans.
//
// Patterns, tried in this order at every position:
//
//	**bold**   *italic*   [label](href)   `code`
//
// The leftmost position with any match wins; at a given position the first
// pattern in the list wins. Content is non-empty and ends at the nearest
// closing delimiter. Spans do not nest: the content of a match is taken
// verbatim. Text that does not complete a pattern stays plain.
func ParseInline(line string) []Span {
	var spans []Span
	var plain strings.Builder

	flush := func() {
		if plain.Len() > 0 {
			spans = append(spans, Span{Kind: Plain, Text: plain.String()})
			plain.Reset()
		}
	}

	for i := 0; i < len(line); {
		span, end, ok := matchAt(line, i)
		if !ok {
			plain.WriteByte(line[i])
			i++
			continue
		}
		flush()
		spans = append(spans, span)
		i = end
	}
	flush()
	return spans
}

// matchAt tries each pattern at byte offset i. end is the offset just past
// the match.
func matchAt(s string, i int) (Span, int, bool) {
	switch s[i] {
	case '*':
		// **bold**: content is at least one byte, closed by the next "**".
		if strings.HasPrefix(s[i:], "**") && i+3 <= len(s) {
			if j := strings.Index(s[i+3:], "**"); j >= 0 {
				stop := i + 3 + j
				return Span{Kind: Bold, Text: s[i+2 : stop]}, stop + 2, true
			}
		}
		// *italic*
		if i+2 <= len(s) {
			if j := strings.IndexByte(s[i+2:], '*'); j >= 0 {
				stop := i + 2 + j
				return Span{Kind: Italic, Text: s[i+1 : stop]}, stop + 1, true
			}
		}
	case '[':
		return matchLink(s, i)
	case '`':
		if i+2 <= len(s) {
			if j := strings.IndexByte(s[i+2:], '`'); j >= 0 {
				stop := i + 2 + j
				return Span{Kind: Code, Text: s[i+1 : stop]}, stop + 1, true
			}
		}
	}
	return Span{}, 0, false
}

// matchLink matches [label](href) at i. The label ends at the first "]("
// and the href at the next ')'. Both are non-empty. If the first "](" has
// no ')' after it, no later one can, so there is no match.
func matchLink(s string, i int) (Span, int, bool) {
	if i+2 > len(s) {
		return Span{}, 0, false
	}
	j := strings.Index(s[i+2:], "](")
	if j < 0 {
		return Span{}, 0, false
	}
	labelEnd := i + 2 + j
	hrefStart := labelEnd + 2
	if hrefStart+1 > len(s) {
		return Span{}, 0, false
	}
	k := strings.IndexByte(s[hrefStart+1:], ')')
	if k < 0 {
		return Span{}, 0, false
	}
	hrefEnd := hrefStart + 1 + k
	return Span{
		Kind: Link,
		Text: s[i+1 : labelEnd],
		Href: s[hrefStart:hrefEnd],
	}, hrefEnd + 1, true
}

// PlainText flattens spans back to their visible text.
func PlainText(spans []Span) string {
	var sb strings.Builder
	for _, s := range spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}
