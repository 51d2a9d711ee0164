// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Ellipsis is appended to truncated text.
const Ellipsis = "..."

// StringWidth returns the display width of s in terminal columns.
// Wide characters (CJK, most emoji) count as 2.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// TruncateWidth shortens s to at most maxWidth columns, ending in an
// ellipsis when something was cut. Multi-byte characters are never split.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= len(Ellipsis) {
		return runewidth.Truncate(s, maxWidth, "")
	}
	return runewidth.Truncate(s, maxWidth, Ellipsis)
}

// PadRight pads s with spaces to width columns. Longer strings are
// returned unchanged.
func PadRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// Preview collapses whitespace in s to single spaces and truncates the
// result to maxWidth columns.
func Preview(s string, maxWidth int) string {
	return TruncateWidth(strings.Join(strings.Fields(s), " "), maxWidth)
}

// RuneLen returns the number of runes in s.
func RuneLen(s string) int {
	return len([]rune(s))
}
