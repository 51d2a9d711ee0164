// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package markdown parses the small markdown dialect that model answers use.
//
// Parse turns text into a flat list of blocks (paragraph, heading, list
// item, code block, table, blank) and ParseInline turns one line into spans
// (plain, bold, italic, link, code). Neither function fails and neither
// keeps state, so a streaming answer can be re-parsed after every delta.
//
// This is deliberately not CommonMark: there is no nesting, no block
// quotes, no setext headings and no escapes.
//
// # Usage
//
//	for _, b := range markdown.Parse(answer) {
//	    switch b.Kind {
//	    case markdown.Heading:
//	        fmt.Println(b.Level, markdown.PlainText(b.Spans))
//	    case markdown.CodeBlock:
//	        fmt.Println(strings.Join(b.Lines, "\n"))
//	    }
//	}
package markdown
