// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the styled building blocks of the askai TUI.

# Markdown

MarkdownRenderer (markdown.go) turns model output into terminal text. It
parses with the markdown package and styles each block:

  - headings by level (colour, weight, underline for level 1)
  - list items with a bullet or their ordinal label, indented by nesting
  - fenced code highlighted with Chroma and framed (codeblock.go)
  - tables with rune-width aware columns and a tinted first column
  - links as OSC-8 hyperlinks when enabled, "label (href)" otherwise
  - inline code on a dim background

Parsing is stateless, so a streaming answer is simply re-rendered from its
current text on every update.

# Transcript

MessageBubble (message.go) renders one message: user text in a bubble with
dictation and image badges, model answers as markdown with a cursor glyph
while streaming, errors in the error style. MessageList caches the output of
finalized messages by ID and width.

# Chrome

Header (header.go), StatusBar (statusbar.go) and Welcome (welcome.go, the
home view) complete the screen.

# Usage

	list := components.NewMessageList(theme)
	list.SetWidth(width)
	body := list.View(sess.Messages())
*/
package components
