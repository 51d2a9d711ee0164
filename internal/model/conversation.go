// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import "strings"

// DefaultImageMIME is used for attachments whose type is unknown.
const DefaultImageMIME = "image/jpeg"

// =============================================================================
// TURN TYPES
// =============================================================================

// Blob is base64-encoded binary content with its MIME type.
type Blob struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Part is one piece of a turn: text or an inline blob.
type Part struct {
	Text   string `json:"text,omitempty"`
	Inline *Blob  `json:"inline,omitempty"`
}

// IsText reports whether the part carries text rather than binary data.
func (p Part) IsText() bool {
	return p.Inline == nil
}

// Turn is one role-tagged entry of the conversation history sent to the model.
type Turn struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// UserTurn builds a user turn: the text part first, then one part per image.
func UserTurn(text string, images []Blob) Turn {
	parts := make([]Part, 0, 1+len(images))
	parts = append(parts, Part{Text: text})
	for i := range images {
		img := images[i]
		if img.MimeType == "" {
			img.MimeType = DefaultImageMIME
		}
		parts = append(parts, Part{Inline: &img})
	}
	return Turn{Role: RoleUser, Parts: parts}
}

// ModelTurn builds a model turn holding the complete answer text.
func ModelTurn(text string) Turn {
	return Turn{Role: RoleModel, Parts: []Part{{Text: text}}}
}

// Text joins the text parts of the turn.
func (t Turn) Text() string {
	var sb strings.Builder
	for _, p := range t.Parts {
		if p.IsText() {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

// InlineCount returns the number of binary parts.
func (t Turn) InlineCount() int {
	n := 0
	for _, p := range t.Parts {
		if !p.IsText() {
			n++
		}
	}
	return n
}
