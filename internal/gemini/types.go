// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"strings"

	"github.com/jeranaias/askai-tui/internal/model"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// Request is the body of generateContent and streamGenerateContent.
type Request struct {
	Contents          []Content         `json:"contents"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
	SystemInstruction *Content          `json:"system_instruction,omitempty"`
}

// Content is one role-tagged entry of a request.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a text or inline-data piece of a Content.
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// InlineData carries base64-encoded binary content.
type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

// GenerationConfig holds the sampling parameters.
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// DefaultGenerationConfig returns the default sampling parameters.
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:     1.0,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 8192,
	}
}

// SystemInstructionFrom returns a system instruction for text, or nil when
// text is blank so the field is omitted from the request.
func SystemInstructionFrom(text string) *Content {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return &Content{Parts: []Part{{Text: text}}}
}

// ContentsFromTurns converts conversation history into request contents.
func ContentsFromTurns(turns []model.Turn) []Content {
	contents := make([]Content, 0, len(turns))
	for _, turn := range turns {
		c := Content{Role: turn.Role.String(), Parts: make([]Part, 0, len(turn.Parts))}
		for _, p := range turn.Parts {
			if p.Inline != nil {
				c.Parts = append(c.Parts, Part{InlineData: &InlineData{
					MimeType: p.Inline.MimeType,
					Data:     p.Inline.Data,
				}})
				continue
			}
			c.Parts = append(c.Parts, Part{Text: p.Text})
		}
		contents = append(contents, c)
	}
	return contents
}
