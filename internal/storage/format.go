// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"strconv"
	"strings"
	"time"

	"github.com/jeranaias/askai-tui/internal/model"
	"github.com/jeranaias/askai-tui/internal/util"
)

// ShortIDLength is how much of a conversation ID listings show. Load and
// Delete accept any unique prefix.
const ShortIDLength = 8

// =============================================================================
// LIST FORMATTING
// =============================================================================

// FormatList renders conversations as a plain-text table.
func FormatList(metas []ConversationMeta) string {
	if len(metas) == 0 {
		return "No conversations found.\n"
	}

	var sb strings.Builder
	sb.WriteString(util.PadRight("ID", ShortIDLength+2))
	sb.WriteString(util.PadRight("Updated", 18))
	sb.WriteString(util.PadRight("Turns", 7))
	sb.WriteString("Preview\n")

	for _, m := range metas {
		id := m.ID
		if len(id) > ShortIDLength {
			id = id[:ShortIDLength]
		}
		sb.WriteString(util.PadRight(id, ShortIDLength+2))
		sb.WriteString(util.PadRight(m.UpdatedAt.Format("2006-01-02 15:04"), 18))
		sb.WriteString(util.PadRight(strconv.Itoa(m.TurnCount), 7))
		sb.WriteString(util.Preview(m.Preview, 50))
		sb.WriteString("\n")
	}
	return sb.String()
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders the conversation as a Markdown document.
func (c *Conversation) ExportMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# Conversation " + c.ID + "\n\n")
	sb.WriteString("Model: " + c.Model + "  \n")
	sb.WriteString("Created: " + c.CreatedAt.Format(time.RFC3339) + "\n\n")
	sb.WriteString("---\n\n")

	for _, t := range c.Turns {
		sb.WriteString("**" + t.Role.DisplayName() + "** (" + t.At.Format("15:04") + ")")
		if t.Role == model.RoleUser && t.ImageCount > 0 {
			sb.WriteString(" [" + strconv.Itoa(t.ImageCount) + " image(s)]")
		}
		sb.WriteString(":\n\n")
		sb.WriteString(t.Text)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}
