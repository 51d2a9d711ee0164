// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/askai-tui/internal/config"
	"github.com/jeranaias/askai-tui/internal/session"
)

// =============================================================================
// SESSION MESSAGES
// =============================================================================

// SessionEventsMsg carries session events batched by the EventPump. The
// model reads the new state from the session itself.
type SessionEventsMsg struct {
	Events []session.Event
}

// Has reports whether any event in the batch is of kind k.
func (m SessionEventsMsg) Has(k session.EventKind) bool {
	for _, ev := range m.Events {
		if ev.Kind == k {
			return true
		}
	}
	return false
}

// =============================================================================
// DICTATION MESSAGES
// =============================================================================

// TranscribedMsg is the result of a /dictate command.
type TranscribedMsg struct {
	Path string
	Text string
	Err  error
}

// =============================================================================
// CONFIG MESSAGES
// =============================================================================

// ConfigReloadedMsg is sent when the config file changes on disk.
type ConfigReloadedMsg struct {
	Config *config.Config
	Err    error
}

// =============================================================================
// NOTICE MESSAGES
// =============================================================================

// clearNoticeMsg clears the status notice if it is still the one with id.
type clearNoticeMsg struct {
	id int
}
