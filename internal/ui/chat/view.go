// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"crypto/sha256"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat view.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var body string
	if m.state == StateHome {
		body = m.welcome.View()
	} else {
		body = m.viewport.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		body,
		m.renderInput(),
		m.status.View(),
	)
}

func (m Model) renderInput() string {
	return m.theme.InputContainer.Width(m.width).Render(m.input.View())
}

// =============================================================================
// CONTENT TRACKER
// =============================================================================

// contentTracker skips viewport updates when the rendered transcript has
// not changed, which is common while deltas are coalesced.
type contentTracker struct {
	mu       sync.Mutex
	lastHash [sha256.Size]byte
	primed   bool
	updates  uint64
	skips    uint64
}

func newContentTracker() *contentTracker {
	return &contentTracker{}
}

// ShouldUpdate reports whether content differs from the last accepted
// content, and remembers it if so.
func (t *contentTracker) ShouldUpdate(content string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.updates++
	h := sha256.Sum256([]byte(content))
	if t.primed && h == t.lastHash {
		t.skips++
		return false
	}
	t.lastHash = h
	t.primed = true
	return true
}

// Force makes the next ShouldUpdate return true, e.g. after a resize.
func (t *contentTracker) Force() {
	t.mu.Lock()
	t.primed = false
	t.mu.Unlock()
}

// Stats returns the number of update attempts and how many were skipped.
func (t *contentTracker) Stats() (updates, skips uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.updates, t.skips
}
