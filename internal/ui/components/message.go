// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/askai-tui/internal/model"
	"github.com/jeranaias/askai-tui/internal/ui/styles"
)

// CursorGlyph trails a message that is still streaming.
const CursorGlyph = "▌"

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one transcript entry.
type MessageBubble struct {
	Message       model.Message
	Width         int
	ShowTimestamp bool
	ShowStats     bool
	Hyperlinks    bool
	theme         *styles.Theme
}

// NewMessageBubble creates a bubble for a message snapshot.
func NewMessageBubble(msg model.Message, theme *styles.Theme) *MessageBubble {
	if theme == nil {
		theme = styles.Default()
	}
	return &MessageBubble{
		Message:   msg,
		Width:     80,
		ShowStats: true,
		theme:     theme,
	}
}

// SetWidth sets the bubble width
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// View renders the message bubble
func (b *MessageBubble) View() string {
	if b.Message.Role == model.RoleUser {
		return b.renderUserBubble()
	}
	return b.renderModelBubble()
}

// ==========================================================================
// USER BUBBLE
// ==========================================================================

func (b *MessageBubble) renderUserBubble() string {
	header := []string{b.theme.UserLabel.Render(model.RoleUser.DisplayName())}
	if b.Message.Dictated {
		header = append(header, renderBadge(b.theme.DictationBadge, "dictated"))
	}
	if b.ShowTimestamp {
		header = append(header, b.renderTimestamp())
	}

	lines := []string{strings.Join(header, " ")}
	if b.Message.Content != "" {
		// Border and padding take four columns.
		inner := b.Width - 4
		if inner < minContentWidth {
			inner = minContentWidth
		}
		text := lipgloss.NewStyle().Width(min(inner, lipgloss.Width(b.Message.Content))).Render(b.Message.Content)
		lines = append(lines, b.theme.UserBubble.Render(text))
	}
	if n := len(b.Message.Images); n > 0 {
		lines = append(lines, renderBadge(b.theme.ImageBadge, imageLabel(n)))
	}
	return strings.Join(lines, "\n")
}

func imageLabel(n int) string {
	if n == 1 {
		return "[1 image attached]"
	}
	return "[" + strconv.Itoa(n) + " images attached]"
}

// ==========================================================================
// MODEL BUBBLE
// ==========================================================================

func (b *MessageBubble) renderModelBubble() string {
	header := []string{b.theme.ModelLabel.Render(model.RoleModel.DisplayName())}
	if b.ShowTimestamp {
		header = append(header, b.renderTimestamp())
	}
	lines := []string{strings.Join(header, " ")}

	bodyWidth := b.Width - 2
	if bodyWidth < minContentWidth {
		bodyWidth = minContentWidth
	}

	content := b.Message.GetDisplayContent()
	switch {
	case b.Message.IsError:
		lines = append(lines, b.theme.ErrorMessage.Width(bodyWidth).Render(content))
	case content == "" && b.Message.IsStreaming:
		lines = append(lines, b.theme.ModelBody.Render("..."+b.renderStreamingCursor()))
	default:
		md := NewMarkdownRenderer(b.theme, bodyWidth-1)
		md.Hyperlinks = b.Hyperlinks
		body := md.Render(content)
		if b.Message.IsStreaming {
			body = strings.TrimRight(body, " ") + b.renderStreamingCursor()
		}
		lines = append(lines, b.theme.ModelBody.Render(body))
	}

	if b.ShowStats && !b.Message.IsStreaming && !b.Message.IsError {
		if stats := b.Message.FormatStats(); stats != "" {
			lines = append(lines, b.theme.Stats.Render(stats))
		}
	}
	return strings.Join(lines, "\n")
}

func (b *MessageBubble) renderTimestamp() string {
	if b.Message.Timestamp.IsZero() {
		return ""
	}
	return b.theme.Stats.Render(formatTime(b.Message.Timestamp))
}

func (b *MessageBubble) renderStreamingCursor() string {
	return b.theme.Cursor.Render(CursorGlyph)
}

// formatTime shows the clock time for today and a date otherwise.
func formatTime(t time.Time) string {
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("Jan 2 15:04")
}

// =============================================================================
// MESSAGE LIST
// =============================================================================

// MessageList renders a transcript and caches the output of finalized
// messages by ID and width.
type MessageList struct {
	theme      *styles.Theme
	width      int
	showStats  bool
	hyperlinks bool

	mu    sync.Mutex
	cache map[string]cachedRender
}

type cachedRender struct {
	width  int
	output string
}

// NewMessageList creates an empty message list.
func NewMessageList(theme *styles.Theme) *MessageList {
	if theme == nil {
		theme = styles.Default()
	}
	return &MessageList{
		theme:     theme,
		width:     80,
		showStats: true,
		cache:     make(map[string]cachedRender),
	}
}

// SetWidth sets the render width. Cached entries for other widths are
// rebuilt lazily.
func (ml *MessageList) SetWidth(width int) {
	ml.width = width
}

// SetShowStats toggles the timing line under model answers.
func (ml *MessageList) SetShowStats(show bool) {
	if ml.showStats != show {
		ml.showStats = show
		ml.Invalidate()
	}
}

// SetHyperlinks toggles OSC-8 links.
func (ml *MessageList) SetHyperlinks(on bool) {
	if ml.hyperlinks != on {
		ml.hyperlinks = on
		ml.Invalidate()
	}
}

// Invalidate drops every cached render.
func (ml *MessageList) Invalidate() {
	ml.mu.Lock()
	ml.cache = make(map[string]cachedRender)
	ml.mu.Unlock()
}

// CacheSize returns the number of cached renders.
func (ml *MessageList) CacheSize() int {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	return len(ml.cache)
}

// RenderMessage renders one message, using the cache when it is final.
func (ml *MessageList) RenderMessage(msg model.Message) string {
	final := !msg.IsStreaming
	if final {
		ml.mu.Lock()
		c, ok := ml.cache[msg.ID]
		ml.mu.Unlock()
		if ok && c.width == ml.width {
			return c.output
		}
	}

	bubble := NewMessageBubble(msg, ml.theme)
	bubble.SetWidth(ml.width)
	bubble.ShowStats = ml.showStats
	bubble.Hyperlinks = ml.hyperlinks
	out := bubble.View()

	if final && msg.ID != "" {
		ml.mu.Lock()
		ml.cache[msg.ID] = cachedRender{width: ml.width, output: out}
		ml.mu.Unlock()
	}
	return out
}

// View renders all messages separated by a blank line and prunes cache
// entries for messages no longer present.
func (ml *MessageList) View(messages []model.Message) string {
	parts := make([]string, 0, len(messages))
	live := make(map[string]struct{}, len(messages))
	for _, msg := range messages {
		live[msg.ID] = struct{}{}
		parts = append(parts, ml.RenderMessage(msg))
	}

	ml.mu.Lock()
	for id := range ml.cache {
		if _, ok := live[id]; !ok {
			delete(ml.cache, id)
		}
	}
	ml.mu.Unlock()

	return strings.Join(parts, "\n\n")
}
