// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/askai-tui/internal/model"
)

func TestMessageBubble_User(t *testing.T) {
	theme := plainTheme(t)

	msg := model.NewUserMessage("What is in this picture?", []model.Blob{{Data: "AAAA"}, {Data: "BBBB"}})
	msg.Dictated = true
	out := NewMessageBubble(msg.Snapshot(), theme).View()

	assert.Contains(t, out, "You")
	assert.Contains(t, out, "dictated")
	assert.Contains(t, out, "What is in this picture?")
	assert.Contains(t, out, "[2 images attached]")
}

func TestMessageBubble_ModelStreaming(t *testing.T) {
	theme := plainTheme(t)

	tests := []struct {
		name   string
		deltas []string
		want   string
	}{
		{"empty shows placeholder", nil, "..." + CursorGlyph},
		{"partial text with cursor", []string{"Hello ", "**there**"}, "Hello there" + CursorGlyph},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			msg := model.NewModelMessage()
			for _, d := range tc.deltas {
				msg.AppendDelta(d)
			}
			out := NewMessageBubble(msg.Snapshot(), theme).View()
			assert.Contains(t, out, "AI")
			assert.Contains(t, out, tc.want)
		})
	}
}

func TestMessageBubble_ModelFinal(t *testing.T) {
	theme := plainTheme(t)

	msg := model.NewModelMessage()
	msg.AppendDelta("# Title\n")
	msg.AppendDelta("- item")
	stats := model.NewStatistics()
	stats.RecordFirstToken()
	stats.EndTime = stats.StartTime.Add(1500 * time.Millisecond)
	msg.FinalizeStream(stats)

	out := NewMessageBubble(msg.Snapshot(), theme).View()
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, BulletGlyph+" item")
	assert.NotContains(t, out, CursorGlyph)
	assert.Contains(t, out, "1.5s | 2 chunks")

	b := NewMessageBubble(msg.Snapshot(), theme)
	b.ShowStats = false
	assert.NotContains(t, b.View(), "chunks")
}

func TestMessageBubble_Error(t *testing.T) {
	theme := plainTheme(t)

	msg := model.NewErrorMessage(model.ErrorAuth, "Invalid API key. Please check your API key in the config file.")
	out := NewMessageBubble(msg.Snapshot(), theme).View()

	assert.Contains(t, out, "Invalid API key.")
	assert.NotContains(t, out, CursorGlyph)
}

func TestMessageList_CachesFinalMessages(t *testing.T) {
	theme := plainTheme(t)
	list := NewMessageList(theme)
	list.SetWidth(60)

	user := model.NewUserMessage("hi", nil)
	answer := model.NewModelMessage()
	answer.AppendDelta("partial")

	msgs := []model.Message{user.Snapshot(), answer.Snapshot()}
	out := list.View(msgs)
	assert.Contains(t, out, "partial"+CursorGlyph)
	assert.Equal(t, 1, list.CacheSize(), "streaming messages are not cached")

	answer.AppendDelta(" done")
	answer.FinalizeStream(nil)
	msgs[1] = answer.Snapshot()
	out = list.View(msgs)
	assert.Contains(t, out, "partial done")
	assert.Equal(t, 2, list.CacheSize())

	// Width changes re-render instead of reusing the cached output.
	list.SetWidth(30)
	narrow := list.RenderMessage(msgs[1])
	assert.Contains(t, narrow, "partial done")

	// Messages that disappear are pruned.
	list.View(msgs[:1])
	assert.Equal(t, 1, list.CacheSize())

	list.Invalidate()
	assert.Equal(t, 0, list.CacheSize())
}

func TestMessageList_Separator(t *testing.T) {
	theme := plainTheme(t)
	list := NewMessageList(theme)

	a := model.NewUserMessage("one", nil).Snapshot()
	b := model.NewUserMessage("two", nil).Snapshot()
	out := list.View([]model.Message{a, b})

	assert.Equal(t, 1, strings.Count(out, "\n\nYou"))
}

func TestFormatTime(t *testing.T) {
	now := time.Now()
	assert.Equal(t, now.Format("15:04"), formatTime(now))

	old := time.Date(2020, time.March, 5, 9, 30, 0, 0, time.Local)
	assert.Equal(t, "Mar 5 09:30", formatTime(old))
}
