// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// HEADER TESTS
// =============================================================================

func TestNewHeader(t *testing.T) {
	h := NewHeader(plainTheme(t))

	if h.Title != "askai" {
		t.Errorf("NewHeader() Title = %q, want %q", h.Title, "askai")
	}
	if h.Width != 80 {
		t.Errorf("NewHeader() Width = %d, want 80", h.Width)
	}
}

func TestHeaderView(t *testing.T) {
	tests := []struct {
		name     string
		width    int
		wantConv bool
	}{
		{"wide shows conversation", 100, true},
		{"narrow hides conversation", 40, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHeader(plainTheme(t))
			h.SetWidth(tc.width)
			h.SetModel("gemini-2.5-flash-lite")
			h.SetConversation("0123456789abcdef")

			view := h.View()
			if !strings.Contains(view, "askai") {
				t.Errorf("View() missing brand: %q", view)
			}
			if !strings.Contains(view, "gemini-2.5-flash-lite") {
				t.Errorf("View() missing model: %q", view)
			}
			if got := strings.Contains(view, "#01234567"); got != tc.wantConv {
				t.Errorf("conversation shown = %v, want %v", got, tc.wantConv)
			}
			for _, line := range strings.Split(view, "\n") {
				if w := lipgloss.Width(line); w > tc.width {
					t.Errorf("line width %d exceeds %d", w, tc.width)
				}
			}
		})
	}
}

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestStatusString(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusReady, "Ready"},
		{StatusStreaming, "Streaming..."},
		{StatusTranscribing, "Transcribing..."},
		{StatusError, "Error"},
		{Status(99), "Unknown"},
	}

	for _, tc := range tests {
		if got := tc.status.String(); got != tc.want {
			t.Errorf("Status(%d).String() = %q, want %q", tc.status, got, tc.want)
		}
	}
}

func TestStatusBarView(t *testing.T) {
	s := NewStatusBar(plainTheme(t))
	s.SetWidth(100)
	s.SetModel("chat-model")
	s.SetStatus(StatusStreaming)
	s.Spinner = "*"
	s.Attachments = 1
	s.Dictated = true
	s.SetNotice("Copied to clipboard")

	view := s.View()
	for _, want := range []string{"* Streaming...", "chat-model", "[1 image attached]", "dictated", "Copied to clipboard"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q: %q", want, view)
		}
	}
	if w := lipgloss.Width(view); w > 100 {
		t.Errorf("View() width = %d, want <= 100", w)
	}
}

func TestStatusBarView_Shortcuts(t *testing.T) {
	s := NewStatusBar(plainTheme(t))
	s.SetWidth(100)
	s.SetModel("chat-model")

	view := s.View()
	for _, sc := range DefaultShortcuts {
		if !strings.Contains(view, sc.Key+" "+sc.Desc) {
			t.Errorf("View() missing shortcut %q", sc.Key)
		}
	}
}

func TestStatusBarView_Narrow(t *testing.T) {
	s := NewStatusBar(plainTheme(t))
	s.SetWidth(40)
	s.SetModel("chat-model")

	view := s.View()
	if strings.Contains(view, "chat-model") || strings.Contains(view, "Enter") {
		t.Errorf("narrow View() should drop model and shortcuts: %q", view)
	}
	if !strings.Contains(view, "Ready") {
		t.Errorf("narrow View() missing status: %q", view)
	}
}

// =============================================================================
// WELCOME TESTS
// =============================================================================

func TestWelcomeView(t *testing.T) {
	w := NewWelcome(plainTheme(t))
	w.SetSize(100, 30)
	w.SetModelName("gemini-2.5-flash-lite")

	view := w.View()
	for _, want := range []string{HomeTitle, HomeSubtitle, "/dictate", "gemini-2.5-flash-lite"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
	if h := lipgloss.Height(view); h != 30 {
		t.Errorf("View() height = %d, want 30", h)
	}
}

func TestWelcomeView_Short(t *testing.T) {
	w := NewWelcome(plainTheme(t))
	w.SetSize(100, 8)

	view := w.View()
	if !strings.Contains(view, HomeTitle) {
		t.Error("short View() missing title")
	}
	if strings.Contains(view, "/dictate") {
		t.Error("short View() should drop the hints")
	}
}
