// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestNewThemeFor(t *testing.T) {
	dark := NewThemeFor(ModeDark)
	if !dark.IsDark {
		t.Error("dark mode should report IsDark")
	}
	if dark.SyntaxStyle != "monokai" {
		t.Errorf("dark syntax style = %q", dark.SyntaxStyle)
	}

	light := NewThemeFor(ModeLight)
	if light.IsDark {
		t.Error("light mode should not report IsDark")
	}
	if light.SyntaxStyle != "github" {
		t.Errorf("light syntax style = %q", light.SyntaxStyle)
	}
}

func TestThemeStylesRender(t *testing.T) {
	theme := NewTheme()

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"HomeTitle", theme.HomeTitle},
		{"UserBubble", theme.UserBubble},
		{"ModelBody", theme.ModelBody},
		{"ErrorMessage", theme.ErrorMessage},
		{"CodeBlock", theme.CodeBlock},
		{"TableHeader", theme.TableHeader},
		{"InputContainer", theme.InputContainer},
		{"StatusBar", theme.StatusBar},
	}

	for _, s := range styles {
		if !strings.Contains(s.style.Render("test"), "test") {
			t.Errorf("%s style lost its content", s.name)
		}
	}
}

func TestHeadingStyleClamps(t *testing.T) {
	theme := NewTheme()

	for _, level := range []int{-1, 0, 1, 4, 9} {
		if out := theme.HeadingStyle(level).Render("Title"); !strings.Contains(out, "Title") {
			t.Errorf("HeadingStyle(%d) lost its content", level)
		}
	}
}

func TestGetLayoutMode(t *testing.T) {
	theme := NewTheme()
	cases := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutMedium},
		{99, LayoutMedium},
		{100, LayoutWide},
	}
	for _, tc := range cases {
		theme.SetSize(tc.width, 30)
		if got := theme.GetLayoutMode(); got != tc.want {
			t.Errorf("width %d: got %v, want %v", tc.width, got, tc.want)
		}
	}
}

func TestDefaultTheme(t *testing.T) {
	SetDefault(nil)
	first := Default()
	if first == nil || Default() != first {
		t.Fatal("Default should create and then reuse one theme")
	}

	custom := NewThemeFor(ModeLight)
	SetDefault(custom)
	defer SetDefault(nil)
	if Default() != custom {
		t.Error("SetDefault should replace the shared theme")
	}
}

func TestStatusHelpers(t *testing.T) {
	if out := RenderSuccess("saved"); !strings.Contains(out, IndicatorSuccess) || !strings.Contains(out, "saved") {
		t.Errorf("RenderSuccess = %q", out)
	}
	if out := RenderError("failed"); !strings.Contains(out, IndicatorError) {
		t.Errorf("RenderError = %q", out)
	}
	if out := RenderInfo("note"); !strings.Contains(out, IndicatorInfo) {
		t.Errorf("RenderInfo = %q", out)
	}
}
