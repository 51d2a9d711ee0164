// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the askai TUI.
//
// Colors are lipgloss.AdaptiveColor values that resolve against the
// terminal background reported by termenv. The ui.theme setting can force
// "dark" or "light" when detection guesses wrong.
//
// # Usage
//
//	theme := styles.NewThemeFor(cfg.UI.Theme)
//	styles.SetDefault(theme)
//	title := theme.HomeTitle.Width(width).Render("Ask with AI.")
package styles
