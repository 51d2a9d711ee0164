// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for askai.
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (GEMINI_API_KEY, ASKAI_*)
//   - ~/.askai/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	s := session.New(cfg.SessionConfig(), client)
//
// A running TUI picks up edits with Watch; the new settings take effect on
// the next new chat.
package config
