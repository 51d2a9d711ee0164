// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap logger used across askai.
//
// Output goes to a size-rotated file under ~/.askai/logs so it never
// interferes with the terminal UI. Components take a *zap.Logger; L returns
// the process-wide logger once InitGlobal has run.
package logging
