// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across askai.
//
// String helpers measure text in terminal columns through go-runewidth, so
// CJK text and emoji line up in tables and history listings.
//
//	line := util.PadRight(util.TruncateWidth(title, 30), 30)
//
// AtomicWriteFile replaces a file without ever leaving it half written.
//
//	err := util.AtomicWriteFileWithDir(path, data, 0600, 0700)
package util
