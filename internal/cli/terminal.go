// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for askai commands.
//
// Piped output gets raw text with no colors; a terminal gets rendered
// Markdown. NO_COLOR and FORCE_COLOR override the detection.

package cli

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// IsStdoutTTY returns true if stdout is a terminal.
func IsStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// isTerminalWriter reports whether w is a file attached to a terminal.
// Commands write through cobra's writers, which tests replace with buffers.
func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// =============================================================================
// TERMINAL WIDTH DETECTION
// =============================================================================

const (
	// DefaultTerminalWidth is the fallback width when detection fails
	DefaultTerminalWidth = 80

	// MinTerminalWidth is the minimum width we'll use for wrapping
	MinTerminalWidth = 40

	// MaxRenderWidth caps Markdown output so long lines stay readable.
	MaxRenderWidth = 120
)

// GetTerminalWidth returns the current terminal width.
// Returns DefaultTerminalWidth (80) if width cannot be determined.
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return DefaultTerminalWidth
	}
	if width < MinTerminalWidth {
		return MinTerminalWidth
	}
	return width
}

// renderWidth is the width Markdown answers are wrapped to.
func renderWidth() int {
	return min(GetTerminalWidth(), MaxRenderWidth)
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

// ColorsEnabled returns true if colored output should be used.
// See https://no-color.org/ for the NO_COLOR specification.
func ColorsEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return IsStdoutTTY()
}

// GetColorProfile returns the appropriate termenv color profile.
// Returns Ascii (no colors) for non-TTY or when NO_COLOR is set.
func GetColorProfile() termenv.Profile {
	if !ColorsEnabled() {
		return termenv.Ascii
	}
	return termenv.ColorProfile()
}

// =============================================================================
// INTERACTIVE INPUT HELPERS
// =============================================================================

// RequiresTTY returns an error if stdin is not a terminal.
func RequiresTTY(operation string) error {
	if !IsTTY() {
		return &TTYRequiredError{Operation: operation}
	}
	return nil
}

// TTYRequiredError is returned when an operation requires a TTY but none is available.
type TTYRequiredError struct {
	Operation string
}

func (e *TTYRequiredError) Error() string {
	if e.Operation != "" {
		return "stdin is not a terminal; cannot " + e.Operation + " interactively"
	}
	return "stdin is not a terminal; interactive input not available"
}
