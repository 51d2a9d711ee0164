// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error display and exit codes for askai commands.
//
// Commands always return errors; Execute prints them once and maps them to
// an exit code.

package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/askai-tui/internal/config"
	"github.com/jeranaias/askai-tui/internal/model"
	"github.com/jeranaias/askai-tui/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates the API rejected the key
	ExitAuthError = 4
	// ExitNetworkError indicates the backend could not be reached or failed
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitInterrupted follows the shell convention for SIGINT
	ExitInterrupted = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ExchangeError is a failed answer. Error returns the text the session
// showed in place of the answer.
type ExchangeError struct {
	Kind    model.ErrorKind
	Message string
	Err     error
}

func (e *ExchangeError) Error() string {
	return e.Message
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// UsageError is a command invoked with bad arguments.
type UsageError struct {
	Reason  string
	Example string
}

func (e *UsageError) Error() string {
	if e.Example != "" {
		return e.Reason + "\nExample: " + e.Example
	}
	return e.Reason
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err in the standard "[ERROR]" format.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
}

// GetExitCode determines the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		switch exErr.Kind {
		case model.ErrorConfiguration:
			return ExitConfigError
		case model.ErrorAuth:
			return ExitAuthError
		case model.ErrorCancelled:
			return ExitInterrupted
		case model.ErrorEmptyResponse, model.ErrorMalformedEvent:
			return ExitGeneralError
		default:
			return ExitNetworkError
		}
	}

	var usageErr *UsageError
	var ttyErr *TTYRequiredError
	if errors.As(err, &usageErr) || errors.As(err, &ttyErr) || errors.Is(err, storage.ErrAmbiguousID) {
		return ExitUsageError
	}

	var validateErrs config.ValidateErrors
	if errors.As(err, &validateErrs) || errors.Is(err, errConfigExists) {
		return ExitConfigError
	}

	if errors.Is(err, storage.ErrConversationNotFound) {
		return ExitNotFoundError
	}
	if errors.Is(err, model.ErrNotImage) || errors.Is(err, model.ErrNotAudio) || errors.Is(err, model.ErrTooLarge) {
		return ExitUsageError
	}

	return ExitGeneralError
}
