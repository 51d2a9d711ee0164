// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jeranaias/askai-tui/internal/gemini"
	"github.com/jeranaias/askai-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotConfigured indicates the session has no API key.
	ErrNotConfigured = errors.New("API key not configured")

	// ErrCancelled is the cancellation cause of an exchange that was
	// superseded, reset or cancelled by the user.
	ErrCancelled = errors.New("exchange cancelled")

	// ErrStreamStalled is the cancellation cause of an exchange whose stream
	// stopped delivering bytes for longer than the idle timeout.
	ErrStreamStalled = errors.New("stream stalled")

	// ErrEmptyResponse indicates a stream that ended without any text.
	ErrEmptyResponse = errors.New("model returned an empty response")

	// ErrMalformedStream indicates a stream that ended without any text
	// because none of its records could be decoded.
	ErrMalformedStream = errors.New("no readable records in response stream")
)

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Classify maps an exchange error to the kind shown to the user.
func Classify(err error) model.ErrorKind {
	if err == nil {
		return model.ErrorNone
	}

	switch {
	case errors.Is(err, ErrStreamStalled):
		return model.ErrorStalled
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return model.ErrorCancelled
	case errors.Is(err, ErrNotConfigured), errors.Is(err, gemini.ErrNotConfigured):
		return model.ErrorConfiguration
	case errors.Is(err, ErrMalformedStream):
		return model.ErrorMalformedEvent
	case errors.Is(err, ErrEmptyResponse):
		return model.ErrorEmptyResponse
	}

	var apiErr *gemini.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return model.ErrorRateLimited
		case apiErr.StatusCode == http.StatusUnauthorized, apiErr.StatusCode == http.StatusForbidden:
			return model.ErrorAuth
		case apiErr.StatusCode >= 500:
			return model.ErrorServiceUnavailable
		}
	}

	return model.ErrorTransport
}

// UserMessage returns the text shown in place of a failed answer.
func UserMessage(kind model.ErrorKind, modelName string) string {
	switch kind {
	case model.ErrorConfiguration:
		return "Please provide a valid Gemini API key (set GEMINI_API_KEY or api.key in the config file)."
	case model.ErrorRateLimited:
		return "Rate limit exceeded. Please wait a moment and try again."
	case model.ErrorAuth:
		return "Invalid API key. Please check your API key in the config file."
	case model.ErrorServiceUnavailable:
		return "The model service is temporarily unavailable. Please try again."
	case model.ErrorStalled:
		return "The response stopped arriving. Please try again."
	case model.ErrorEmptyResponse:
		return "The model returned an empty answer. Please try again."
	case model.ErrorMalformedEvent:
		return "The model's answer could not be read. Please try again."
	default:
		if modelName == "" {
			return "Error connecting to the model."
		}
		return fmt.Sprintf("Error connecting to %s.", modelName)
	}
}
