// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jeranaias/askai-tui/internal/backoff"
	"github.com/jeranaias/askai-tui/internal/gemini"
	"github.com/jeranaias/askai-tui/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want model.ErrorKind
	}{
		{"nil", nil, model.ErrorNone},
		{"stalled", ErrStreamStalled, model.ErrorStalled},
		{"wrapped stalled", fmt.Errorf("read: %w", ErrStreamStalled), model.ErrorStalled},
		{"cancelled", ErrCancelled, model.ErrorCancelled},
		{"context cancelled", context.Canceled, model.ErrorCancelled},
		{"session not configured", ErrNotConfigured, model.ErrorConfiguration},
		{"client not configured", gemini.ErrNotConfigured, model.ErrorConfiguration},
		{"429", &gemini.APIError{StatusCode: http.StatusTooManyRequests}, model.ErrorRateLimited},
		{"401", &gemini.APIError{StatusCode: http.StatusUnauthorized}, model.ErrorAuth},
		{"403", &gemini.APIError{StatusCode: http.StatusForbidden}, model.ErrorAuth},
		{"500", &gemini.APIError{StatusCode: http.StatusInternalServerError}, model.ErrorServiceUnavailable},
		{"503 wrapped", fmt.Errorf("stream: %w", &gemini.APIError{StatusCode: http.StatusServiceUnavailable}), model.ErrorServiceUnavailable},
		{"empty response", ErrEmptyResponse, model.ErrorEmptyResponse},
		{"unreadable stream", fmt.Errorf("%w (3 skipped)", ErrMalformedStream), model.ErrorMalformedEvent},
		{"404", &gemini.APIError{StatusCode: http.StatusNotFound}, model.ErrorTransport},
		{"exhausted retries", &backoff.ExhaustedRetriesError{Attempts: 3, Err: errors.New("eof")}, model.ErrorTransport},
		{"deadline", context.DeadlineExceeded, model.ErrorTransport},
		{"other", errors.New("boom"), model.ErrorTransport},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestUserMessage(t *testing.T) {
	assert.Contains(t, UserMessage(model.ErrorConfiguration, "m"), "GEMINI_API_KEY")
	assert.Equal(t, "Rate limit exceeded. Please wait a moment and try again.", UserMessage(model.ErrorRateLimited, "m"))
	assert.Equal(t, "Invalid API key. Please check your API key in the config file.", UserMessage(model.ErrorAuth, "m"))
	assert.Equal(t, "Error connecting to gemini-2.5-flash-lite.", UserMessage(model.ErrorTransport, "gemini-2.5-flash-lite"))
	assert.Equal(t, "Error connecting to the model.", UserMessage(model.ErrorTransport, ""))

	for _, kind := range []model.ErrorKind{
		model.ErrorConfiguration, model.ErrorRateLimited, model.ErrorAuth,
		model.ErrorServiceUnavailable, model.ErrorStalled, model.ErrorTransport,
		model.ErrorEmptyResponse, model.ErrorMalformedEvent,
	} {
		msg := UserMessage(kind, "m")
		assert.NotEmpty(t, msg)
		assert.True(t, strings.HasSuffix(msg, "."), "message for %s should be a sentence", kind)
	}
}

func TestIdleReader(t *testing.T) {
	fired := make(chan struct{})
	ir := newIdleReader(strings.NewReader("abc"), 20*time.Millisecond, func() { close(fired) })

	buf := make([]byte, 8)
	n, err := ir.Read(buf)
	assert.NoError(t, err)
	assert.Equal(t, 3, n)

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("idle callback did not fire")
	}
}

func TestIdleReader_Stop(t *testing.T) {
	fired := make(chan struct{}, 1)
	ir := newIdleReader(strings.NewReader(""), 20*time.Millisecond, func() { fired <- struct{}{} })
	ir.Stop()

	select {
	case <-fired:
		t.Fatal("stopped reader must not fire")
	case <-time.After(60 * time.Millisecond):
	}
}
