// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/askai-tui/internal/backoff"
	"github.com/jeranaias/askai-tui/internal/model"
)

func noSleep(ctx context.Context, _ time.Duration) error { return ctx.Err() }

func testClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	exec := backoff.New(srv.Client(), backoff.WithSleep(noSleep))
	return NewClient("test-key", WithBaseURL(srv.URL), WithExecutor(exec)), srv
}

func TestStreamGenerate_RequestShape(t *testing.T) {
	var gotPath, gotQuery, gotKey string
	var gotBody map[string]any

	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: {}\n")
	})

	cfg := DefaultGenerationConfig()
	history := []model.Turn{
		model.UserTurn("first", nil),
		model.ModelTurn("reply"),
		model.UserTurn("look", []model.Blob{{MimeType: "image/png", Data: "QUJD"}}),
	}
	body, err := client.StreamGenerate(context.Background(), "gemini-test", Request{
		Contents:          ContentsFromTurns(history),
		GenerationConfig:  &cfg,
		SystemInstruction: SystemInstructionFrom("be brief"),
	})
	require.NoError(t, err)
	defer body.Close()

	assert.Equal(t, "/models/gemini-test:streamGenerateContent", gotPath)
	assert.Equal(t, "alt=sse", gotQuery)
	assert.Equal(t, "test-key", gotKey)

	contents := gotBody["contents"].([]any)
	require.Len(t, contents, 3)
	last := contents[2].(map[string]any)
	assert.Equal(t, "user", last["role"])
	parts := last["parts"].([]any)
	require.Len(t, parts, 2)
	assert.Equal(t, "look", parts[0].(map[string]any)["text"])
	inline := parts[1].(map[string]any)["inline_data"].(map[string]any)
	assert.Equal(t, "image/png", inline["mime_type"])
	assert.Equal(t, "QUJD", inline["data"])
	assert.Equal(t, "model", contents[1].(map[string]any)["role"])

	gen := gotBody["generationConfig"].(map[string]any)
	assert.Equal(t, 1.0, gen["temperature"])
	assert.Equal(t, 40.0, gen["topK"])
	assert.Equal(t, 0.95, gen["topP"])
	assert.Equal(t, 8192.0, gen["maxOutputTokens"])

	sys := gotBody["system_instruction"].(map[string]any)
	assert.Equal(t, "be brief", sys["parts"].([]any)[0].(map[string]any)["text"])
}

func TestSystemInstructionFrom_BlankIsOmitted(t *testing.T) {
	assert.Nil(t, SystemInstructionFrom(""))
	assert.Nil(t, SystemInstructionFrom("  \n\t"))

	data, err := json.Marshal(Request{Contents: []Content{}, SystemInstruction: SystemInstructionFrom(" ")})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "system_instruction")
}

func TestStreamGenerate_APIError(t *testing.T) {
	calls := 0
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"error":{"message":"API key not valid"}}`)
	})

	_, err := client.StreamGenerate(context.Background(), "m", Request{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "API key not valid")
	assert.Equal(t, 1, calls)
}

func TestStreamGenerate_ServiceUnavailableAfterRetries(t *testing.T) {
	calls := 0
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.StreamGenerate(context.Background(), "m", Request{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, backoff.DefaultMaxAttempts, calls)
}

func TestClient_NotConfigured(t *testing.T) {
	client := NewClient("  ")
	assert.False(t, client.IsConfigured())

	_, err := client.StreamGenerate(context.Background(), "m", Request{})
	assert.True(t, errors.Is(err, ErrNotConfigured))
}

func TestClient_SetAPIKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	client := NewClient("", WithBaseURL(srv.URL))
	assert.False(t, client.IsConfigured())

	client.SetAPIKey("rotated-key")
	assert.True(t, client.IsConfigured())
	_, err := client.Generate(context.Background(), "m", Request{})
	require.NoError(t, err)
	assert.Equal(t, "rotated-key", gotKey)
}

func TestTranscribe(t *testing.T) {
	var got Request
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/dictation-model:generateContent", r.URL.Path)
		assert.Empty(t, r.URL.RawQuery)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":" hello there \n"}]}}]}`)
	})

	text, err := client.Transcribe(context.Background(), "dictation-model", []byte("RIFF"), "audio/wav")
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)

	require.Len(t, got.Contents, 1)
	assert.Empty(t, got.Contents[0].Role)
	require.Len(t, got.Contents[0].Parts, 2)
	assert.Equal(t, TranscribeInstruction, got.Contents[0].Parts[0].Text)
	assert.Equal(t, "audio/wav", got.Contents[0].Parts[1].InlineData.MimeType)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("RIFF")), got.Contents[0].Parts[1].InlineData.Data)
}

func TestTranscribe_EmptyAudio(t *testing.T) {
	_, err := NewClient("k").Transcribe(context.Background(), "m", nil, "")
	assert.ErrorIs(t, err, ErrEmptyAudio)
}

func TestGenerate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{"first part", `{"candidates":[{"content":{"parts":[{"text":"x"},{"text":"y"}]},"finishReason":"STOP"}]}`, "x", false},
		{"no candidates", `{"candidates":[]}`, "", false},
		{"no parts", `{"candidates":[{"content":{"role":"model"}}]}`, "", false},
		{"not json", `<html>proxy error</html>`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/models/m:generateContent", r.URL.Path)
				_, _ = io.WriteString(w, tt.body)
			})
			got, err := client.Generate(context.Background(), "m", Request{})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
