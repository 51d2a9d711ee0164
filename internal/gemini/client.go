// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/jeranaias/askai-tui/internal/backoff"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultBaseURL is the public Generative Language API root.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultModel serves both chat and dictation unless configured otherwise.
	DefaultModel = "gemini-2.5-flash-lite"

	// TranscribeInstruction is sent ahead of the audio in a dictation request.
	TranscribeInstruction = "Transcribe the following audio exactly as spoken. Do not add any commentary."

	// maxErrorBody bounds how much of an error response is kept.
	maxErrorBody = 4 * 1024

	// responseTextPath locates the answer in a generateContent body.
	responseTextPath = "candidates.0.content.parts.0.text"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("gemini API key not configured")

	// ErrEmptyAudio is returned when Transcribe is called without data.
	ErrEmptyAudio = errors.New("no audio to transcribe")
)

// APIError is a non-2xx response from the API after retries.
type APIError struct {
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("gemini API error (HTTP %d)", e.StatusCode)
	}
	return fmt.Sprintf("gemini API error (HTTP %d): %s", e.StatusCode, e.Body)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the Generative Language API through a backoff.Executor.
type Client struct {
	baseURL string
	exec    *backoff.Executor
	log     *zap.Logger

	mu     sync.RWMutex
	apiKey string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API root.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithExecutor sets the executor used for every request.
func WithExecutor(exec *backoff.Executor) ClientOption {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(log *zap.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient creates a client for apiKey.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.exec == nil {
		// No overall timeout: streams are bounded by the caller's context.
		c.exec = backoff.New(&http.Client{}, backoff.WithLogger(c.log))
	}
	return c
}

// IsConfigured reports whether an API key is set.
func (c *Client) IsConfigured() bool {
	return strings.TrimSpace(c.key()) != ""
}

// SetAPIKey replaces the key used by subsequent requests.
func (c *Client) SetAPIKey(key string) {
	c.mu.Lock()
	c.apiKey = key
	c.mu.Unlock()
}

func (c *Client) key() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKey
}

// StreamGenerate starts a streamGenerateContent call with alt=sse and returns
// the open event stream. The caller must close it.
func (c *Client) StreamGenerate(ctx context.Context, modelName string, req Request) (io.ReadCloser, error) {
	resp, err := c.do(ctx, modelName, "streamGenerateContent", url.Values{"alt": {"sse"}}, req)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Generate performs a one-shot generateContent call and returns the text
// of the first candidate. A response without text yields "".
func (c *Client) Generate(ctx context.Context, modelName string, req Request) (string, error) {
	resp, err := c.do(ctx, modelName, "generateContent", nil, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("failed to decode response: invalid JSON (%d bytes)", len(body))
	}
	return gjson.GetBytes(body, responseTextPath).String(), nil
}

// Transcribe sends recorded audio to modelName and returns the transcript.
func (c *Client) Transcribe(ctx context.Context, modelName string, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", ErrEmptyAudio
	}
	text, err := c.Generate(ctx, modelName, TranscribeRequest(audio, mimeType))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// TranscribeRequest builds the dictation request: the instruction text
// followed by the inline audio, with no role.
func TranscribeRequest(audio []byte, mimeType string) Request {
	if mimeType == "" {
		mimeType = "audio/webm"
	}
	return Request{
		Contents: []Content{{
			Parts: []Part{
				{Text: TranscribeInstruction},
				{InlineData: &InlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(audio),
				}},
			},
		}},
	}
}

// do posts body to {base}/models/{model}:{method} and returns a 2xx response.
func (c *Client) do(ctx context.Context, modelName, method string, query url.Values, body Request) (*http.Response, error) {
	apiKey := c.key()
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrNotConfigured
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:%s", c.baseURL, url.PathEscape(modelName), method)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)
	if query.Get("alt") == "sse" {
		req.Header.Set("Accept", "text/event-stream")
	}

	start := time.Now()
	resp, err := c.exec.Execute(ctx, req)
	if err != nil {
		return nil, err
	}

	c.log.Debug("gemini response",
		zap.String("model", modelName),
		zap.String("method", method),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}
	return resp, nil
}
