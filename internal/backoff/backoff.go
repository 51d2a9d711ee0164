// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backoff

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultMaxAttempts is the number of requests made before giving up.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the unit of the exponential schedule: attempt n
	// waits BaseDelay * 2^n.
	DefaultBaseDelay = time.Second

	// MaxRetryAfter caps the wait a server can ask for with Retry-After.
	MaxRetryAfter = 2 * time.Minute

	// drainLimit bounds how much of a discarded response body is read so
	// the connection can be reused.
	drainLimit = 64 * 1024
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrMissingBody is returned when a request with a body cannot be replayed.
var ErrMissingBody = errors.New("request body cannot be replayed: GetBody is nil")

// ExhaustedRetriesError is returned when every attempt failed at the
// transport level. It wraps the last transport error.
type ExhaustedRetriesError struct {
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *ExhaustedRetriesError) Error() string {
	return fmt.Sprintf("max retries exceeded after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap returns the last transport error.
func (e *ExhaustedRetriesError) Unwrap() error {
	return e.Err
}

// =============================================================================
// EXECUTOR
// =============================================================================

// Doer sends a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Executor sends an HTTP request and retries transient failures with
// exponential backoff.
//
// Policy per attempt (0-indexed):
//   - transport failure: wait 2^attempt seconds when attempts remain, else
//     return *ExhaustedRetriesError
//   - 429: wait Retry-After when present and parseable, else 2^attempt
//     seconds; the final 429 response is returned as-is
//   - 5xx: wait 2^attempt seconds; the final 5xx response is returned as-is
//   - anything else is returned immediately
type Executor struct {
	client      Doer
	maxAttempts int
	baseDelay   time.Duration
	sleep       SleepFunc
	limiter     *rate.Limiter
	log         *zap.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithMaxAttempts sets the total number of attempts (values < 1 are ignored).
func WithMaxAttempts(n int) Option {
	return func(e *Executor) {
		if n >= 1 {
			e.maxAttempts = n
		}
	}
}

// WithBaseDelay sets the unit of the exponential schedule.
func WithBaseDelay(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.baseDelay = d
		}
	}
}

// WithSleep replaces the wait function. Tests use it to record waits
// instead of sleeping.
func WithSleep(fn SleepFunc) Option {
	return func(e *Executor) {
		if fn != nil {
			e.sleep = fn
		}
	}
}

// WithRequestsPerMinute paces outgoing attempts client-side.
// Zero or negative disables pacing.
func WithRequestsPerMinute(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), 1)
		}
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(log *zap.Logger) Option {
	return func(e *Executor) {
		if log != nil {
			e.log = log
		}
	}
}

// New creates an Executor around client.
func New(client Doer, opts ...Option) *Executor {
	if client == nil {
		client = http.DefaultClient
	}
	e := &Executor{
		client:      client,
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		sleep:       sleepContext,
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxAttempts returns the configured attempt budget.
func (e *Executor) MaxAttempts() int {
	return e.maxAttempts
}

// Execute sends req, retrying per the executor policy. The request is cloned
// for every attempt; a request with a body must have GetBody set, which
// http.NewRequest does for bytes, strings and bytes.Buffer readers.
//
// Context cancellation is never retried: ctx.Err() is returned as soon as
// it is observed.
func (e *Executor) Execute(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return nil, ErrMissingBody
	}

	var lastErr error
	for attempt := 0; attempt < e.maxAttempts; attempt++ {
		last := attempt == e.maxAttempts-1

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, ctxErr(ctx, err)
			}
		}

		attemptReq, err := cloneRequest(ctx, req)
		if err != nil {
			return nil, err
		}

		resp, err := e.client.Do(attemptReq)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			if last {
				break
			}
			wait := e.exponential(attempt)
			e.log.Warn("request failed, retrying",
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", e.maxAttempts),
				zap.Duration("wait", wait),
				zap.Error(err))
			if err := e.sleep(ctx, wait); err != nil {
				return nil, ctxErr(ctx, err)
			}
			continue
		}

		var wait time.Duration
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			wait = e.exponential(attempt)
			if d, ok := ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
				wait = d
			}
		case resp.StatusCode >= 500:
			wait = e.exponential(attempt)
		default:
			return resp, nil
		}

		if last {
			return resp, nil
		}

		e.log.Warn("retryable status, retrying",
			zap.Int("status", resp.StatusCode),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", e.maxAttempts),
			zap.Duration("wait", wait))
		discard(resp)

		if err := e.sleep(ctx, wait); err != nil {
			return nil, ctxErr(ctx, err)
		}
	}

	return nil, &ExhaustedRetriesError{Attempts: e.maxAttempts, Err: lastErr}
}

// exponential returns baseDelay * 2^attempt.
func (e *Executor) exponential(attempt int) time.Duration {
	return e.baseDelay * time.Duration(1<<attempt)
}

// =============================================================================
// HELPERS
// =============================================================================

// ParseRetryAfter interprets a Retry-After header value as either a whole
// number of seconds or an HTTP date relative to now. The result is capped
// at MaxRetryAfter.
func ParseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	// ParseInt saturates on overflow, which the cap below absorbs.
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil || errors.Is(err, strconv.ErrRange) {
		if seconds < 0 {
			return 0, false
		}
		if seconds > int64(MaxRetryAfter/time.Second) {
			return MaxRetryAfter, true
		}
		return time.Duration(seconds) * time.Second, true
	}
	if t, err := http.ParseTime(value); err == nil {
		return min(max(t.Sub(now), 0), MaxRetryAfter), true
	}
	return 0, false
}

func cloneRequest(ctx context.Context, req *http.Request) (*http.Request, error) {
	clone := req.Clone(ctx)
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to replay request body: %w", err)
		}
		clone.Body = body
	}
	return clone, nil
}

func discard(resp *http.Response) {
	if resp == nil || resp.Body == nil {
		return
	}
	_, _ = io.CopyN(io.Discard, resp.Body, drainLimit)
	resp.Body.Close()
}

// ctxErr prefers the context error when the context is done.
func ctxErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
