// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backoff

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// sleepRecorder records requested waits without sleeping.
type sleepRecorder struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.waits = append(r.waits, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.waits...)
}

// statusServer answers with the given statuses in order, repeating the last.
func statusServer(t *testing.T, statuses []int, header http.Header) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&calls, 1)) - 1
		if n >= len(statuses) {
			n = len(statuses) - 1
		}
		for k, v := range header {
			w.Header()[k] = v
		}
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(statuses[n])
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newPost(t *testing.T, url string) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader([]byte(`{"q":1}`)))
	require.NoError(t, err)
	return req
}

// failingDoer fails every request with err and counts calls.
type failingDoer struct {
	err   error
	calls int
}

func (d *failingDoer) Do(*http.Request) (*http.Response, error) {
	d.calls++
	return nil, d.err
}

// =============================================================================
// STATUS HANDLING
// =============================================================================

func TestExecute_SuccessFirstAttempt(t *testing.T) {
	srv, calls := statusServer(t, []int{http.StatusOK}, nil)
	rec := &sleepRecorder{}
	exec := New(srv.Client(), WithSleep(rec.sleep))

	resp, err := exec.Execute(context.Background(), newPost(t, srv.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Empty(t, rec.recorded())
}

func TestExecute_ServerErrorsThenSuccess(t *testing.T) {
	srv, calls := statusServer(t, []int{http.StatusInternalServerError, http.StatusServiceUnavailable, http.StatusOK}, nil)
	rec := &sleepRecorder{}
	exec := New(srv.Client(), WithSleep(rec.sleep))

	resp, err := exec.Execute(context.Background(), newPost(t, srv.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"q":1}`, string(body), "body must be replayed on every attempt")
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.recorded())
}

func TestExecute_ServerErrorExhaustedReturnsLastResponse(t *testing.T) {
	srv, calls := statusServer(t, []int{http.StatusBadGateway}, nil)
	rec := &sleepRecorder{}
	exec := New(srv.Client(), WithSleep(rec.sleep))

	resp, err := exec.Execute(context.Background(), newPost(t, srv.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(calls))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.recorded(),
		"no wait after the final attempt")
}

func TestExecute_RateLimitRetryAfterTakesPrecedence(t *testing.T) {
	header := http.Header{"Retry-After": []string{"7"}}
	srv, calls := statusServer(t, []int{http.StatusTooManyRequests, http.StatusOK}, header)
	rec := &sleepRecorder{}
	exec := New(srv.Client(), WithSleep(rec.sleep))

	resp, err := exec.Execute(context.Background(), newPost(t, srv.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
	assert.Equal(t, []time.Duration{7 * time.Second}, rec.recorded())
}

func TestExecute_RateLimitWithoutHeaderUsesSchedule(t *testing.T) {
	srv, _ := statusServer(t, []int{http.StatusTooManyRequests}, http.Header{"Retry-After": []string{"soon"}})
	rec := &sleepRecorder{}
	exec := New(srv.Client(), WithSleep(rec.sleep), WithMaxAttempts(4))

	resp, err := exec.Execute(context.Background(), newPost(t, srv.URL))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode, "final 429 is returned as-is")
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, rec.recorded())
}

func TestExecute_ClientErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"bad request", http.StatusBadRequest},
		{"unauthorized", http.StatusUnauthorized},
		{"forbidden", http.StatusForbidden},
		{"not found", http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv, calls := statusServer(t, []int{tc.status}, nil)
			rec := &sleepRecorder{}
			exec := New(srv.Client(), WithSleep(rec.sleep))

			resp, err := exec.Execute(context.Background(), newPost(t, srv.URL))
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Equal(t, int32(1), atomic.LoadInt32(calls))
			assert.Empty(t, rec.recorded())
		})
	}
}

// =============================================================================
// TRANSPORT FAILURES
// =============================================================================

func TestExecute_TransportFailureExhausted(t *testing.T) {
	cause := errors.New("connection refused")
	doer := &failingDoer{err: cause}
	rec := &sleepRecorder{}
	exec := New(doer, WithSleep(rec.sleep))

	req, err := http.NewRequest(http.MethodGet, "http://example.invalid", nil)
	require.NoError(t, err)

	resp, err := exec.Execute(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, resp)

	var exhausted *ExhaustedRetriesError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 3, doer.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.recorded(),
		"transport failures only wait when attempts remain")
}

func TestExecute_SingleAttempt(t *testing.T) {
	doer := &failingDoer{err: errors.New("boom")}
	rec := &sleepRecorder{}
	exec := New(doer, WithSleep(rec.sleep), WithMaxAttempts(1))

	req, _ := http.NewRequest(http.MethodGet, "http://example.invalid", nil)
	_, err := exec.Execute(context.Background(), req)

	var exhausted *ExhaustedRetriesError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 1, doer.calls)
	assert.Empty(t, rec.recorded())
}

// =============================================================================
// CANCELLATION
// =============================================================================

func TestExecute_CancelledDuringWait(t *testing.T) {
	srv, calls := statusServer(t, []int{http.StatusServiceUnavailable}, nil)
	ctx, cancel := context.WithCancel(context.Background())

	exec := New(srv.Client(), WithSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}))

	resp, err := exec.Execute(ctx, newPost(t, srv.URL))
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, context.Canceled)

	var exhausted *ExhaustedRetriesError
	assert.False(t, errors.As(err, &exhausted), "cancellation must not look like exhaustion")
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestExecute_CancelledBeforeStart(t *testing.T) {
	srv, _ := statusServer(t, []int{http.StatusOK}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := New(srv.Client())
	_, err := exec.Execute(ctx, newPost(t, srv.URL))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExecute_RealSleepHonoursContext(t *testing.T) {
	srv, _ := statusServer(t, []int{http.StatusServiceUnavailable}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	exec := New(srv.Client(), WithBaseDelay(time.Hour))
	start := time.Now()
	_, err := exec.Execute(ctx, newPost(t, srv.URL))

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

// =============================================================================
// LOGGING AND OPTIONS
// =============================================================================

func TestExecute_LogsWarningWithWait(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	srv, _ := statusServer(t, []int{http.StatusInternalServerError, http.StatusOK}, nil)
	rec := &sleepRecorder{}
	exec := New(srv.Client(), WithSleep(rec.sleep), WithLogger(zap.New(core)))

	resp, err := exec.Execute(context.Background(), newPost(t, srv.URL))
	require.NoError(t, err)
	resp.Body.Close()

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, time.Second, fields["wait"])
	assert.Equal(t, int64(http.StatusInternalServerError), fields["status"])
}

func TestExecute_RejectsUnreplayableBody(t *testing.T) {
	req, err := http.NewRequest(http.MethodPost, "http://example.invalid", io.NopCloser(bytes.NewReader([]byte("x"))))
	require.NoError(t, err)
	req.GetBody = nil

	_, err = New(&failingDoer{}).Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrMissingBody)
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		value  string
		want   time.Duration
		wantOK bool
	}{
		{"seconds", "3", 3 * time.Second, true},
		{"zero", "0", 0, true},
		{"padded", " 2 ", 2 * time.Second, true},
		{"http date", now.Add(10 * time.Second).Format(http.TimeFormat), 10 * time.Second, true},
		{"past date", now.Add(-time.Minute).Format(http.TimeFormat), 0, true},
		{"huge seconds capped", "9999999999999", MaxRetryAfter, true},
		{"overflowing seconds capped", "99999999999999999999999", MaxRetryAfter, true},
		{"far date capped", now.Add(48 * time.Hour).Format(http.TimeFormat), MaxRetryAfter, true},
		{"at cap", "120", MaxRetryAfter, true},
		{"empty", "", 0, false},
		{"negative", "-1", 0, false},
		{"garbage", "later", 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ParseRetryAfter(tc.value, now)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestWithMaxAttempts_IgnoresInvalid(t *testing.T) {
	assert.Equal(t, DefaultMaxAttempts, New(nil, WithMaxAttempts(0)).MaxAttempts())
	assert.Equal(t, 5, New(nil, WithMaxAttempts(5)).MaxAttempts())
}
