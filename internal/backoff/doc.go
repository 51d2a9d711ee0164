// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backoff sends HTTP requests with exponential retry.
//
// Transport failures, 429 responses and 5xx responses are retried with a
// 1s, 2s, 4s... schedule. A Retry-After header on a 429 overrides the
// schedule. When the attempt budget runs out on an HTTP status the last
// response is returned unchanged so callers can classify it; when it runs
// out on transport failures an *ExhaustedRetriesError is returned.
//
// # Usage
//
//	exec := backoff.New(http.DefaultClient,
//	    backoff.WithMaxAttempts(3),
//	    backoff.WithLogger(log))
//	resp, err := exec.Execute(ctx, req)
package backoff
