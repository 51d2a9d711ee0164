// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gemini provides the wire types and HTTP client for the Generative
// Language API.
//
// All vendor specifics live here: endpoint layout, request JSON, the
// x-goog-api-key header and the dictation prompt. Requests go through a
// backoff.Executor; a non-2xx response left after retries becomes *APIError.
//
// # Usage
//
//	client := gemini.NewClient(apiKey, gemini.WithExecutor(exec))
//	body, err := client.StreamGenerate(ctx, gemini.DefaultModel, gemini.Request{
//	    Contents: gemini.ContentsFromTurns(history),
//	})
package gemini
