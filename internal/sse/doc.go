// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package sse decodes Server-Sent Events streams into text deltas.
//
// Only "data: " lines are considered. Each payload is a JSON record and the
// delta is read with a gjson path (candidates.0.content.parts.0.text by
// default). Malformed records are skipped, never fatal.
//
// # Usage
//
//	r := sse.NewReader(resp.Body, sse.WithLogger(log))
//	for delta, err := range r.Deltas() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(delta)
//	}
package sse
