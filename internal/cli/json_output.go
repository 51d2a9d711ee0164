// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// json_output.go - JSON output for scripting.
//
// Provides the standard envelope for commands that accept --json.
package cli

import (
	"encoding/json"
	"io"
	"time"
)

// timeLayout is the timestamp format used in JSON output.
const timeLayout = time.RFC3339

// JSONResponse is the standardized response format for --json output.
type JSONResponse struct {
	// Success indicates whether the command completed successfully
	Success bool `json:"success"`

	// Data contains the command-specific response data
	Data any `json:"data"`

	// Error contains the error message if Success is false, null otherwise
	Error *string `json:"error"`

	// Timestamp is when the response was generated
	Timestamp string `json:"timestamp"`

	// Command is the command that was executed
	Command string `json:"command,omitempty"`
}

// NewJSONResponse creates a new successful JSON response.
func NewJSONResponse(command string, data any) *JSONResponse {
	return &JSONResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC().Format(timeLayout),
		Command:   command,
	}
}

// NewJSONErrorResponse creates a new error JSON response.
func NewJSONErrorResponse(command string, err error) *JSONResponse {
	errStr := err.Error()
	return &JSONResponse{
		Success:   false,
		Error:     &errStr,
		Timestamp: time.Now().UTC().Format(timeLayout),
		Command:   command,
	}
}

// Print writes the response as indented JSON.
func (r *JSONResponse) Print(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(r)
}
