// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"iter"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DataPrefix marks a payload line.
	DataPrefix = "data: "

	// DoneSentinel is the payload some servers send to mark the end of the stream.
	DoneSentinel = "[DONE]"

	// DefaultDeltaPath locates the text fragment inside a Gemini stream record.
	DefaultDeltaPath = "candidates.0.content.parts.0.text"
)

// =============================================================================
// READER
// =============================================================================

// Reader turns a Server-Sent Events byte stream into text deltas.
//
// Lines are split on '\n' from a buffered reader, so a multi-byte character
// split across network reads is reassembled before decoding. Lines without
// the data prefix, the [DONE] sentinel, records that are not valid JSON and
// records without text at the delta path are skipped.
type Reader struct {
	reader    *bufio.Reader
	deltaPath string
	log       *zap.Logger

	consumed  bool
	malformed int
}

// Option configures a Reader.
type Option func(*Reader)

// WithDeltaPath sets the gjson path of the text fragment inside a record.
func WithDeltaPath(path string) Option {
	return func(r *Reader) {
		if path != "" {
			r.deltaPath = path
		}
	}
}

// WithLogger sets the logger used to report skipped records.
func WithLogger(log *zap.Logger) Option {
	return func(r *Reader) {
		if log != nil {
			r.log = log
		}
	}
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader, opts ...Option) *Reader {
	sr := &Reader{
		reader:    bufio.NewReader(r),
		deltaPath: DefaultDeltaPath,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(sr)
	}
	return sr
}

// Deltas returns the lazy sequence of text deltas in arrival order.
//
// The sequence ends at end of input or after yielding a non-nil read error.
// It can be ranged over once; later calls yield nothing.
func (r *Reader) Deltas() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if r.consumed {
			return
		}
		r.consumed = true

		for {
			line, err := r.reader.ReadBytes('\n')
			if len(line) > 0 {
				if delta, ok := r.decode(line); ok {
					if !yield(delta, nil) {
						return
					}
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield("", err)
				}
				return
			}
		}
	}
}

// Malformed returns the number of data records skipped because they were
// not valid JSON.
func (r *Reader) Malformed() int {
	return r.malformed
}

// decode extracts the delta from one raw line.
func (r *Reader) decode(line []byte) (string, bool) {
	line = bytes.TrimRight(line, "\r\n")
	if !bytes.HasPrefix(line, []byte(DataPrefix)) {
		return "", false
	}

	payload := line[len(DataPrefix):]
	if string(payload) == DoneSentinel {
		return "", false
	}

	if !gjson.ValidBytes(payload) {
		r.malformed++
		r.log.Debug("skipping malformed stream record", zap.Int("bytes", len(payload)))
		return "", false
	}

	text := gjson.GetBytes(payload, r.deltaPath).String()
	if text == "" {
		return "", false
	}
	return text, true
}
