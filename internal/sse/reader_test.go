// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package sse

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(text string) string {
	return `data: {"candidates":[{"content":{"parts":[{"text":` + quote(text) + `}]}}]}` + "\n"
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

func deltas(t *testing.T, r *Reader) []string {
	t.Helper()
	var out []string
	for d, err := range r.Deltas() {
		require.NoError(t, err)
		out = append(out, d)
	}
	return out
}

func TestDeltas_InOrder(t *testing.T) {
	stream := record("Hel") + "\n" + record("lo") + "\n" + record(" world") + "\n"
	got := deltas(t, NewReader(strings.NewReader(stream)))
	assert.Equal(t, []string{"Hel", "lo", " world"}, got)
}

func TestDeltas_SkipsMalformedAndContinues(t *testing.T) {
	stream := record("A") + "data: {not json\n" + record("B")
	r := NewReader(strings.NewReader(stream))

	assert.Equal(t, []string{"A", "B"}, deltas(t, r))
	assert.Equal(t, 1, r.Malformed())
}

func TestDeltas_IgnoresNonDataLinesAndSentinel(t *testing.T) {
	stream := ": keepalive\n" +
		"event: message\n" +
		"id: 7\n" +
		record("x") +
		"data: [DONE]\n"
	r := NewReader(strings.NewReader(stream))

	assert.Equal(t, []string{"x"}, deltas(t, r))
	assert.Equal(t, 0, r.Malformed())
}

func TestDeltas_SkipsRecordsWithoutText(t *testing.T) {
	stream := `data: {"candidates":[{"finishReason":"STOP"}]}` + "\n" +
		`data: {"candidates":[{"content":{"parts":[{"text":""}]}}]}` + "\n" +
		record("ok")
	assert.Equal(t, []string{"ok"}, deltas(t, NewReader(strings.NewReader(stream))))
}

func TestDeltas_MultiByteSplitAcrossReads(t *testing.T) {
	// OneByteReader splits every multi-byte rune across reads.
	stream := record("héllo ✓ 日本") + record("😀")
	r := NewReader(iotest.OneByteReader(strings.NewReader(stream)))

	got := deltas(t, r)
	assert.Equal(t, []string{"héllo ✓ 日本", "😀"}, got)
}

func TestDeltas_CRLFAndFinalLineWithoutNewline(t *testing.T) {
	stream := strings.TrimSuffix(record("a"), "\n") + "\r\n" + strings.TrimSuffix(record("b"), "\n")
	assert.Equal(t, []string{"a", "b"}, deltas(t, NewReader(strings.NewReader(stream))))
}

func TestDeltas_EmptyStream(t *testing.T) {
	assert.Empty(t, deltas(t, NewReader(strings.NewReader(""))))
}

func TestDeltas_NotRestartable(t *testing.T) {
	r := NewReader(strings.NewReader(record("once")))
	assert.Equal(t, []string{"once"}, deltas(t, r))
	assert.Empty(t, deltas(t, r))
}

func TestDeltas_ReadErrorEndsSequence(t *testing.T) {
	boom := errors.New("connection reset")
	src := io.MultiReader(strings.NewReader(record("before")), iotest.ErrReader(boom))

	var got []string
	var gotErr error
	for d, err := range NewReader(src).Deltas() {
		if err != nil {
			gotErr = err
			continue
		}
		got = append(got, d)
	}

	assert.Equal(t, []string{"before"}, got)
	assert.ErrorIs(t, gotErr, boom)
}

func TestDeltas_EarlyBreak(t *testing.T) {
	stream := record("1") + record("2") + record("3")
	var got []string
	for d := range NewReader(strings.NewReader(stream)).Deltas() {
		got = append(got, d)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"1", "2"}, got)
}

func TestWithDeltaPath(t *testing.T) {
	stream := `data: {"choices":[{"delta":{"content":"hi"}}]}` + "\n"
	r := NewReader(strings.NewReader(stream), WithDeltaPath("choices.0.delta.content"))
	assert.Equal(t, []string{"hi"}, deltas(t, r))
}
