// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"io"
	"time"
)

// idleReader calls onIdle when no bytes have been read for idle.
// The timer restarts on every read that returns data.
type idleReader struct {
	r     io.Reader
	idle  time.Duration
	timer *time.Timer
}

func newIdleReader(r io.Reader, idle time.Duration, onIdle func()) *idleReader {
	return &idleReader{
		r:     r,
		idle:  idle,
		timer: time.AfterFunc(idle, onIdle),
	}
}

// Read implements io.Reader.
func (ir *idleReader) Read(p []byte) (int, error) {
	n, err := ir.r.Read(p)
	if n > 0 {
		ir.timer.Reset(ir.idle)
	}
	return n, err
}

// Stop disarms the timer.
func (ir *idleReader) Stop() {
	ir.timer.Stop()
}
