// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/askai-tui/internal/session"
)

// =============================================================================
// EVENT BUFFER
// =============================================================================

// Default render pacing.
const (
	DefaultBatchSize = 15
	DefaultMaxFPS    = 30
)

// EventBuffer batches session events so the view re-renders at a capped
// frame rate while an answer streams in.
//
// Deltas are flushed when the batch size is reached or the frame interval
// has passed since the last flush. Any other event (start, completion,
// failure, cancellation, reset) makes the buffer due at once.
//
// Thread-safety: Write is called from session goroutines, Wait and
// ForceFlush from the pump goroutine.
type EventBuffer struct {
	mu        sync.Mutex
	events    []session.Event
	deltas    int
	urgent    bool
	lastFlush time.Time

	batchSize   int
	minInterval time.Duration
}

// NewEventBuffer creates a buffer with the default batch size and frame rate.
func NewEventBuffer() *EventBuffer {
	return NewEventBufferWithConfig(DefaultBatchSize, DefaultMaxFPS)
}

// NewEventBufferWithConfig creates a buffer with custom settings. Out of
// range values fall back to the defaults.
func NewEventBufferWithConfig(batchSize, maxFPS int) *EventBuffer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if maxFPS <= 0 || maxFPS > 60 {
		maxFPS = DefaultMaxFPS
	}
	return &EventBuffer{
		batchSize:   batchSize,
		minInterval: time.Second / time.Duration(maxFPS),
		lastFlush:   time.Now(),
	}
}

// Write adds an event. Consecutive deltas for the same message are
// coalesced into one.
func (b *EventBuffer) Write(ev session.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ev.Kind == session.EventDelta {
		b.deltas++
		if n := len(b.events); n > 0 {
			last := b.events[n-1]
			if last.Kind == session.EventDelta && last.MessageID == ev.MessageID {
				return
			}
		}
	} else {
		b.urgent = true
	}
	b.events = append(b.events, ev)
}

// ForceFlush returns all buffered events regardless of pacing.
func (b *EventBuffer) ForceFlush() ([]session.Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.takeLocked()
}

// Wait returns how long until the buffer is due. Zero means due now or
// nothing to flush.
func (b *EventBuffer) Wait() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.waitLocked()
}

func (b *EventBuffer) waitLocked() time.Duration {
	if len(b.events) == 0 || b.urgent || b.deltas >= b.batchSize {
		return 0
	}
	if d := b.minInterval - time.Since(b.lastFlush); d > 0 {
		return d
	}
	return 0
}

func (b *EventBuffer) takeLocked() ([]session.Event, bool) {
	if len(b.events) == 0 {
		return nil, false
	}
	out := b.events
	b.events = nil
	b.deltas = 0
	b.urgent = false
	b.lastFlush = time.Now()
	return out, true
}

// =============================================================================
// EVENT PUMP
// =============================================================================

// EventPump forwards session events to the Bubble Tea program. The session
// listener only buffers and never blocks; a separate goroutine paces the
// batches and hands them to send (normally Program.Send).
type EventPump struct {
	buf  *EventBuffer
	wake chan struct{}
	send func(tea.Msg)
}

// NewEventPump creates a pump delivering SessionEventsMsg through send.
func NewEventPump(send func(tea.Msg)) *EventPump {
	return &EventPump{
		buf:  NewEventBuffer(),
		wake: make(chan struct{}, 1),
		send: send,
	}
}

// Listener is a session listener.
func (p *EventPump) Listener(ev session.Event) {
	p.buf.Write(ev)
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run delivers batches until ctx is done.
func (p *EventPump) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
		}

		if d := p.buf.Wait(); d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		if events, ok := p.buf.ForceFlush(); ok {
			p.send(SessionEventsMsg{Events: events})
		}
	}
}
