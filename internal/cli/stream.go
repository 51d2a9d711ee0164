// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// stream.go - Following an exchange from the command line.

package cli

import (
	"context"
	"io"
	"os"

	"github.com/jeranaias/askai-tui/internal/model"
	"github.com/jeranaias/askai-tui/internal/session"
)

// eventBufferSize bounds queued wake-ups. Dropped events lose nothing:
// the message is re-read from the session on every wake-up.
const eventBufferSize = 64

// newStreamingSession creates a session whose events are queued on the
// returned channel.
func (a *app) newStreamingSession() (*session.Session, <-chan session.Event) {
	events := make(chan session.Event, eventBufferSize)
	sess := a.newSession(session.WithListener(func(ev session.Event) {
		select {
		case events <- ev:
		default:
		}
	}))
	return sess, events
}

// followExchange waits for ex to finish. With live set, answer text is
// written as it arrives. An interrupt or ctx cancellation cancels the
// exchange. The finished message is returned; a failure comes back as an
// *ExchangeError.
func followExchange(
	ctx context.Context,
	sess *session.Session,
	events <-chan session.Event,
	ex *session.Exchange,
	live io.Writer,
	interrupts <-chan os.Signal,
) (model.Message, error) {
	printed := 0
	stop := ctx.Done()
	flush := func() model.Message {
		msg, _ := findMessage(sess, ex.MessageID())
		if live != nil && !msg.IsError && len(msg.Content) > printed {
			_, _ = io.WriteString(live, msg.Content[printed:])
			printed = len(msg.Content)
		}
		return msg
	}

	for {
		select {
		case <-events:
			flush()
		case <-interrupts:
			sess.Cancel()
		case <-stop:
			sess.Cancel()
			stop = nil
		case <-ex.Done():
			msg := flush()
			err := ex.Err()
			if err == nil {
				return msg, nil
			}
			kind := session.Classify(err)
			text := msg.Content
			switch {
			case kind == model.ErrorCancelled:
				text = "Cancelled."
			case !msg.IsError || text == "":
				text = session.UserMessage(kind, ex.Model())
			}
			return msg, &ExchangeError{Kind: kind, Message: text, Err: err}
		}
	}
}

// findMessage returns the visible message with id.
func findMessage(sess *session.Session, id string) (model.Message, bool) {
	msgs := sess.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].ID == id {
			return msgs[i], true
		}
	}
	return model.Message{}, false
}

// countingWriter counts bytes written so callers know whether a partial
// answer needs a line break.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
