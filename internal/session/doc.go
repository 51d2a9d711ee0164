// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session manages one streaming conversation with the model.
//
// A Session keeps the visible message list, the history sent back as
// context, and at most one in-flight Exchange. Submitting while an answer is
// still streaming cancels the old exchange and removes its partial message.
// Only successful exchanges are committed to history, as a user turn plus
// the complete model turn.
//
// # Failure handling
//
// Failures replace the partial answer with a short text picked by Classify:
// configuration, rate limit, auth, service unavailable, stalled stream or a
// generic connection error. Cancellation shows nothing.
//
// # Usage
//
//	s := session.New(cfg, client, session.WithListener(func(ev session.Event) {
//	    program.Send(sessionEventMsg(ev))
//	}))
//	ex := s.Submit("Explain TCP slow start", nil)
//	<-ex.Done()
//	for _, m := range s.Messages() {
//	    fmt.Println(m.Role, m.Content)
//	}
package session
