// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea chat interface.

The screen starts on the home view (a title, a subtitle and command hints)
and switches to the transcript once the first question is sent. The layout
top to bottom is: header, transcript viewport, input line, status bar.

# Keys

	Enter     send the input (or run a slash command)
	Esc       stop the answer being streamed
	Ctrl+N    new chat; applies settings reloaded from disk
	PgUp/PgDn scroll the transcript
	Ctrl+C    quit

# Commands

	/image <path>    attach an image to the next question
	/dictate <path>  transcribe an audio file into the input
	/copy            copy the last answer to the clipboard
	/new             same as Ctrl+N
	/help            list the commands
	/quit, /exit     quit

Any other input starting with "/" is sent as an ordinary question.

# Streaming

The session calls its listener from its own goroutines. Run installs an
EventPump as the listener: it buffers events in an EventBuffer and a pump
goroutine forwards them with Program.Send at no more than 30 batches per
second. Each SessionEventsMsg makes the model re-read the session's message
snapshots and re-render; finalized messages come from the MessageList cache.
*/
package chat
