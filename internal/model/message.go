// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message or turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleModel:
		return "AI"
	default:
		return string(r)
	}
}

// =============================================================================
// ERROR KIND
// =============================================================================

// ErrorKind tags a failed model message so views can style it.
type ErrorKind string

const (
	ErrorNone               ErrorKind = ""
	ErrorConfiguration      ErrorKind = "configuration"
	ErrorRateLimited        ErrorKind = "rate_limited"
	ErrorAuth               ErrorKind = "auth"
	ErrorServiceUnavailable ErrorKind = "service_unavailable"
	ErrorTransport          ErrorKind = "transport"
	ErrorStalled            ErrorKind = "stalled"
	ErrorCancelled          ErrorKind = "cancelled"
	ErrorMalformedEvent     ErrorKind = "malformed_event"
	ErrorEmptyResponse      ErrorKind = "empty_response"
)

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is one entry in the visible transcript.
//
// A model message starts out streaming and grows only by AppendDelta until
// FinalizeStream or Fail is called. After that the content never changes.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	Content string `json:"content"`
	Images  []Blob `json:"images,omitempty"`

	// PERFORMANCE: strings.Builder avoids quadratic allocations during streaming
	IsStreaming   bool            `json:"-"`
	streamContent strings.Builder `json:"-"`

	IsError   bool      `json:"is_error,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`

	// Dictated marks a user message whose text came from a transcription.
	Dictated bool `json:"dictated,omitempty"`

	TTFT          time.Duration `json:"ttft_ns,omitempty"`
	TotalDuration time.Duration `json:"total_duration_ns,omitempty"`
	DeltaCount    int           `json:"delta_count,omitempty"`
}

// NewID returns a fresh random identifier.
func NewID() string {
	return uuid.NewString()
}

// NewUserMessage creates a user message with optional image attachments.
func NewUserMessage(content string, images []Blob) *Message {
	return &Message{
		ID:        NewID(),
		Role:      RoleUser,
		Timestamp: time.Now(),
		Content:   content,
		Images:    images,
	}
}

// NewModelMessage creates an empty model message in the streaming state.
func NewModelMessage() *Message {
	return &Message{
		ID:          NewID(),
		Role:        RoleModel,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// NewErrorMessage creates a finalized model message carrying an error text.
func NewErrorMessage(kind ErrorKind, text string) *Message {
	return &Message{
		ID:        NewID(),
		Role:      RoleModel,
		Timestamp: time.Now(),
		Content:   text,
		IsError:   true,
		ErrorKind: kind,
	}
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendDelta appends a text fragment to a streaming message.
// It is a no-op once the message has been finalized.
func (m *Message) AppendDelta(delta string) {
	if !m.IsStreaming {
		return
	}
	m.streamContent.WriteString(delta)
	m.DeltaCount++
}

// FinalizeStream freezes the accumulated text and records timing.
func (m *Message) FinalizeStream(stats *Statistics) {
	if !m.IsStreaming {
		return
	}

	m.Content = m.streamContent.String()
	m.streamContent.Reset()
	m.IsStreaming = false

	if stats != nil {
		stats.Finalize()
		m.TTFT = stats.TTFT
		m.TotalDuration = stats.TotalDuration
	}
}

// Fail replaces whatever was streamed with an error text and stops streaming.
func (m *Message) Fail(kind ErrorKind, text string) {
	m.streamContent.Reset()
	m.Content = text
	m.IsStreaming = false
	m.IsError = true
	m.ErrorKind = kind
}

// GetDisplayContent returns the content to display (streaming or final).
// Snapshots of streaming messages carry their text in Content.
func (m *Message) GetDisplayContent() string {
	if m.IsStreaming && m.streamContent.Len() > 0 {
		return m.streamContent.String()
	}
	return m.Content
}

// Snapshot returns a detached copy that is safe to hand to another goroutine.
// The copy carries the current display text in Content.
func (m *Message) Snapshot() Message {
	return Message{
		ID:            m.ID,
		Role:          m.Role,
		Timestamp:     m.Timestamp,
		Content:       m.GetDisplayContent(),
		Images:        m.Images,
		IsStreaming:   m.IsStreaming,
		IsError:       m.IsError,
		ErrorKind:     m.ErrorKind,
		Dictated:      m.Dictated,
		TTFT:          m.TTFT,
		TotalDuration: m.TotalDuration,
		DeltaCount:    m.DeltaCount,
	}
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && m.streamContent.Len() == 0
}

// FormatStats returns a short timing summary for a finished model message.
func (m *Message) FormatStats() string {
	if m.Role != RoleModel || m.TotalDuration == 0 {
		return ""
	}
	// Format: "2.5s | 42 chunks | TTFT 234ms"
	return fmt.Sprintf("%.1fs | %d chunks | TTFT %dms",
		m.TotalDuration.Seconds(), m.DeltaCount, m.TTFT.Milliseconds())
}

// =============================================================================
// STATISTICS TYPE
// =============================================================================

// Statistics holds timing information for one streamed answer.
type Statistics struct {
	StartTime      time.Time
	FirstTokenTime time.Time
	EndTime        time.Time

	TTFT          time.Duration
	TotalDuration time.Duration
}

// NewStatistics creates a new Statistics with the start time set.
func NewStatistics() *Statistics {
	return &Statistics{
		StartTime: time.Now(),
	}
}

// RecordFirstToken records when the first delta was received.
func (s *Statistics) RecordFirstToken() {
	if s.FirstTokenTime.IsZero() {
		s.FirstTokenTime = time.Now()
		s.TTFT = s.FirstTokenTime.Sub(s.StartTime)
	}
}

// Finalize sets the end time and total duration.
func (s *Statistics) Finalize() {
	if s.EndTime.IsZero() {
		s.EndTime = time.Now()
	}
	s.TotalDuration = s.EndTime.Sub(s.StartTime)
}
