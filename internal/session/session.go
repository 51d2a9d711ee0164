// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/askai-tui/internal/gemini"
	"github.com/jeranaias/askai-tui/internal/model"
	"github.com/jeranaias/askai-tui/internal/sse"
)

// DefaultImagePrompt replaces an empty prompt that carries images.
const DefaultImagePrompt = "Analyze this image"

// DefaultIdleTimeout bounds the gap between stream reads.
const DefaultIdleTimeout = 60 * time.Second

// =============================================================================
// COLLABORATORS
// =============================================================================

// Backend is the generative API the session talks to. *gemini.Client
// satisfies it.
type Backend interface {
	StreamGenerate(ctx context.Context, modelName string, req gemini.Request) (io.ReadCloser, error)
	Transcribe(ctx context.Context, modelName string, audio []byte, mimeType string) (string, error)
}

// Record is one completed exchange, handed to the Recorder.
type Record struct {
	ConversationID string
	Model          string
	User           model.Turn
	Reply          model.Turn
	At             time.Time
}

// Recorder persists completed exchanges. Failures are logged, not surfaced.
type Recorder interface {
	RecordExchange(ctx context.Context, rec Record) error
}

// =============================================================================
// CONFIG
// =============================================================================

// Config is everything a session needs to build requests.
type Config struct {
	APIKey            string
	Model             string
	DictationModel    string
	SystemInstruction string
	Generation        gemini.GenerationConfig

	// IdleTimeout cancels a stream that delivers no bytes for this long.
	// Zero disables the watchdog.
	IdleTimeout time.Duration
}

// HasCredential reports whether an API key is present.
func (c Config) HasCredential() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

func (c Config) dictationModel() string {
	if c.DictationModel != "" {
		return c.DictationModel
	}
	return c.Model
}

// =============================================================================
// EVENTS
// =============================================================================

// EventKind describes what changed.
type EventKind int

const (
	EventStarted EventKind = iota
	EventDelta
	EventCompleted
	EventFailed
	EventCancelled
	EventReset
)

// Event is delivered to the listener after every state change. Listeners
// read the new state through Messages.
type Event struct {
	Kind      EventKind
	MessageID string
}

// =============================================================================
// EXCHANGE
// =============================================================================

// Prompt is one user submission.
type Prompt struct {
	Text     string
	Images   []model.Blob
	Dictated bool
}

// Exchange tracks one submission from request to final answer.
type Exchange struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	done   chan struct{}

	msg      *model.Message
	userTurn model.Turn
	model    string
	stats    *model.Statistics

	mu  sync.Mutex
	err error
}

// MessageID returns the ID of the model message this exchange fills.
func (e *Exchange) MessageID() string {
	return e.msg.ID
}

// Model returns the model the request was sent to.
func (e *Exchange) Model() string {
	return e.model
}

// Done is closed when the exchange has finished, failed or been cancelled.
func (e *Exchange) Done() <-chan struct{} {
	return e.done
}

// Err returns the outcome once Done is closed: nil on success, ErrCancelled
// when cancelled, otherwise the failure.
func (e *Exchange) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (e *Exchange) setErr(err error) {
	e.mu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.mu.Unlock()
}

// =============================================================================
// SESSION
// =============================================================================

// Session owns one conversation: the visible messages, the history sent as
// context, and at most one in-flight exchange.
//
// All state is guarded by mu. Stream goroutines mutate state only while
// their exchange is still the active one, so a superseded stream can never
// touch the transcript.
type Session struct {
	mu sync.Mutex

	cfg            Config
	backend        Backend
	recorder       Recorder
	log            *zap.Logger
	listener       func(Event)
	conversationID string

	messages []*model.Message
	history  []model.Turn
	active   *Exchange
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRecorder stores completed exchanges.
func WithRecorder(r Recorder) Option {
	return func(s *Session) {
		s.recorder = r
	}
}

// WithListener sets the change listener.
func WithListener(fn func(Event)) Option {
	return func(s *Session) {
		s.listener = fn
	}
}

// New creates an empty session.
func New(cfg Config, backend Backend, opts ...Option) *Session {
	s := &Session{
		cfg:            cfg,
		backend:        backend,
		log:            zap.NewNop(),
		conversationID: model.NewID(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetListener replaces the change listener. It is called outside the
// session lock, possibly from a stream goroutine.
func (s *Session) SetListener(fn func(Event)) {
	s.mu.Lock()
	s.listener = fn
	s.mu.Unlock()
}

// Submit sends text and images as a new user turn. See SubmitPrompt.
func (s *Session) Submit(text string, images []model.Blob) *Exchange {
	return s.SubmitPrompt(Prompt{Text: text, Images: images})
}

// SubmitPrompt starts a new exchange and returns it.
//
// An empty prompt without images is ignored and nil is returned. An empty
// prompt with images is sent as DefaultImagePrompt. Any exchange still in
// flight is cancelled first and its partial answer removed. Without an API
// key an error message is appended and the returned exchange is already
// done; no request is made.
func (s *Session) SubmitPrompt(p Prompt) *Exchange {
	text := norm.NFC.String(strings.TrimSpace(p.Text))
	if text == "" {
		if len(p.Images) == 0 {
			return nil
		}
		text = DefaultImagePrompt
	}

	s.mu.Lock()
	cancelled := s.cancelActiveLocked()

	user := model.NewUserMessage(text, p.Images)
	user.Dictated = p.Dictated
	s.messages = append(s.messages, user)

	if !s.cfg.HasCredential() {
		msg := model.NewErrorMessage(model.ErrorConfiguration, UserMessage(model.ErrorConfiguration, s.cfg.Model))
		s.messages = append(s.messages, msg)
		ex := &Exchange{msg: msg, model: s.cfg.Model, done: make(chan struct{}), err: ErrNotConfigured}
		close(ex.done)
		s.mu.Unlock()

		s.log.Warn("submit rejected: no API key")
		if cancelled != "" {
			s.notify(Event{Kind: EventCancelled, MessageID: cancelled})
		}
		s.notify(Event{Kind: EventFailed, MessageID: msg.ID})
		return ex
	}

	modelName := s.cfg.Model
	if p.Dictated {
		modelName = s.cfg.dictationModel()
	}

	userTurn := model.UserTurn(text, p.Images)
	turns := make([]model.Turn, 0, len(s.history)+1)
	turns = append(turns, s.history...)
	turns = append(turns, userTurn)

	gen := s.cfg.Generation
	req := gemini.Request{
		Contents:          gemini.ContentsFromTurns(turns),
		GenerationConfig:  &gen,
		SystemInstruction: gemini.SystemInstructionFrom(s.cfg.SystemInstruction),
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	ex := &Exchange{
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		msg:      model.NewModelMessage(),
		userTurn: userTurn,
		model:    modelName,
		stats:    model.NewStatistics(),
	}
	s.messages = append(s.messages, ex.msg)
	s.active = ex
	idle := s.cfg.IdleTimeout
	s.mu.Unlock()

	s.log.Info("exchange started",
		zap.String("conversation", s.ConversationID()),
		zap.String("model", modelName),
		zap.Int("turns", len(turns)),
		zap.Int("images", len(p.Images)))

	if cancelled != "" {
		s.notify(Event{Kind: EventCancelled, MessageID: cancelled})
	}
	s.notify(Event{Kind: EventStarted, MessageID: ex.msg.ID})

	go s.run(ex, req, idle)
	return ex
}

// Cancel stops the in-flight exchange, if any, and removes its partial
// answer. It reports whether anything was cancelled.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	id := s.cancelActiveLocked()
	s.mu.Unlock()

	if id == "" {
		return false
	}
	s.notify(Event{Kind: EventCancelled, MessageID: id})
	return true
}

// Reset cancels any exchange and clears messages and history.
func (s *Session) Reset() {
	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()
	s.ResetWith(cfg)
}

// ResetWith resets the session and applies cfg for subsequent exchanges.
// This is the only point where a running session picks up new settings.
func (s *Session) ResetWith(cfg Config) {
	s.mu.Lock()
	s.cancelActiveLocked()
	s.messages = nil
	s.history = nil
	s.cfg = cfg
	s.conversationID = model.NewID()
	s.mu.Unlock()

	s.log.Info("session reset")
	s.notify(Event{Kind: EventReset})
}

// Resume cancels any exchange and continues a stored conversation: its
// turns become the history and the visible messages, and later exchanges
// are recorded under conversationID. Turns without text are skipped since
// the API rejects empty parts.
func (s *Session) Resume(conversationID string, turns []model.Turn) {
	history := make([]model.Turn, 0, len(turns))
	messages := make([]*model.Message, 0, len(turns))
	for _, t := range turns {
		text := t.Text()
		if text == "" {
			continue
		}
		history = append(history, t)
		if t.Role == model.RoleUser {
			messages = append(messages, model.NewUserMessage(text, nil))
			continue
		}
		msg := model.NewModelMessage()
		msg.AppendDelta(text)
		msg.FinalizeStream(nil)
		messages = append(messages, msg)
	}

	s.mu.Lock()
	s.cancelActiveLocked()
	s.messages = messages
	s.history = history
	s.conversationID = conversationID
	s.mu.Unlock()

	s.log.Info("session resumed", zap.String("conversation", conversationID), zap.Int("turns", len(history)))
	s.notify(Event{Kind: EventReset})
}

// Transcribe turns recorded audio into text with the dictation model.
func (s *Session) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	s.mu.Lock()
	cfg := s.cfg
	s.mu.Unlock()

	if !cfg.HasCredential() {
		return "", ErrNotConfigured
	}
	if len(audio) == 0 {
		return "", gemini.ErrEmptyAudio
	}

	text, err := s.backend.Transcribe(ctx, cfg.dictationModel(), audio, mimeType)
	if err != nil {
		s.log.Warn("transcription failed", zap.Error(err))
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// =============================================================================
// READ SIDE
// =============================================================================

// Messages returns snapshots of the visible messages in order.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = m.Snapshot()
	}
	return out
}

// History returns a copy of the conversation history.
func (s *Session) History() []model.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Turn(nil), s.history...)
}

// Busy reports whether an exchange is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

// ConversationID identifies the current conversation; it changes on reset.
func (s *Session) ConversationID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Config returns the settings in effect.
func (s *Session) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// =============================================================================
// STREAM LIFECYCLE
// =============================================================================

// run drives one exchange until its stream ends.
func (s *Session) run(ex *Exchange, req gemini.Request, idle time.Duration) {
	defer close(ex.done)
	defer ex.cancel(nil)

	body, err := s.backend.StreamGenerate(ex.ctx, ex.model, req)
	if err != nil {
		s.fail(ex, err)
		return
	}
	defer body.Close()

	var src io.Reader = body
	if idle > 0 {
		ir := newIdleReader(body, idle, func() { ex.cancel(ErrStreamStalled) })
		defer ir.Stop()
		src = ir
	}

	reader := sse.NewReader(src, sse.WithLogger(s.log))
	for delta, err := range reader.Deltas() {
		if err != nil {
			s.fail(ex, err)
			return
		}
		if !s.apply(ex, delta) {
			return
		}
	}

	if ex.ctx.Err() != nil {
		s.fail(ex, context.Cause(ex.ctx))
		return
	}
	malformed := reader.Malformed()
	if malformed > 0 {
		s.log.Warn("skipped malformed stream records",
			zap.String("kind", string(model.ErrorMalformedEvent)),
			zap.Int("count", malformed))
	}
	s.complete(ex, malformed)
}

// apply appends one delta. It returns false when the exchange is no longer
// active and the stream should be abandoned.
func (s *Session) apply(ex *Exchange, delta string) bool {
	s.mu.Lock()
	if s.active != ex {
		s.mu.Unlock()
		return false
	}
	ex.stats.RecordFirstToken()
	ex.msg.AppendDelta(delta)
	s.mu.Unlock()

	s.notify(Event{Kind: EventDelta, MessageID: ex.msg.ID})
	return true
}

// complete finalizes the answer and commits both turns to history. A
// stream that produced no text fails instead; an empty model turn would
// make every later request in the conversation invalid.
func (s *Session) complete(ex *Exchange, malformed int) {
	s.mu.Lock()
	if s.active != ex {
		s.mu.Unlock()
		return
	}
	if ex.msg.IsEmpty() {
		s.mu.Unlock()
		if malformed > 0 {
			s.fail(ex, fmt.Errorf("%w (%d skipped)", ErrMalformedStream, malformed))
		} else {
			s.fail(ex, ErrEmptyResponse)
		}
		return
	}
	ex.msg.FinalizeStream(ex.stats)
	reply := model.ModelTurn(ex.msg.Content)
	s.history = append(s.history, ex.userTurn, reply)
	s.active = nil
	rec := Record{
		ConversationID: s.conversationID,
		Model:          ex.model,
		User:           ex.userTurn,
		Reply:          reply,
		At:             time.Now(),
	}
	recorder := s.recorder
	s.mu.Unlock()

	s.log.Info("exchange completed",
		zap.String("model", ex.model),
		zap.Int("chunks", ex.msg.DeltaCount),
		zap.Duration("duration", ex.msg.TotalDuration))

	if recorder != nil {
		if err := recorder.RecordExchange(context.Background(), rec); err != nil {
			s.log.Warn("failed to record exchange", zap.Error(err))
		}
	}
	s.notify(Event{Kind: EventCompleted, MessageID: ex.msg.ID})
}

// fail replaces the partial answer with the classified error text.
func (s *Session) fail(ex *Exchange, err error) {
	if cause := context.Cause(ex.ctx); cause != nil {
		err = cause
	}
	kind := Classify(err)

	s.mu.Lock()
	if s.active != ex {
		s.mu.Unlock()
		ex.setErr(err)
		return
	}
	s.active = nil
	ex.msg.Fail(kind, UserMessage(kind, ex.model))
	s.mu.Unlock()

	ex.setErr(err)
	if errors.Is(err, ErrStreamStalled) {
		s.log.Warn("stream stalled", zap.String("model", ex.model))
	} else {
		s.log.Error("exchange failed", zap.String("model", ex.model), zap.String("kind", string(kind)), zap.Error(err))
	}
	s.notify(Event{Kind: EventFailed, MessageID: ex.msg.ID})
}

// cancelActiveLocked cancels the active exchange and drops its message.
// It returns the dropped message ID, or "" when nothing was active.
// Callers hold s.mu.
func (s *Session) cancelActiveLocked() string {
	ex := s.active
	if ex == nil {
		return ""
	}
	s.active = nil
	ex.setErr(ErrCancelled)
	ex.cancel(ErrCancelled)

	for i, m := range s.messages {
		if m == ex.msg {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			break
		}
	}
	return ex.msg.ID
}

func (s *Session) notify(ev Event) {
	s.mu.Lock()
	fn := s.listener
	s.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}
