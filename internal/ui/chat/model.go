// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/askai-tui/internal/config"
	"github.com/jeranaias/askai-tui/internal/model"
	"github.com/jeranaias/askai-tui/internal/session"
	"github.com/jeranaias/askai-tui/internal/ui/components"
	"github.com/jeranaias/askai-tui/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State represents which view is showing.
type State int

const (
	StateHome State = iota // Nothing sent yet
	StateChat              // Transcript view
)

// NoticeDuration is how long a status notice stays visible.
const NoticeDuration = 4 * time.Second

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	state    State
	quitting bool

	theme *styles.Theme
	log   *zap.Logger

	width  int
	height int

	sess *session.Session

	// cfg is the configuration the session runs with; pending is a reloaded
	// one waiting for the next new chat.
	cfg     *config.Config
	pending *config.Config
	adjust  func(*config.Config)
	onApply func(*config.Config)

	// UI Components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model
	keys     KeyMap

	header  *components.Header
	status  *components.StatusBar
	welcome components.Welcome
	list    *components.MessageList
	tracker *contentTracker

	// Next submission
	images   []model.Blob
	dictated bool

	transcribing      bool
	transcribeTimeout time.Duration

	noticeID int
	copy     func(string) error
}

// Option configures a Model.
type Option func(*Model)

// WithTheme sets the theme.
func WithTheme(theme *styles.Theme) Option {
	return func(m *Model) {
		if theme != nil {
			m.theme = theme
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Model) {
		if log != nil {
			m.log = log
		}
	}
}

// WithClipboard replaces the clipboard writer used by /copy.
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) {
		if fn != nil {
			m.copy = fn
		}
	}
}

// WithConfigAdjust sets a function applied to every reloaded config before
// it is used, such as command-line overrides.
func WithConfigAdjust(fn func(*config.Config)) Option {
	return func(m *Model) {
		m.adjust = fn
	}
}

// WithApplyHook sets a function called when a reloaded config takes effect,
// before the session is reset with it.
func WithApplyHook(fn func(*config.Config)) Option {
	return func(m *Model) {
		m.onApply = fn
	}
}

// WithTranscribeTimeout bounds /dictate requests.
func WithTranscribeTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.transcribeTimeout = d
		}
	}
}

// New creates a new chat model around a session. cfg is the configuration
// the session was built from.
func New(sess *session.Session, cfg *config.Config, opts ...Option) Model {
	m := Model{
		state:             StateHome,
		log:               zap.NewNop(),
		sess:              sess,
		cfg:               cfg,
		keys:              DefaultKeyMap(),
		tracker:           newContentTracker(),
		transcribeTimeout: DefaultTranscribeTimeout,
		copy:              copyToClipboard,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.theme == nil {
		m.theme = styles.Default()
	}
	if m.cfg == nil {
		m.cfg = config.Default()
	}

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask anything, or /image, /dictate, /copy, /new"
	ti.CharLimit = 8192
	ti.PromptStyle = m.theme.InputPrompt
	ti.PlaceholderStyle = m.theme.InputPlaceholder
	ti.Focus()
	m.input = ti

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = m.theme.Spinner
	m.spinner = sp

	m.viewport = viewport.New(80, 20)

	m.header = components.NewHeader(m.theme)
	m.status = components.NewStatusBar(m.theme)
	m.welcome = components.NewWelcome(m.theme)
	m.list = components.NewMessageList(m.theme)
	m.applyUIConfig()

	return m
}

// applyUIConfig pushes the active config into the chrome components.
func (m *Model) applyUIConfig() {
	modelName := m.sess.Config().Model
	m.header.SetModel(modelName)
	m.header.SetConversation(m.sess.ConversationID())
	m.status.SetModel(modelName)
	m.welcome.SetModelName(modelName)
	m.list.SetShowStats(m.cfg.UI.ShowStats)
	m.list.SetHyperlinks(m.cfg.UI.Hyperlinks)
}

// Init initializes the chat model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// =============================================================================
// ACCESSORS
// =============================================================================

// GetState returns the current view.
func (m Model) GetState() State {
	return m.state
}

// Session returns the session behind the view.
func (m Model) Session() *session.Session {
	return m.sess
}

// PendingImages returns the number of images attached to the next question.
func (m Model) PendingImages() int {
	return len(m.images)
}

// Dictated reports whether the next question came from dictation.
func (m Model) Dictated() bool {
	return m.dictated
}

// HasPendingConfig reports whether a reloaded config waits for a new chat.
func (m Model) HasPendingConfig() bool {
	return m.pending != nil
}

// Notice returns the status notice.
func (m Model) Notice() string {
	return m.status.Notice
}

// InputValue returns the current input text.
func (m Model) InputValue() string {
	return m.input.Value()
}

// IsQuitting reports whether the model asked the program to quit.
func (m Model) IsQuitting() bool {
	return m.quitting
}
