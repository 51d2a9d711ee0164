// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/askai-tui/internal/config"
	"github.com/jeranaias/askai-tui/internal/session"
)

// RunOptions configures Run.
type RunOptions struct {
	// ConfigPath is watched for changes. Empty disables watching.
	ConfigPath string
	Logger     *zap.Logger
	Model      []Option
}

// Run starts the TUI and blocks until the user quits or ctx is done.
//
// Session events are delivered to the program through an EventPump, and
// config file changes arrive as ConfigReloadedMsg.
func Run(ctx context.Context, sess *session.Session, cfg *config.Config, opts RunOptions) error {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	m := New(sess, cfg, append([]Option{WithLogger(log)}, opts.Model...)...)
	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	pumpCtx, stopPump := context.WithCancel(ctx)
	defer stopPump()

	pump := NewEventPump(p.Send)
	sess.SetListener(pump.Listener)
	defer sess.SetListener(nil)
	go pump.Run(pumpCtx)

	if opts.ConfigPath != "" {
		w, err := config.Watch(opts.ConfigPath, func(c *config.Config, err error) {
			p.Send(ConfigReloadedMsg{Config: c, Err: err})
		})
		if err != nil {
			log.Warn("config watch unavailable", zap.String("path", opts.ConfigPath), zap.Error(err))
		} else {
			defer w.Close()
		}
	}

	log.Info("tui started", zap.String("model", sess.Config().Model), zap.String("conversation", sess.ConversationID()))
	_, err := p.Run()
	sess.Cancel()
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("tui failed: %w", err)
	}
	log.Info("tui stopped")
	return nil
}
