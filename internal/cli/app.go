// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Shared wiring for askai commands.
//
// Every command starts from an app: the loaded config with flag overrides
// applied, the rotating logger, the Gemini client behind the backoff
// executor and, when enabled, the transcript store.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/jeranaias/askai-tui/internal/backoff"
	"github.com/jeranaias/askai-tui/internal/config"
	"github.com/jeranaias/askai-tui/internal/gemini"
	"github.com/jeranaias/askai-tui/internal/logging"
	"github.com/jeranaias/askai-tui/internal/session"
	"github.com/jeranaias/askai-tui/internal/storage"
	"github.com/jeranaias/askai-tui/internal/ui/chat"
	"github.com/jeranaias/askai-tui/internal/ui/components"
	"github.com/jeranaias/askai-tui/internal/ui/styles"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	model      string
	system     string
	verbose    bool
}

// apply writes flag overrides into cfg. It also runs on configs reloaded
// while the TUI is open so the flags keep winning.
func (g *globalFlags) apply(cfg *config.Config) {
	if g.model != "" {
		cfg.API.Model = g.model
	}
	if g.system != "" {
		cfg.API.SystemInstruction = g.system
	}
}

// resolveConfigPath returns the --config path or the default location.
func (g *globalFlags) resolveConfigPath() (string, error) {
	if g.configPath != "" {
		return chat.ExpandPath(g.configPath), nil
	}
	return config.ConfigPath()
}

// =============================================================================
// CONFIG LOADING
// =============================================================================

// loadConfig reads path, falling back to defaults plus environment
// overrides when the file does not exist.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		cfg := config.Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return config.LoadFromPath(path)
}

// =============================================================================
// APP
// =============================================================================

// appOptions selects the optional parts of an app.
type appOptions struct {
	// storage opens the transcript store even when recording is disabled,
	// for commands that read it.
	storage bool
	// console mirrors log output to this writer.
	console io.Writer
}

// app holds everything a command needs.
type app struct {
	cfg        *config.Config
	configPath string
	log        *zap.Logger
	client     *gemini.Client
	store      *storage.Store
}

// newApp loads the config and builds the shared components.
func newApp(g *globalFlags, opts appOptions) (*app, error) {
	path, err := g.resolveConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	g.apply(cfg)
	config.SetGlobal(cfg)
	styles.SetDefault(styles.NewThemeFor(cfg.UI.Theme))

	log, err := newLogger(cfg, g.verbose, opts.console)
	if err != nil {
		return nil, err
	}
	logging.SetGlobal(log)

	a := &app{
		cfg:        cfg,
		configPath: path,
		log:        log,
		client:     newClient(cfg, log),
	}

	if cfg.Storage.Enabled || opts.storage {
		if err := a.openStore(); err != nil {
			if opts.storage {
				return nil, err
			}
			// Recording is best effort; answers still work without it.
			log.Warn("transcript store unavailable", zap.Error(err))
		}
	}
	return a, nil
}

func newLogger(cfg *config.Config, verbose bool, console io.Writer) (*zap.Logger, error) {
	file, err := cfg.LogPath()
	if err != nil {
		return nil, err
	}
	opts := logging.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       file,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}
	if verbose {
		opts.Level = "debug"
		opts.Format = "console"
		opts.Console = console
	}
	log, err := logging.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

func newClient(cfg *config.Config, log *zap.Logger) *gemini.Client {
	exec := backoff.New(&http.Client{},
		backoff.WithMaxAttempts(cfg.Retry.MaxAttempts),
		backoff.WithRequestsPerMinute(cfg.Retry.RequestsPerMinute),
		backoff.WithLogger(log.Named("backoff")),
	)
	return gemini.NewClient(cfg.API.Key,
		gemini.WithBaseURL(cfg.API.BaseURL),
		gemini.WithExecutor(exec),
		gemini.WithLogger(log.Named("gemini")),
	)
}

func (a *app) openStore() error {
	path, err := a.cfg.StoragePath()
	if err != nil {
		return err
	}
	store, err := storage.Open(path, storage.WithLogger(a.log.Named("storage")))
	if err != nil {
		return err
	}
	a.store = store
	return nil
}

// newSession creates a chat session on the app's client. Completed
// exchanges are recorded when recording is enabled.
func (a *app) newSession(opts ...session.Option) *session.Session {
	base := []session.Option{session.WithLogger(a.log.Named("session"))}
	if a.store != nil && a.cfg.Storage.Enabled {
		base = append(base, session.WithRecorder(a.store))
	}
	return session.New(a.cfg.SessionConfig(), a.client, append(base, opts...)...)
}

// resume loads a stored conversation into sess so the next question
// continues it. It returns the number of turns restored.
func (a *app) resume(ctx context.Context, sess *session.Session, id string) (int, error) {
	if a.store == nil {
		return 0, errors.New("transcript store is not available")
	}
	conv, err := a.store.Load(ctx, id)
	if err != nil {
		return 0, err
	}
	sess.Resume(conv.ID, conv.History())
	a.log.Debug("conversation resumed", zap.String("conversation", conv.ID))
	return len(sess.History()), nil
}

// renderMarkdown styles text for the terminal with the configured theme.
func (a *app) renderMarkdown(text string) string {
	return components.RenderMarkdown(text, renderWidth(), a.cfg.UI.Hyperlinks)
}

// applyConfig makes a reloaded config's credential take effect.
func (a *app) applyConfig(cfg *config.Config) {
	a.cfg = cfg
	a.client.SetAPIKey(cfg.API.Key)
	config.SetGlobal(cfg)
	a.log.Info("settings applied", zap.String("model", cfg.API.Model))
}

// Close releases the store and flushes the log.
func (a *app) Close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("failed to close transcript store", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}
