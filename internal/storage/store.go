// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/askai-tui/internal/model"
	"github.com/jeranaias/askai-tui/internal/session"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrConversationNotFound is returned when no conversation matches an ID.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrAmbiguousID is returned when an ID prefix matches several conversations.
	ErrAmbiguousID = errors.New("conversation ID prefix is ambiguous")
)

// =============================================================================
// TYPES
// =============================================================================

// ConversationMeta summarizes a conversation for listing.
type ConversationMeta struct {
	ID        string
	Model     string
	CreatedAt time.Time
	UpdatedAt time.Time
	TurnCount int
	// Preview is the first user turn.
	Preview string
}

// StoredTurn is one committed turn.
type StoredTurn struct {
	Seq        int
	Role       model.Role
	Text       string
	ImageCount int
	Model      string
	At         time.Time
}

// Conversation is a stored conversation with all its turns.
type Conversation struct {
	ConversationMeta
	Turns []StoredTurn
}

// History rebuilds the text-only history of the conversation. Images are
// not stored, only counted.
func (c *Conversation) History() []model.Turn {
	out := make([]model.Turn, 0, len(c.Turns))
	for _, t := range c.Turns {
		out = append(out, model.Turn{Role: t.Role, Parts: []model.Part{{Text: t.Text}}})
	}
	return out
}

// =============================================================================
// STORE
// =============================================================================

// Store persists completed exchanges in SQLite. It implements
// session.Recorder.
type Store struct {
	db   *sql.DB
	path string
	log  *zap.Logger
}

var _ session.Recorder = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// Open opens (creating if needed) the transcript database at path.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &Store{db: db, path: path, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	if _, err := s.db.Exec(Schema); err != nil {
		return err
	}
	_, err := s.db.Exec(InitMetadata)
	return err
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// WRITES
// =============================================================================

// RecordExchange appends the user and model turns of rec to its
// conversation, creating the conversation on first use.
func (s *Store) RecordExchange(ctx context.Context, rec session.Record) error {
	if rec.ConversationID == "" {
		return errors.New("record has no conversation ID")
	}
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}
	ms := at.UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO conversations (id, model, created_at, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at, model = excluded.model`,
		rec.ConversationID, rec.Model, ms, ms); err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}

	var seq int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(seq), 0) FROM turns WHERE conversation_id = ?",
		rec.ConversationID).Scan(&seq); err != nil {
		return fmt.Errorf("failed to read turn sequence: %w", err)
	}

	for _, turn := range []model.Turn{rec.User, rec.Reply} {
		seq++
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO turns (conversation_id, seq, role, text, image_count, model, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rec.ConversationID, seq, string(turn.Role), turn.Text(), turn.InlineCount(), rec.Model, ms); err != nil {
			return fmt.Errorf("failed to insert turn: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit exchange: %w", err)
	}
	s.log.Debug("exchange recorded", zap.String("conversation", rec.ConversationID), zap.Int("seq", seq))
	return nil
}

// Delete removes a conversation and its turns.
func (s *Store) Delete(ctx context.Context, id string) error {
	full, err := s.resolveID(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM conversations WHERE id = ?", full); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// =============================================================================
// READS
// =============================================================================

// List returns conversations, most recently updated first. limit <= 0
// means no limit.
func (s *Store) List(ctx context.Context, limit int) ([]ConversationMeta, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.model, c.created_at, c.updated_at,
		       (SELECT COUNT(*) FROM turns t WHERE t.conversation_id = c.id),
		       COALESCE((SELECT t.text FROM turns t
		                 WHERE t.conversation_id = c.id AND t.role = 'user'
		                 ORDER BY t.seq LIMIT 1), '')
		FROM conversations c
		ORDER BY c.updated_at DESC, c.id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var metas []ConversationMeta
	for rows.Next() {
		var m ConversationMeta
		var created, updated int64
		if err := rows.Scan(&m.ID, &m.Model, &created, &updated, &m.TurnCount, &m.Preview); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		m.CreatedAt = time.UnixMilli(created)
		m.UpdatedAt = time.UnixMilli(updated)
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// Load returns a conversation by ID or unique ID prefix.
func (s *Store) Load(ctx context.Context, id string) (*Conversation, error) {
	full, err := s.resolveID(ctx, id)
	if err != nil {
		return nil, err
	}

	conv := &Conversation{}
	var created, updated int64
	if err := s.db.QueryRowContext(ctx,
		"SELECT id, model, created_at, updated_at FROM conversations WHERE id = ?", full).
		Scan(&conv.ID, &conv.Model, &created, &updated); err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	conv.CreatedAt = time.UnixMilli(created)
	conv.UpdatedAt = time.UnixMilli(updated)

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, role, text, image_count, model, created_at
		FROM turns WHERE conversation_id = ? ORDER BY seq`, full)
	if err != nil {
		return nil, fmt.Errorf("failed to load turns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t StoredTurn
		var role string
		var at int64
		if err := rows.Scan(&t.Seq, &role, &t.Text, &t.ImageCount, &t.Model, &at); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		t.Role = model.Role(role)
		t.At = time.UnixMilli(at)
		conv.Turns = append(conv.Turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	conv.TurnCount = len(conv.Turns)
	for _, t := range conv.Turns {
		if t.Role == model.RoleUser {
			conv.Preview = t.Text
			break
		}
	}
	return conv, nil
}

// resolveID expands an ID prefix to the full conversation ID.
func (s *Store) resolveID(ctx context.Context, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", ErrConversationNotFound
	}

	var exact string
	err := s.db.QueryRowContext(ctx, "SELECT id FROM conversations WHERE id = ?", id).Scan(&exact)
	switch {
	case err == nil:
		return exact, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("failed to look up conversation: %w", err)
	}

	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(id)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM conversations WHERE id LIKE ? ESCAPE '\' LIMIT 2`, escaped+"%")
	if err != nil {
		return "", fmt.Errorf("failed to look up conversation: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return "", err
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousID, id)
	}
}
