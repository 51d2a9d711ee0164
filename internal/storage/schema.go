// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

// SchemaVersion is bumped whenever Schema changes shape.
const SchemaVersion = "1"

// Schema is the transcript database layout.
const Schema = `
-- Metadata table for schema version
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- One row per conversation (a session between resets)
CREATE TABLE IF NOT EXISTS conversations (
    id TEXT PRIMARY KEY,
    model TEXT NOT NULL,
    created_at INTEGER NOT NULL, -- Unix millis
    updated_at INTEGER NOT NULL  -- Unix millis
);

-- Committed turns, two per successful exchange
CREATE TABLE IF NOT EXISTS turns (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
    seq INTEGER NOT NULL,
    role TEXT NOT NULL,          -- user, model
    text TEXT NOT NULL,
    image_count INTEGER NOT NULL DEFAULT 0,
    model TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    UNIQUE (conversation_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_conversations_updated ON conversations(updated_at DESC);
CREATE INDEX IF NOT EXISTS idx_turns_conversation ON turns(conversation_id, seq);
`

// InitMetadata seeds the metadata table.
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '` + SchemaVersion + `');
`
