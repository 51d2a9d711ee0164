// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage keeps a transcript of completed exchanges in SQLite.
//
// A Store is plugged into a session as its Recorder. Every successful
// exchange appends a user turn and a model turn to the conversation it
// belongs to; failed and cancelled exchanges are never written. Images are
// counted, not stored.
//
// # Usage
//
//	store, err := storage.Open(path)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//	s := session.New(cfg, client, session.WithRecorder(store))
//
//	metas, err := store.List(ctx, 20)
//	conv, err := store.Load(ctx, metas[0].ID[:8])
//
// # Storage Location
//
// The database lives at ~/.askai/history.db unless storage.path is set.
package storage
