// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Message: one entry of the visible transcript, streaming or final
//   - Turn: one role-tagged history entry sent back to the model as context
//   - Part, Blob: text and inline binary pieces of a turn
//   - Role: user or model
//   - ErrorKind: classification attached to failed model messages
//
// # Usage
//
//	msg := model.NewModelMessage()
//	msg.AppendDelta("Hel")
//	msg.AppendDelta("lo")
//	msg.FinalizeStream(nil)
//	history = append(history, model.UserTurn("hi", nil), model.ModelTurn(msg.Content))
package model
