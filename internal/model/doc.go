// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// This package defines the core domain types shared by the REST client, the
// push channel, the in-memory stores, and the UI. Field tags follow the wire
// format of the chat server (`_id`, `chat_id`, `participant_details`, ...),
// so the same types are used for decoding REST responses and push events.
//
// # Key Types
//
//   - User: A chat participant (opaque ID plus display name)
//   - Conversation: A direct or group chat with participants and metadata
//   - Message: Single message with sender, content, timestamp, and edit state
//   - Session: Bearer token plus the authenticated user
//
// Display helpers such as DisplayName and Preview are pure functions of the
// value and the current user's identity; they never touch shared state.
package model
