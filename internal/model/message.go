// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import "time"

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single chat message.
//
// The ID is unique within the owning conversation (and in practice globally);
// updates and deletes are keyed by it. Messages are kept in arrival order and
// never re-sorted by the client.
type Message struct {
	// Identity
	ID     string `json:"_id"`
	ChatID string `json:"chat_id"`

	// Content
	SenderID string `json:"sender_id"`
	Content  string `json:"content"`

	// Timestamps and edit state
	Timestamp time.Time  `json:"timestamp"`
	Edited    bool       `json:"edited"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
}

// IsOwn reports whether the message was sent by the given user.
func (m Message) IsOwn(currentUserID string) bool {
	return m.SenderID == currentUserID
}

// FormatTime renders the creation timestamp as HH:MM local time for display
// next to the message bubble.
func (m Message) FormatTime() string {
	if m.Timestamp.IsZero() {
		return ""
	}
	return m.Timestamp.Local().Format("15:04")
}
