// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"time"

	"github.com/morganforge/tidings/internal/util"
)

// UnknownUserName is the placeholder shown when a direct chat's counterpart
// cannot be resolved from the participant details.
const UnknownUserName = "Unknown User"

// previewRunes is the maximum length of a sidebar last-message preview.
const previewRunes = 20

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation is a direct or group chat between two or more users.
//
// The server sends complete representations on every create/update, and the
// registry replaces whole records by ID, so a Conversation value is always
// treated as a snapshot, never field-merged.
type Conversation struct {
	// Identity
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`

	// Participants. Participants holds the raw identifiers; Details is the
	// denormalized expansion the server ships for display purposes.
	Participants []string `json:"participants"`
	Details      []User   `json:"participant_details,omitempty"`
	IsGroup      bool     `json:"is_group"`

	// Denormalized latest message, absent for empty conversations.
	LastMessage *Message `json:"last_message,omitempty"`

	// Sort keys. LastActivity is bumped by the server on every message;
	// CreatedAt is the fallback for conversations with no traffic yet.
	LastActivity time.Time `json:"last_activity,omitzero"`
	CreatedAt    time.Time `json:"created_at,omitzero"`
}

// =============================================================================
// DERIVED DISPLAY FIELDS
// =============================================================================

// DisplayName resolves the name to show for this conversation.
//
// A set Name wins. Otherwise the counterpart's username is used for two-party
// chats (the participant detail whose ID differs from currentUserID). If
// nothing resolves, a fixed placeholder is returned. Pure and deterministic
// given the current user's identity.
func (c Conversation) DisplayName(currentUserID string) string {
	if c.Name != "" {
		return c.Name
	}
	for _, p := range c.Details {
		if p.ID != currentUserID {
			return p.Username
		}
	}
	return UnknownUserName
}

// Preview returns the sidebar one-liner for the latest message, prefixed with
// "You: " when the current user sent it.
func (c Conversation) Preview(currentUserID string) string {
	if c.LastMessage == nil {
		return "No messages yet"
	}
	prefix := ""
	if c.LastMessage.SenderID == currentUserID {
		prefix = "You: "
	}
	return prefix + util.TruncateRunes(c.LastMessage.Content, previewRunes)
}

// SortTime returns the timestamp used for sidebar ordering: last activity if
// present, else creation time.
func (c Conversation) SortTime() time.Time {
	if !c.LastActivity.IsZero() {
		return c.LastActivity
	}
	return c.CreatedAt
}

// HasParticipant reports whether the user ID is among the participants.
func (c Conversation) HasParticipant(userID string) bool {
	for _, id := range c.Participants {
		if id == userID {
			return true
		}
	}
	return false
}

// Counterpart returns the non-self participant of a direct chat, if it can be
// resolved from the details.
func (c Conversation) Counterpart(currentUserID string) (User, bool) {
	for _, p := range c.Details {
		if p.ID != currentUserID {
			return p, true
		}
	}
	return User{}, false
}
