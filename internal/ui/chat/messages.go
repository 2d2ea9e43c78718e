// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the main screen: the conversation list on the
// left, the active thread and composer on the right.
//
// This file defines the Bubble Tea message types the screen consumes. Fetch
// results arrive as *LoadedMsg/*ResultMsg from the commands in commands.go;
// server pushes arrive directly as the push package's event types, injected
// into the program from the adapter's read goroutine.
package chat

import "github.com/morganforge/tidings/internal/model"

// SessionExpiredMsg signals the server rejected our credential. The app root
// intercepts it, clears the session, and returns to the login screen.
type SessionExpiredMsg struct{}

// LogoutRequestedMsg signals the user asked to sign out. Handled by the app
// root like SessionExpiredMsg, but deliberate.
type LogoutRequestedMsg struct{}

// =============================================================================
// FETCH RESULTS
// =============================================================================

// ConversationsLoadedMsg delivers the fetched conversation list.
type ConversationsLoadedMsg struct {
	Conversations []model.Conversation
	Err           error
}

// UsersLoadedMsg delivers the visible-users directory.
type UsersLoadedMsg struct {
	Users []model.User
	Err   error
}

// HistoryLoadedMsg delivers the fetched thread for a conversation. ChatID
// identifies which request this answers; the cache discards stale loads.
type HistoryLoadedMsg struct {
	ChatID   string
	Messages []model.Message
	Err      error
}

// =============================================================================
// MUTATION RESULTS
// =============================================================================

// SendResultMsg reports the outcome of a message send. The message itself
// arrives via the push echo, never through this.
type SendResultMsg struct {
	Err error
}

// EditResultMsg reports the outcome of a message edit.
type EditResultMsg struct {
	Err error
}

// DeleteResultMsg reports the outcome of a message delete.
type DeleteResultMsg struct {
	Err error
}

// ChatCreatedResultMsg reports the outcome of a create-chat call with the
// server's complete representation of the new conversation.
type ChatCreatedResultMsg struct {
	Conversation model.Conversation
	Err          error
}

// ParticipantResultMsg reports the outcome of an add/remove participant
// call. The conversation's new state arrives via chat_updated.
type ParticipantResultMsg struct {
	Err error
}
