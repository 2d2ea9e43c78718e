// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package push maintains the real-time channel to the chat server.
//
// The server pushes JSON envelopes of the form {"event": <name>, "data": ...}
// over a websocket. This file defines the typed events the adapter delivers
// to the UI loop and the envelope codec; adapter.go owns the connection.
package push

import (
	"encoding/json"
	"fmt"

	"github.com/morganforge/tidings/internal/model"
)

// Server-to-client event names.
const (
	eventUserAdded      = "user_added"
	eventChatCreated    = "chat_created"
	eventChatUpdated    = "chat_updated"
	eventChatRemoved    = "chat_removed"
	eventNewMessage     = "new_message"
	eventMessageUpdated = "message_updated"
	eventMessageDeleted = "message_deleted"
)

// Client-to-server command names.
const (
	cmdJoin  = "join"
	cmdLeave = "leave"
)

// =============================================================================
// TYPED EVENTS
// =============================================================================

// UserAddedEvent announces a newly visible user for the new-chat dialogs.
type UserAddedEvent struct {
	User model.User
}

// ChatCreatedEvent carries a conversation the current user was just added to.
type ChatCreatedEvent struct {
	Conversation model.Conversation
}

// ChatUpdatedEvent carries the full replacement state of a conversation.
type ChatUpdatedEvent struct {
	Conversation model.Conversation
}

// ChatRemovedEvent announces the current user lost access to a conversation.
type ChatRemovedEvent struct {
	ChatID string
}

// NewMessageEvent carries a message appended to some conversation. The
// sender's own messages come back through this event too.
type NewMessageEvent struct {
	Message model.Message
}

// MessageUpdatedEvent carries the replacement state of an edited message.
type MessageUpdatedEvent struct {
	Message model.Message
}

// MessageDeletedEvent announces a message removal.
type MessageDeletedEvent struct {
	MessageID string
	ChatID    string
}

// ConnState is the push channel's connection state.
type ConnState int

// Connection states, in lifecycle order.
const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

// String returns the state name for the status bar and logs.
func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// StateChangedEvent reports a connection state transition. The UI renders it
// in the status bar; a transition to StateConnected also signals that a
// refetch may be needed to cover the disconnected gap.
type StateChangedEvent struct {
	State ConnState

	// Resumed is true when this connection replaces an earlier one within
	// the same session, meaning events may have been missed.
	Resumed bool

	// Retrying accompanies StateDisconnected when the adapter will keep
	// dialing on its own.
	Retrying bool
}

// =============================================================================
// ENVELOPE CODEC
// =============================================================================

// envelope is the wire frame for both directions.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// chatRef is the data payload for events and commands that name a chat.
type chatRef struct {
	ChatID string `json:"chat_id"`
}

// messageRef is the data payload for message_deleted.
type messageRef struct {
	MessageID string `json:"message_id"`
	ChatID    string `json:"chat_id"`
}

// decodeEvent turns a raw websocket frame into a typed event. Unknown event
// names return (nil, nil): the server may grow new events and an old client
// must not drop the connection over them.
func decodeEvent(frame []byte) (any, error) {
	var env envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Event {
	case eventUserAdded:
		var u model.User
		if err := json.Unmarshal(env.Data, &u); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Event, err)
		}
		return UserAddedEvent{User: u}, nil

	case eventChatCreated, eventChatUpdated:
		var conv model.Conversation
		if err := json.Unmarshal(env.Data, &conv); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Event, err)
		}
		if env.Event == eventChatCreated {
			return ChatCreatedEvent{Conversation: conv}, nil
		}
		return ChatUpdatedEvent{Conversation: conv}, nil

	case eventChatRemoved:
		var ref chatRef
		if err := json.Unmarshal(env.Data, &ref); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Event, err)
		}
		return ChatRemovedEvent{ChatID: ref.ChatID}, nil

	case eventNewMessage, eventMessageUpdated:
		var msg model.Message
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Event, err)
		}
		if env.Event == eventNewMessage {
			return NewMessageEvent{Message: msg}, nil
		}
		return MessageUpdatedEvent{Message: msg}, nil

	case eventMessageDeleted:
		var ref messageRef
		if err := json.Unmarshal(env.Data, &ref); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Event, err)
		}
		return MessageDeletedEvent{MessageID: ref.MessageID, ChatID: ref.ChatID}, nil

	default:
		return nil, nil
	}
}

// encodeCommand builds an outbound join/leave frame.
func encodeCommand(cmd, chatID string) ([]byte, error) {
	data, err := json.Marshal(chatRef{ChatID: chatID})
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Event: cmd, Data: data})
}
