// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/tidings/internal/api"
	"github.com/morganforge/tidings/internal/model"
)

// Backend is the REST surface the chat screen drives. Satisfied by
// *api.Client; faked in tests.
type Backend interface {
	Chats(ctx context.Context) ([]model.Conversation, error)
	Users(ctx context.Context) ([]model.User, error)
	Messages(ctx context.Context, chatID string) ([]model.Message, error)
	SendMessage(ctx context.Context, chatID, content string) error
	EditMessage(ctx context.Context, messageID, content string) error
	DeleteMessage(ctx context.Context, messageID string) error
	CreateDirectChat(ctx context.Context, userID string) (model.Conversation, error)
	CreateGroupChat(ctx context.Context, name string, participants []string) (model.Conversation, error)
	AddParticipant(ctx context.Context, chatID, userID string) error
	RemoveParticipant(ctx context.Context, chatID, userID string) error
}

// expired maps a credential rejection to the screen-switching message. Every
// command funnels its error through this so a stale token always lands on
// the login screen instead of a toast.
func expired(err error) (tea.Msg, bool) {
	if errors.Is(err, api.ErrUnauthenticated) {
		return SessionExpiredMsg{}, true
	}
	return nil, false
}

func loadConversations(b Backend) tea.Cmd {
	return func() tea.Msg {
		convs, err := b.Chats(context.Background())
		if msg, ok := expired(err); ok {
			return msg
		}
		return ConversationsLoadedMsg{Conversations: convs, Err: err}
	}
}

func loadUsers(b Backend) tea.Cmd {
	return func() tea.Msg {
		users, err := b.Users(context.Background())
		if msg, ok := expired(err); ok {
			return msg
		}
		return UsersLoadedMsg{Users: users, Err: err}
	}
}

func loadHistory(b Backend, chatID string) tea.Cmd {
	return func() tea.Msg {
		msgs, err := b.Messages(context.Background(), chatID)
		if msg, ok := expired(err); ok {
			return msg
		}
		return HistoryLoadedMsg{ChatID: chatID, Messages: msgs, Err: err}
	}
}

func sendMessage(b Backend, chatID, content string) tea.Cmd {
	return func() tea.Msg {
		err := b.SendMessage(context.Background(), chatID, content)
		if msg, ok := expired(err); ok {
			return msg
		}
		return SendResultMsg{Err: err}
	}
}

func editMessage(b Backend, messageID, content string) tea.Cmd {
	return func() tea.Msg {
		err := b.EditMessage(context.Background(), messageID, content)
		if msg, ok := expired(err); ok {
			return msg
		}
		return EditResultMsg{Err: err}
	}
}

func deleteMessage(b Backend, messageID string) tea.Cmd {
	return func() tea.Msg {
		err := b.DeleteMessage(context.Background(), messageID)
		if msg, ok := expired(err); ok {
			return msg
		}
		return DeleteResultMsg{Err: err}
	}
}

func createDirectChat(b Backend, userID string) tea.Cmd {
	return func() tea.Msg {
		conv, err := b.CreateDirectChat(context.Background(), userID)
		if msg, ok := expired(err); ok {
			return msg
		}
		return ChatCreatedResultMsg{Conversation: conv, Err: err}
	}
}

func createGroupChat(b Backend, name string, participants []string) tea.Cmd {
	return func() tea.Msg {
		conv, err := b.CreateGroupChat(context.Background(), name, participants)
		if msg, ok := expired(err); ok {
			return msg
		}
		return ChatCreatedResultMsg{Conversation: conv, Err: err}
	}
}

func addParticipant(b Backend, chatID, userID string) tea.Cmd {
	return func() tea.Msg {
		err := b.AddParticipant(context.Background(), chatID, userID)
		if msg, ok := expired(err); ok {
			return msg
		}
		return ParticipantResultMsg{Err: err}
	}
}

func removeParticipant(b Backend, chatID, userID string) tea.Cmd {
	return func() tea.Msg {
		err := b.RemoveParticipant(context.Background(), chatID, userID)
		if msg, ok := expired(err); ok {
			return msg
		}
		return ParticipantResultMsg{Err: err}
	}
}
