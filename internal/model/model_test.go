// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import (
	"encoding/json"
	"testing"
	"time"
)

// =============================================================================
// DISPLAY NAME TESTS
// =============================================================================

func TestConversation_DisplayName(t *testing.T) {
	tests := []struct {
		name string
		conv Conversation
		want string
	}{
		{
			name: "explicit name wins",
			conv: Conversation{
				Name:    "project-x",
				Details: []User{{ID: "u1", Username: "alice"}, {ID: "u2", Username: "bob"}},
			},
			want: "project-x",
		},
		{
			name: "two party resolves to counterpart",
			conv: Conversation{
				Participants: []string{"u1", "u2"},
				Details:      []User{{ID: "u1", Username: "alice"}, {ID: "u2", Username: "bob"}},
			},
			want: "bob",
		},
		{
			name: "no counterpart falls back to placeholder",
			conv: Conversation{
				Details: []User{{ID: "u1", Username: "alice"}},
			},
			want: UnknownUserName,
		},
		{
			name: "missing details falls back to placeholder",
			conv: Conversation{Participants: []string{"u1", "u2"}},
			want: UnknownUserName,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.conv.DisplayName("u1"); got != tc.want {
				t.Errorf("DisplayName(u1) = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestConversation_DisplayName_Deterministic(t *testing.T) {
	conv := Conversation{
		Details: []User{{ID: "u1", Username: "alice"}, {ID: "u2", Username: "bob"}},
	}
	first := conv.DisplayName("u1")
	for i := 0; i < 10; i++ {
		if got := conv.DisplayName("u1"); got != first {
			t.Fatalf("DisplayName not deterministic: %q then %q", first, got)
		}
	}
}

// =============================================================================
// PREVIEW TESTS
// =============================================================================

func TestConversation_Preview(t *testing.T) {
	tests := []struct {
		name string
		conv Conversation
		want string
	}{
		{
			name: "no messages",
			conv: Conversation{},
			want: "No messages yet",
		},
		{
			name: "own message gets You prefix",
			conv: Conversation{LastMessage: &Message{SenderID: "u1", Content: "hi"}},
			want: "You: hi",
		},
		{
			name: "counterpart message has no prefix",
			conv: Conversation{LastMessage: &Message{SenderID: "u2", Content: "hi"}},
			want: "hi",
		},
		{
			name: "long content is truncated",
			conv: Conversation{LastMessage: &Message{SenderID: "u2", Content: "abcdefghijklmnopqrstuvwxyz"}},
			want: "abcdefghijklmnopq...",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.conv.Preview("u1"); got != tc.want {
				t.Errorf("Preview(u1) = %q, want %q", got, tc.want)
			}
		})
	}
}

// =============================================================================
// SORT TIME TESTS
// =============================================================================

func TestConversation_SortTime(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	active := created.Add(2 * time.Hour)

	c := Conversation{CreatedAt: created}
	if got := c.SortTime(); !got.Equal(created) {
		t.Errorf("SortTime() = %v, want created_at %v", got, created)
	}

	c.LastActivity = active
	if got := c.SortTime(); !got.Equal(active) {
		t.Errorf("SortTime() = %v, want last_activity %v", got, active)
	}
}

// =============================================================================
// WIRE FORMAT TESTS
// =============================================================================

func TestConversation_WireDecoding(t *testing.T) {
	raw := `{
		"_id": "c1",
		"participants": ["u1", "u2"],
		"participant_details": [
			{"_id": "u1", "username": "alice"},
			{"_id": "u2", "username": "bob"}
		],
		"is_group": false,
		"last_message": {
			"_id": "m1",
			"chat_id": "c1",
			"sender_id": "u2",
			"content": "hello",
			"timestamp": "2025-03-01T12:00:00Z",
			"edited": false
		},
		"created_at": "2025-02-28T09:30:00Z"
	}`

	var conv Conversation
	if err := json.Unmarshal([]byte(raw), &conv); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if conv.ID != "c1" {
		t.Errorf("ID = %q, want c1", conv.ID)
	}
	if len(conv.Participants) != 2 {
		t.Errorf("len(Participants) = %d, want 2", len(conv.Participants))
	}
	if conv.LastMessage == nil || conv.LastMessage.ID != "m1" {
		t.Errorf("LastMessage not decoded: %+v", conv.LastMessage)
	}
	if got := conv.DisplayName("u1"); got != "bob" {
		t.Errorf("DisplayName(u1) = %q, want bob", got)
	}
}

func TestMessage_IsOwn(t *testing.T) {
	m := Message{SenderID: "u1"}
	if !m.IsOwn("u1") {
		t.Error("IsOwn(u1) = false, want true")
	}
	if m.IsOwn("u2") {
		t.Error("IsOwn(u2) = true, want false")
	}
}

func TestUser_Initial(t *testing.T) {
	tests := []struct {
		username string
		want     string
	}{
		{"alice", "A"},
		{"Bob", "B"},
		{"", "?"},
		{"ümit", "Ü"},
	}
	for _, tc := range tests {
		u := User{Username: tc.username}
		if got := u.Initial(); got != tc.want {
			t.Errorf("Initial(%q) = %q, want %q", tc.username, got, tc.want)
		}
	}
}
