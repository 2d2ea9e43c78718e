// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package push

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  any
	}{
		{
			name:  "new message",
			frame: `{"event": "new_message", "data": {"_id": "m1", "chat_id": "c1", "sender_id": "u1", "content": "hi"}}`,
			want: NewMessageEvent{},
		},
		{
			name:  "message updated",
			frame: `{"event": "message_updated", "data": {"_id": "m1", "chat_id": "c1", "content": "hi!", "edited": true}}`,
			want: MessageUpdatedEvent{},
		},
		{
			name:  "message deleted",
			frame: `{"event": "message_deleted", "data": {"message_id": "m1", "chat_id": "c1"}}`,
			want: MessageDeletedEvent{MessageID: "m1", ChatID: "c1"},
		},
		{
			name:  "chat created",
			frame: `{"event": "chat_created", "data": {"_id": "c9", "is_group": true, "name": "team"}}`,
			want: ChatCreatedEvent{},
		},
		{
			name:  "chat removed",
			frame: `{"event": "chat_removed", "data": {"chat_id": "c9"}}`,
			want: ChatRemovedEvent{ChatID: "c9"},
		},
		{
			name:  "user added",
			frame: `{"event": "user_added", "data": {"_id": "u7", "username": "gail"}}`,
			want: UserAddedEvent{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeEvent([]byte(tt.frame))
			require.NoError(t, err)
			require.IsType(t, tt.want, got)

			switch ev := got.(type) {
			case NewMessageEvent:
				assert.Equal(t, "m1", ev.Message.ID)
				assert.Equal(t, "c1", ev.Message.ChatID)
				assert.Equal(t, "hi", ev.Message.Content)
			case MessageUpdatedEvent:
				assert.True(t, ev.Message.Edited)
			case MessageDeletedEvent:
				assert.Equal(t, tt.want, got)
			case ChatCreatedEvent:
				assert.Equal(t, "c9", ev.Conversation.ID)
				assert.Equal(t, "team", ev.Conversation.Name)
			case ChatRemovedEvent:
				assert.Equal(t, tt.want, got)
			case UserAddedEvent:
				assert.Equal(t, "gail", ev.User.Username)
			}
		})
	}
}

func TestDecodeEvent_UnknownEventIsSkipped(t *testing.T) {
	got, err := decodeEvent([]byte(`{"event": "typing_started", "data": {"chat_id": "c1"}}`))
	require.NoError(t, err)
	assert.Nil(t, got, "unknown events must be ignored, not fatal")
}

func TestDecodeEvent_MalformedFrame(t *testing.T) {
	_, err := decodeEvent([]byte(`not json`))
	require.Error(t, err)

	_, err = decodeEvent([]byte(`{"event": "new_message", "data": "not an object"}`))
	require.Error(t, err)
}

func TestEncodeCommand(t *testing.T) {
	frame, err := encodeCommand(cmdJoin, "c1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"event": "join", "data": {"chat_id": "c1"}}`, string(frame))

	frame, err = encodeCommand(cmdLeave, "c1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"event": "leave", "data": {"chat_id": "c1"}}`, string(frame))
}
