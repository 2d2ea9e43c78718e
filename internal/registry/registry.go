// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry holds the authoritative client-side set of conversations
// and the visible-users directory backing the new-chat dialogs.
//
// The registry is mutated only from the UI update loop, so it carries no
// locking. Push events and fetch results funnel through the same loop.
package registry

import (
	"sort"

	"github.com/morganforge/tidings/internal/model"
)

// Registry is the conversation set keyed by id. Insertion order is preserved
// for stable iteration; display order is computed by Sorted.
type Registry struct {
	order []string
	byID  map[string]*model.Conversation

	users     []model.User
	userIndex map[string]int
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byID:      make(map[string]*model.Conversation),
		userIndex: make(map[string]int),
	}
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

// Replace swaps the whole conversation set for a freshly fetched one. Used on
// initial load and after a push channel resume, when local state may have
// missed removals.
func (r *Registry) Replace(convs []model.Conversation) {
	r.order = r.order[:0]
	r.byID = make(map[string]*model.Conversation, len(convs))
	for i := range convs {
		conv := convs[i]
		if _, dup := r.byID[conv.ID]; dup {
			r.byID[conv.ID] = &conv
			continue
		}
		r.order = append(r.order, conv.ID)
		r.byID[conv.ID] = &conv
	}
}

// Upsert installs a conversation, replacing any existing entry with the same
// id wholesale. Chat snapshots from the server are complete, so there is no
// field-level merging.
func (r *Registry) Upsert(conv model.Conversation) {
	if _, ok := r.byID[conv.ID]; !ok {
		r.order = append(r.order, conv.ID)
	}
	r.byID[conv.ID] = &conv
}

// Update replaces an existing conversation wholesale. Unknown ids are
// dropped: a chat_updated arriving out of order after the removal must not
// resurrect the conversation.
func (r *Registry) Update(conv model.Conversation) {
	if _, ok := r.byID[conv.ID]; !ok {
		return
	}
	r.byID[conv.ID] = &conv
}

// Remove drops a conversation. Removing an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	if _, ok := r.byID[id]; !ok {
		return
	}
	delete(r.byID, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns a copy of the conversation with the given id.
func (r *Registry) Get(id string) (model.Conversation, bool) {
	conv, ok := r.byID[id]
	if !ok {
		return model.Conversation{}, false
	}
	return *conv, true
}

// Has reports whether the conversation is known.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// Len returns the number of conversations.
func (r *Registry) Len() int {
	return len(r.order)
}

// Sorted returns the conversations in display order: most recent activity
// first, with the insertion order breaking ties so equal timestamps do not
// jitter between renders.
func (r *Registry) Sorted() []model.Conversation {
	out := make([]model.Conversation, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SortTime().After(out[j].SortTime())
	})
	return out
}

// SetLastMessage records a delivered message as the conversation's latest,
// bumping its activity time so the list reorders. Messages for unknown
// conversations are ignored; the chat_created event carries the real entry.
func (r *Registry) SetLastMessage(msg model.Message) {
	conv, ok := r.byID[msg.ChatID]
	if !ok {
		return
	}
	m := msg
	conv.LastMessage = &m
	if msg.Timestamp.After(conv.LastActivity) {
		conv.LastActivity = msg.Timestamp
	}
}

// RefreshLastMessage updates the preview in place when the edited or deleted
// message happens to be the conversation's latest. A delete passes nil
// content via cleared=true.
func (r *Registry) RefreshLastMessage(msg model.Message) {
	conv, ok := r.byID[msg.ChatID]
	if !ok || conv.LastMessage == nil || conv.LastMessage.ID != msg.ID {
		return
	}
	m := msg
	conv.LastMessage = &m
}

// ClearLastMessage drops the preview when the conversation's latest message
// was deleted. Activity time is left alone.
func (r *Registry) ClearLastMessage(chatID, messageID string) {
	conv, ok := r.byID[chatID]
	if !ok || conv.LastMessage == nil || conv.LastMessage.ID != messageID {
		return
	}
	conv.LastMessage = nil
}

// =============================================================================
// USER DIRECTORY
// =============================================================================

// SetUsers replaces the visible-users directory.
func (r *Registry) SetUsers(users []model.User) {
	r.users = r.users[:0]
	r.userIndex = make(map[string]int, len(users))
	for _, u := range users {
		r.addUser(u)
	}
}

// AddUser inserts a newly announced user. Re-adding an existing id replaces
// the entry in place, so repeated user_added events are idempotent.
func (r *Registry) AddUser(u model.User) {
	r.addUser(u)
}

func (r *Registry) addUser(u model.User) {
	if i, ok := r.userIndex[u.ID]; ok {
		r.users[i] = u
		return
	}
	r.userIndex[u.ID] = len(r.users)
	r.users = append(r.users, u)
}

// Users returns the directory in insertion order.
func (r *Registry) Users() []model.User {
	out := make([]model.User, len(r.users))
	copy(out, r.users)
	return out
}

// UserByID looks a directory entry up.
func (r *Registry) UserByID(id string) (model.User, bool) {
	i, ok := r.userIndex[id]
	if !ok {
		return model.User{}, false
	}
	return r.users[i], true
}
