// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package thread caches the message history of the active conversation.
//
// Only one conversation is cached at a time: opening a conversation replaces
// the cache contents entirely. Like the registry, the cache is touched only
// from the UI update loop and needs no locking.
package thread

import "github.com/morganforge/tidings/internal/model"

// Cache holds the active conversation's messages in server order.
type Cache struct {
	activeID string
	loading  bool
	messages []model.Message
	index    map[string]int
}

// NewCache creates an empty, inactive cache.
func NewCache() *Cache {
	return &Cache{index: make(map[string]int)}
}

// ActiveID returns the id of the conversation being viewed, empty when none.
func (c *Cache) ActiveID() string {
	return c.activeID
}

// Loading reports whether a history fetch for the active conversation is
// still in flight.
func (c *Cache) Loading() bool {
	return c.loading
}

// Messages returns the cached thread in display order. The returned slice is
// the cache's own; callers render from it and must not mutate it.
func (c *Cache) Messages() []model.Message {
	return c.messages
}

// Len returns the number of cached messages.
func (c *Cache) Len() int {
	return len(c.messages)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Activate switches the cache to a new conversation. The previous thread is
// dropped immediately and the cache reports loading until Deliver lands.
// Activating the already active conversation is a no-op.
func (c *Cache) Activate(chatID string) {
	if chatID == c.activeID {
		return
	}
	c.activeID = chatID
	c.loading = chatID != ""
	c.reset()
}

// Deliver installs a fetched history for chatID. A response for anything but
// the active conversation is a stale load from a fast chat switch and is
// discarded.
func (c *Cache) Deliver(chatID string, msgs []model.Message) {
	if chatID != c.activeID {
		return
	}
	c.loading = false
	c.reset()
	for _, m := range msgs {
		c.put(m)
	}
}

// Clear deactivates the cache, dropping all state.
func (c *Cache) Clear() {
	c.activeID = ""
	c.loading = false
	c.reset()
}

// =============================================================================
// PUSH MUTATIONS
// =============================================================================

// Append adds a pushed message to the thread. Messages for other
// conversations are ignored here (the registry still sees them for previews).
// A message id already present replaces the existing entry, so a fetch that
// raced a push echo does not produce a duplicate row.
func (c *Cache) Append(msg model.Message) {
	if msg.ChatID != c.activeID {
		return
	}
	c.put(msg)
}

// Replace swaps an edited message in place. Unknown ids and other
// conversations are ignored.
func (c *Cache) Replace(msg model.Message) {
	if msg.ChatID != c.activeID {
		return
	}
	if i, ok := c.index[msg.ID]; ok {
		c.messages[i] = msg
	}
}

// Remove deletes a message from the thread. Unknown ids are a no-op.
func (c *Cache) Remove(messageID string) {
	i, ok := c.index[messageID]
	if !ok {
		return
	}
	c.messages = append(c.messages[:i], c.messages[i+1:]...)
	delete(c.index, messageID)
	for j := i; j < len(c.messages); j++ {
		c.index[c.messages[j].ID] = j
	}
}

// =============================================================================
// INTERNALS
// =============================================================================

func (c *Cache) put(msg model.Message) {
	if i, ok := c.index[msg.ID]; ok {
		c.messages[i] = msg
		return
	}
	c.index[msg.ID] = len(c.messages)
	c.messages = append(c.messages, msg)
}

func (c *Cache) reset() {
	c.messages = c.messages[:0]
	c.index = make(map[string]int)
}
