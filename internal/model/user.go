// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
package model

import "unicode"

// User represents a chat participant.
//
// Users are immutable once fetched; the visible-users set only ever grows,
// driven by the user_added push event.
type User struct {
	// ID is the server-assigned opaque identifier.
	ID string `json:"_id"`

	// Username is the display name shown in the UI.
	Username string `json:"username"`
}

// Initial returns the first rune of the username, uppercased, for avatar
// rendering. Returns "?" for an empty username.
func (u User) Initial() string {
	for _, r := range u.Username {
		return string(unicode.ToUpper(r))
	}
	return "?"
}

// Session holds the bearer credential and the authenticated user.
//
// The token is opaque to the client: it is stored, attached to requests, and
// passed to the push channel at connect time, never inspected.
type Session struct {
	Token string
	User  User
}
