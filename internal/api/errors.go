// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api implements the REST collaborator for the chat server.
package api

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated indicates the server rejected the bearer credential.
// Callers must clear the session and return to the login screen.
var ErrUnauthenticated = errors.New("unauthenticated")

// ValidationError carries the server's human-readable rejection reason for a
// login/register or other 4xx failure. The session is unchanged; the reason
// is surfaced to the form.
type ValidationError struct {
	Status int
	Msg    string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return fmt.Sprintf("request rejected (HTTP %d)", e.Status)
}

// APIError represents any other non-success response from the server.
type APIError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("server error (HTTP %d): %s", e.Status, e.Body)
}

// IsValidation reports whether err is a server-side validation rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
