// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides UI components shared across tidings screens.
//
// This file implements non-blocking toasts. Unlike modal error dialogs,
// toasts render above the status bar and auto-dismiss, so the user keeps
// typing while a failed send or a dropped connection is reported.
package components

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/tidings/internal/ui/styles"
	"github.com/morganforge/tidings/internal/util"
)

// ToastKind represents the type of toast notification.
type ToastKind int

const (
	// ToastStatus is an informational toast (cyan)
	ToastStatus ToastKind = iota
	// ToastError is an error toast (rose)
	ToastError
	// ToastWarning is a warning toast (amber)
	ToastWarning
)

// Auto-dismiss durations. Errors linger longer so they can be read.
const (
	statusToastDuration  = 4 * time.Second
	errorToastDuration   = 8 * time.Second
	warningToastDuration = 6 * time.Second
)

// ToastExpiredMsg dismisses the toast with the given id.
type ToastExpiredMsg struct {
	ID int
}

// =============================================================================
// TOAST MODEL
// =============================================================================

// Toast holds at most one visible notification. Showing a new toast replaces
// the current one; the stale expiry timer is ignored by id.
type Toast struct {
	id      int
	message string
	kind    ToastKind
	visible bool
}

// Show replaces the current toast and returns the expiry command.
func (t *Toast) Show(kind ToastKind, message string) tea.Cmd {
	t.id++
	t.message = message
	t.kind = kind
	t.visible = true

	id := t.id
	return tea.Tick(durationFor(kind), func(time.Time) tea.Msg {
		return ToastExpiredMsg{ID: id}
	})
}

// Expire handles a ToastExpiredMsg, hiding the toast when the id matches.
func (t *Toast) Expire(msg ToastExpiredMsg) {
	if msg.ID == t.id {
		t.visible = false
	}
}

// Dismiss hides the toast immediately.
func (t *Toast) Dismiss() {
	t.visible = false
}

// Visible reports whether a toast is showing.
func (t *Toast) Visible() bool {
	return t.visible
}

// View renders the toast as a single line, empty when hidden. The chat
// screen swaps it in for the status bar so the layout never shifts.
func (t *Toast) View(width int) string {
	if !t.visible {
		return ""
	}

	var color lipgloss.AdaptiveColor
	var prefix string
	switch t.kind {
	case ToastError:
		color = styles.Rose
		prefix = "[X] "
	case ToastWarning:
		color = styles.Amber
		prefix = "[!] "
	default:
		color = styles.Cyan
		prefix = "[i] "
	}

	line := prefix + t.message
	if width > 4 {
		line = util.TruncateWidth(line, width)
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(line)
}

func durationFor(kind ToastKind) time.Duration {
	switch kind {
	case ToastError:
		return errorToastDuration
	case ToastWarning:
		return warningToastDuration
	default:
		return statusToastDuration
	}
}
