// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/tidings/internal/push"
	"github.com/morganforge/tidings/internal/ui/styles"
	"github.com/morganforge/tidings/internal/util"
)

// StatusBar renders the one-line bar at the bottom of the chat screen:
// connection state on the left, the signed-in user and key hints on the
// right.
type StatusBar struct {
	Username string
	State    push.ConnState
	Hint     string
}

// connSegment returns the colored connection indicator.
func (s StatusBar) connSegment() string {
	switch s.State {
	case push.StateConnected:
		return styles.StatusConnected.Render("[*] connected")
	case push.StateConnecting:
		return styles.StatusConnecting.Render("[~] connecting")
	default:
		return styles.StatusDisconnected.Render("[X] offline")
	}
}

// View renders the bar at the given width.
func (s StatusBar) View(width int) string {
	left := s.connSegment()
	if s.Username != "" {
		left += styles.StatusBar.Render(" " + s.Username)
	}

	right := styles.Hint.Render(s.Hint)

	leftW := lipgloss.Width(left)
	rightW := lipgloss.Width(right)
	gap := width - leftW - rightW
	if gap < 1 {
		// Drop the hint before truncating the state segment.
		right = ""
		gap = width - leftW
		if gap < 0 {
			return util.TruncateWidth(left, width)
		}
	}

	return left + lipgloss.NewStyle().Width(gap).Render("") + right
}
