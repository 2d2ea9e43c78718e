// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// SHARED STYLES
// =============================================================================

// Title is the screen heading style.
var Title = lipgloss.NewStyle().
	Foreground(Cyan).
	Bold(true)

// Label styles form field labels.
var Label = lipgloss.NewStyle().
	Foreground(TextSecondary)

// Hint styles keybinding hints and footnotes.
var Hint = lipgloss.NewStyle().
	Foreground(TextMuted)

// ErrorText styles inline error lines under forms and in toasts.
var ErrorText = lipgloss.NewStyle().
	Foreground(Rose).
	Bold(true)

// Border is the default panel border.
var Border = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Overlay)

// FocusedBorder marks the panel holding keyboard focus.
var FocusedBorder = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Cyan)

// =============================================================================
// CONVERSATION LIST
// =============================================================================

// ListItem is an unselected conversation row.
var ListItem = lipgloss.NewStyle().
	Foreground(TextPrimary).
	PaddingLeft(1)

// ListItemSelected is the highlighted conversation row.
var ListItemSelected = lipgloss.NewStyle().
	Foreground(TextPrimary).
	Background(SelectionBg).
	Bold(true).
	PaddingLeft(1)

// ListPreview is the last-message preview line under a conversation name.
var ListPreview = lipgloss.NewStyle().
	Foreground(TextSecondary).
	PaddingLeft(2)

// =============================================================================
// MESSAGE THREAD
// =============================================================================

// OwnBubble renders the current user's messages.
var OwnBubble = lipgloss.NewStyle().
	Foreground(OwnBubbleFg).
	Background(OwnBubbleBg).
	Padding(0, 1)

// PeerBubble renders other participants' messages.
var PeerBubble = lipgloss.NewStyle().
	Foreground(PeerBubbleFg).
	Background(PeerBubbleBg).
	Padding(0, 1)

// SenderName labels a peer bubble in group conversations.
var SenderName = lipgloss.NewStyle().
	Foreground(Purple).
	Bold(true)

// Timestamp styles per-message times and the edited marker.
var Timestamp = lipgloss.NewStyle().
	Foreground(TextMuted)

// =============================================================================
// STATUS BAR
// =============================================================================

// StatusBar is the bottom bar background.
var StatusBar = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Background(SurfaceDim).
	Padding(0, 1)

// StatusConnected, StatusConnecting, StatusDisconnected color the channel
// state segment.
var (
	StatusConnected    = lipgloss.NewStyle().Foreground(Emerald).Bold(true)
	StatusConnecting   = lipgloss.NewStyle().Foreground(Amber).Bold(true)
	StatusDisconnected = lipgloss.NewStyle().Foreground(Rose).Bold(true)
)
