// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/tidings/internal/model"
	"github.com/morganforge/tidings/internal/push"
	"github.com/morganforge/tidings/internal/registry"
	"github.com/morganforge/tidings/internal/thread"
	"github.com/morganforge/tidings/internal/ui/components"
)

// focusArea identifies which pane owns the keyboard.
type focusArea int

const (
	focusList focusArea = iota
	focusInput
)

// dialogKind identifies the active modal dialog, if any.
type dialogKind int

const (
	dialogNone dialogKind = iota
	dialogPickUser    // choose a user for a direct chat
	dialogGroupName   // name a new group
	dialogGroupPick   // multi-select members for the group
	dialogManageGroup // members of the open group, remove selected
	dialogManageAdd   // add a directory user to the open group
)

// Rooms is the push channel's join/leave surface. Exactly one conversation
// is joined at a time; openConversation sends leave-then-join.
type Rooms interface {
	Join(chatID string)
	Leave(chatID string)
}

// =============================================================================
// MODEL
// =============================================================================

// Model is the chat screen state.
type Model struct {
	keys    KeyMap
	backend Backend
	rooms   Rooms
	user    model.User

	reg   *registry.Registry
	cache *thread.Cache

	focus    focusArea
	selected int

	input textinput.Model
	vp    viewport.Model

	// editingID is the message being edited; empty while composing new.
	editingID string

	connState push.ConnState
	// connSeen flips once the channel has connected; until then a
	// disconnect is just the initial dial still failing, not news.
	connSeen bool
	toast    components.Toast
	spin     components.Spinner

	dialog       dialogKind
	dialogInput  textinput.Model
	dialogSel    int
	dialogPicked map[string]bool
	groupName    string

	width  int
	height int
	loaded bool
}

// New creates the chat screen for the signed-in user.
func New(backend Backend, rooms Rooms, user model.User) Model {
	input := textinput.New()
	input.Placeholder = "type a message"
	input.CharLimit = 4096

	dialogInput := textinput.New()
	dialogInput.Placeholder = "group name"
	dialogInput.CharLimit = 64

	m := Model{
		keys:         DefaultKeyMap(),
		backend:      backend,
		rooms:        rooms,
		user:         user,
		reg:          registry.New(),
		cache:        thread.NewCache(),
		input:        input,
		dialogInput:  dialogInput,
		dialogPicked: make(map[string]bool),
		spin:         components.NewSpinner("loading conversations"),
	}
	// Active from the start; Init emits the first tick.
	m.spin.Start()
	return m
}

// Init implements tea.Model: kick off the initial fetches.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spin.Tick(),
		loadConversations(m.backend),
		loadUsers(m.backend),
	)
}

// ActiveConversation returns the open conversation, if any.
func (m Model) ActiveConversation() (model.Conversation, bool) {
	if m.cache.ActiveID() == "" {
		return model.Conversation{}, false
	}
	return m.reg.Get(m.cache.ActiveID())
}

// clampSelection keeps the list cursor inside the conversation set.
func (m *Model) clampSelection() {
	if n := m.reg.Len(); m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}
