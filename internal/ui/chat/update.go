// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/tidings/internal/model"
	"github.com/morganforge/tidings/internal/push"
	"github.com/morganforge/tidings/internal/ui/components"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.handleResize(msg)
		return m, nil

	case push.StateChangedEvent:
		return m.handleConnState(msg)
	case push.NewMessageEvent:
		return m.handleNewMessage(msg)
	case push.MessageUpdatedEvent:
		m.cache.Replace(msg.Message)
		m.reg.RefreshLastMessage(msg.Message)
		m.refreshThread()
		return m, nil
	case push.MessageDeletedEvent:
		m.cache.Remove(msg.MessageID)
		m.reg.ClearLastMessage(msg.ChatID, msg.MessageID)
		m.refreshThread()
		return m, nil
	case push.ChatCreatedEvent:
		m.reg.Upsert(msg.Conversation)
		return m, nil
	case push.ChatUpdatedEvent:
		// Update, never insert: the event may race a removal.
		m.reg.Update(msg.Conversation)
		return m, nil
	case push.ChatRemovedEvent:
		return m.handleChatRemoved(msg)
	case push.UserAddedEvent:
		m.reg.AddUser(msg.User)
		return m, nil

	case ConversationsLoadedMsg:
		return m.handleConversationsLoaded(msg)
	case UsersLoadedMsg:
		if msg.Err != nil {
			return m, m.toast.Show(components.ToastWarning, "could not load users: "+msg.Err.Error())
		}
		m.reg.SetUsers(msg.Users)
		return m, nil
	case HistoryLoadedMsg:
		return m.handleHistoryLoaded(msg)

	case SendResultMsg:
		if msg.Err != nil {
			return m, m.toast.Show(components.ToastError, "send failed: "+msg.Err.Error())
		}
		return m, nil
	case EditResultMsg:
		if msg.Err != nil {
			return m, m.toast.Show(components.ToastError, "edit failed: "+msg.Err.Error())
		}
		return m, nil
	case DeleteResultMsg:
		if msg.Err != nil {
			return m, m.toast.Show(components.ToastError, "delete failed: "+msg.Err.Error())
		}
		return m, nil
	case ChatCreatedResultMsg:
		return m.handleChatCreated(msg)
	case ParticipantResultMsg:
		if msg.Err != nil {
			return m, m.toast.Show(components.ToastError, msg.Err.Error())
		}
		return m, nil

	case components.ToastExpiredMsg:
		m.toast.Expire(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Spinner ticks and blink messages.
	var cmds []tea.Cmd
	if cmd := m.spin.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// =============================================================================
// PUSH EVENT HANDLERS
// =============================================================================

func (m Model) handleConnState(ev push.StateChangedEvent) (Model, tea.Cmd) {
	m.connState = ev.State

	switch ev.State {
	case push.StateConnected:
		m.connSeen = true
		if !ev.Resumed {
			return m, nil
		}
		// Events may have been missed while offline: refetch the list and
		// the open thread.
		cmds := []tea.Cmd{loadConversations(m.backend)}
		if active := m.cache.ActiveID(); active != "" {
			cmds = append(cmds, loadHistory(m.backend, active))
		}
		return m, tea.Batch(cmds...)
	case push.StateDisconnected:
		// The status bar already shows offline while the first dial is
		// still failing; only a lost connection earns a toast.
		if !m.connSeen {
			return m, nil
		}
		text := "connection lost"
		if ev.Retrying {
			text = "connection lost, retrying"
		}
		return m, m.toast.Show(components.ToastWarning, text)
	}
	return m, nil
}

func (m Model) handleNewMessage(ev push.NewMessageEvent) (Model, tea.Cmd) {
	m.reg.SetLastMessage(ev.Message)

	wasBottom := m.vp.AtBottom()
	m.cache.Append(ev.Message)
	if ev.Message.ChatID == m.cache.ActiveID() {
		m.refreshThread()
		if wasBottom || ev.Message.IsOwn(m.user.ID) {
			m.vp.GotoBottom()
		}
	}
	return m, nil
}

func (m Model) handleChatRemoved(ev push.ChatRemovedEvent) (Model, tea.Cmd) {
	m.reg.Remove(ev.ChatID)
	m.clampSelection()

	if ev.ChatID != m.cache.ActiveID() {
		return m, nil
	}
	m.rooms.Leave(ev.ChatID)
	m.cache.Clear()
	m.vp.SetContent("")
	m.focus = focusList
	m.input.Blur()
	return m, m.toast.Show(components.ToastStatus, "you were removed from this conversation")
}

// =============================================================================
// FETCH RESULT HANDLERS
// =============================================================================

func (m Model) handleConversationsLoaded(msg ConversationsLoadedMsg) (Model, tea.Cmd) {
	m.spin.Stop()
	if msg.Err != nil {
		return m, m.toast.Show(components.ToastError, "could not load conversations: "+msg.Err.Error())
	}
	m.loaded = true
	m.reg.Replace(msg.Conversations)
	m.clampSelection()

	// The open conversation may have vanished while we were offline.
	if active := m.cache.ActiveID(); active != "" && !m.reg.Has(active) {
		m.rooms.Leave(active)
		m.cache.Clear()
		m.vp.SetContent("")
		m.focus = focusList
		m.input.Blur()
	}
	return m, nil
}

func (m Model) handleHistoryLoaded(msg HistoryLoadedMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		if msg.ChatID != m.cache.ActiveID() {
			return m, nil
		}
		m.cache.Deliver(msg.ChatID, nil)
		m.refreshThread()
		return m, m.toast.Show(components.ToastError, "could not load messages: "+msg.Err.Error())
	}

	m.cache.Deliver(msg.ChatID, msg.Messages)
	if msg.ChatID == m.cache.ActiveID() {
		m.refreshThread()
		m.vp.GotoBottom()
	}
	return m, nil
}

func (m Model) handleChatCreated(msg ChatCreatedResultMsg) (Model, tea.Cmd) {
	if msg.Err != nil {
		return m, m.toast.Show(components.ToastError, msg.Err.Error())
	}
	m.reg.Upsert(msg.Conversation)
	m.selectConversation(msg.Conversation.ID)
	return m, m.openConversation(msg.Conversation.ID)
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.dialog != dialogNone {
		return m.handleDialogKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Logout):
		return m, func() tea.Msg { return LogoutRequestedMsg{} }

	case key.Matches(msg, m.keys.NewDirect):
		m.dialog = dialogPickUser
		m.dialogSel = 0
		return m, nil

	case key.Matches(msg, m.keys.NewGroup):
		m.dialog = dialogGroupName
		m.dialogInput.SetValue("")
		m.dialogInput.Focus()
		m.dialogPicked = make(map[string]bool)
		return m, nil

	case key.Matches(msg, m.keys.ManageGroup):
		// Only group conversations have a member list to manage.
		if conv, ok := m.ActiveConversation(); ok && conv.IsGroup {
			m.dialog = dialogManageGroup
			m.dialogSel = 0
		}
		return m, nil

	case key.Matches(msg, m.keys.FocusSwap):
		if m.focus == focusList {
			m.focus = focusInput
			return m, m.input.Focus()
		}
		m.focus = focusList
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.keys.PageUp), key.Matches(msg, m.keys.PageDown):
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	}

	if m.focus == focusList {
		return m.handleListKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.selected--
		m.clampSelection()
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.selected++
		m.clampSelection()
		return m, nil
	case key.Matches(msg, m.keys.Open):
		sorted := m.reg.Sorted()
		if m.selected >= len(sorted) {
			return m, nil
		}
		return m, m.openConversation(sorted[m.selected].ID)
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Open):
		return m.submitComposer()

	case key.Matches(msg, m.keys.Cancel):
		if m.editingID != "" {
			m.editingID = ""
			m.input.SetValue("")
			m.input.Placeholder = "type a message"
			return m, nil
		}
		m.focus = focusList
		m.input.Blur()
		return m, nil

	case key.Matches(msg, m.keys.EditMsg):
		if last, ok := m.ownLastMessage(); ok {
			m.editingID = last.ID
			m.input.SetValue(last.Content)
			m.input.CursorEnd()
			m.input.Placeholder = "edit message"
		}
		return m, nil

	case key.Matches(msg, m.keys.DeleteMsg):
		if last, ok := m.ownLastMessage(); ok {
			return m, deleteMessage(m.backend, last.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submitComposer sends the composed text, or the pending edit.
func (m Model) submitComposer() (Model, tea.Cmd) {
	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}

	if m.editingID != "" {
		id := m.editingID
		m.editingID = ""
		m.input.SetValue("")
		m.input.Placeholder = "type a message"
		return m, editMessage(m.backend, id, content)
	}

	active := m.cache.ActiveID()
	if active == "" {
		return m, nil
	}
	m.input.SetValue("")
	return m, sendMessage(m.backend, active, content)
}

// =============================================================================
// DIALOGS
// =============================================================================

func (m Model) handleDialogKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Cancel) {
		if m.dialog == dialogManageAdd {
			m.dialog = dialogManageGroup
			m.dialogSel = 0
			return m, nil
		}
		m.dialog = dialogNone
		m.dialogInput.Blur()
		return m, nil
	}

	switch m.dialog {
	case dialogPickUser, dialogGroupPick:
		return m.handlePickKey(msg)
	case dialogManageGroup, dialogManageAdd:
		return m.handleManageKey(msg)
	case dialogGroupName:
		if key.Matches(msg, m.keys.Open) {
			name := strings.TrimSpace(m.dialogInput.Value())
			if name == "" {
				return m, nil
			}
			m.groupName = name
			m.dialog = dialogGroupPick
			m.dialogSel = 0
			m.dialogInput.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.dialogInput, cmd = m.dialogInput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handlePickKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	candidates := m.candidates()
	if len(candidates) == 0 {
		m.dialog = dialogNone
		return m, m.toast.Show(components.ToastStatus, "no other users yet")
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.dialogSel > 0 {
			m.dialogSel--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.dialogSel < len(candidates)-1 {
			m.dialogSel++
		}
		return m, nil
	}

	if m.dialog == dialogPickUser {
		if key.Matches(msg, m.keys.Open) {
			picked := candidates[m.dialogSel]
			m.dialog = dialogNone
			return m, createDirectChat(m.backend, picked.ID)
		}
		return m, nil
	}

	// Group member picker: space toggles, enter creates.
	switch msg.String() {
	case " ":
		id := candidates[m.dialogSel].ID
		m.dialogPicked[id] = !m.dialogPicked[id]
		return m, nil
	case "enter":
		var members []string
		for id, on := range m.dialogPicked {
			if on {
				members = append(members, id)
			}
		}
		if len(members) == 0 {
			return m, nil
		}
		m.dialog = dialogNone
		return m, createGroupChat(m.backend, m.groupName, members)
	}
	return m, nil
}

// handleManageKey drives the member dialogs for the open group. Membership
// changes land via the chat_updated event, not by local mutation.
func (m Model) handleManageKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	conv, ok := m.ActiveConversation()
	if !ok || !conv.IsGroup {
		m.dialog = dialogNone
		return m, nil
	}

	rows := m.members(conv)
	if m.dialog == dialogManageAdd {
		rows = m.addable(conv)
	}
	// The list shrinks underneath us when a chat_updated lands mid-dialog.
	if m.dialogSel >= len(rows) {
		m.dialogSel = len(rows) - 1
	}
	if m.dialogSel < 0 {
		m.dialogSel = 0
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.dialogSel > 0 {
			m.dialogSel--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.dialogSel < len(rows)-1 {
			m.dialogSel++
		}
		return m, nil
	}

	if m.dialog == dialogManageAdd {
		if key.Matches(msg, m.keys.Open) && len(rows) > 0 {
			picked := rows[m.dialogSel]
			m.dialog = dialogManageGroup
			m.dialogSel = 0
			return m, addParticipant(m.backend, conv.ID, picked.ID)
		}
		return m, nil
	}

	switch msg.String() {
	case "a":
		m.dialog = dialogManageAdd
		m.dialogSel = 0
		return m, nil
	case "d":
		if len(rows) == 0 {
			return m, nil
		}
		member := rows[m.dialogSel]
		if member.ID == m.user.ID {
			return m, nil
		}
		return m, removeParticipant(m.backend, conv.ID, member.ID)
	}
	return m, nil
}

// members lists the group's current participants for display.
func (m Model) members(conv model.Conversation) []model.User {
	if len(conv.Details) > 0 {
		out := make([]model.User, len(conv.Details))
		copy(out, conv.Details)
		return out
	}
	var out []model.User
	for _, id := range conv.Participants {
		if u, ok := m.reg.UserByID(id); ok {
			out = append(out, u)
			continue
		}
		out = append(out, model.User{ID: id, Username: id})
	}
	return out
}

// addable lists directory users not yet in the conversation.
func (m Model) addable(conv model.Conversation) []model.User {
	in := make(map[string]bool, len(conv.Participants)+len(conv.Details))
	for _, id := range conv.Participants {
		in[id] = true
	}
	for _, u := range conv.Details {
		in[u.ID] = true
	}
	var out []model.User
	for _, u := range m.reg.Users() {
		if !in[u.ID] {
			out = append(out, u)
		}
	}
	return out
}

// candidates returns the pickable users: everyone but ourselves.
func (m Model) candidates() []model.User {
	users := m.reg.Users()
	out := users[:0:0]
	for _, u := range users {
		if u.ID != m.user.ID {
			out = append(out, u)
		}
	}
	return out
}

// =============================================================================
// HELPERS
// =============================================================================

// openConversation switches the viewed thread: leave the old room, activate
// the cache, join the new room, fetch history.
func (m *Model) openConversation(id string) tea.Cmd {
	if id == m.cache.ActiveID() {
		m.focus = focusInput
		return m.input.Focus()
	}
	if old := m.cache.ActiveID(); old != "" {
		m.rooms.Leave(old)
	}
	m.cache.Activate(id)
	m.rooms.Join(id)
	m.editingID = ""
	m.input.SetValue("")
	m.vp.SetContent("")
	m.focus = focusInput
	return tea.Batch(m.input.Focus(), loadHistory(m.backend, id))
}

// selectConversation moves the list cursor onto the given id.
func (m *Model) selectConversation(id string) {
	for i, conv := range m.reg.Sorted() {
		if conv.ID == id {
			m.selected = i
			return
		}
	}
}

// ownLastMessage returns the current user's most recent message in the
// active thread.
func (m Model) ownLastMessage() (model.Message, bool) {
	msgs := m.cache.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].IsOwn(m.user.ID) {
			return msgs[i], true
		}
	}
	return model.Message{}, false
}

// refreshThread re-renders the viewport from the cache.
func (m *Model) refreshThread() {
	m.vp.SetContent(m.renderThread())
}

// handleResize recomputes the pane layout.
func (m *Model) handleResize(msg tea.WindowSizeMsg) {
	m.width = msg.Width
	m.height = msg.Height

	listW := m.listWidth()
	threadW := m.width - listW - 3
	if threadW < 10 {
		threadW = 10
	}
	// Header, composer, and status bar each take one line.
	threadH := m.height - 3
	if threadH < 1 {
		threadH = 1
	}

	m.vp.Width = threadW
	m.vp.Height = threadH
	m.input.Width = threadW - 2
	m.refreshThread()
}

// listWidth is the conversation pane width: a third of the screen, clamped.
func (m Model) listWidth() int {
	w := m.width / 3
	if w < 24 {
		w = 24
	}
	if w > 40 {
		w = 40
	}
	return w
}
