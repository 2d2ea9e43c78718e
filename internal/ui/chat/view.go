// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/tidings/internal/model"
	"github.com/morganforge/tidings/internal/ui/components"
	"github.com/morganforge/tidings/internal/ui/styles"
	"github.com/morganforge/tidings/internal/util"
)

// View implements tea.Model.
// Layout: conversation list | thread pane, with a one-line status bar at the
// bottom. A visible toast replaces the status bar so the layout never jumps.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	if m.dialog != dialogNone {
		return m.renderDialog()
	}

	list := m.renderList()
	thread := m.renderThreadPane()
	main := lipgloss.JoinHorizontal(lipgloss.Top, list, " ", thread)

	bottom := m.toast.View(m.width)
	if bottom == "" {
		bottom = components.StatusBar{
			Username: m.user.Username,
			State:    m.connState,
			Hint:     m.hint(),
		}.View(m.width)
	}

	return lipgloss.JoinVertical(lipgloss.Left, main, bottom)
}

func (m Model) hint() string {
	if m.focus == focusList {
		return "Enter open - Tab compose - C-n new - C-g group - C-l log out"
	}
	if m.editingID != "" {
		return "Enter save edit - Esc cancel edit"
	}
	if conv, ok := m.ActiveConversation(); ok && conv.IsGroup {
		return "Enter send - C-e edit - C-d delete - C-p members - Esc back"
	}
	return "Enter send - C-e edit - C-d delete - Esc back to list"
}

// =============================================================================
// CONVERSATION LIST
// =============================================================================

// renderList draws the left pane: two lines per conversation, most recent
// activity first.
func (m Model) renderList() string {
	listW := m.listWidth()
	listH := m.height - 1

	var rows []string
	rows = append(rows, styles.Title.Render(util.TruncateWidth("conversations", listW)))

	if !m.loaded {
		rows = append(rows, m.spin.View())
	} else if m.reg.Len() == 0 {
		rows = append(rows, styles.Hint.Render("no conversations yet"))
		rows = append(rows, styles.Hint.Render("ctrl+n starts one"))
	}

	for i, conv := range m.reg.Sorted() {
		// Truncation happens on the plain text; styling would inflate the
		// measured width with escape sequences.
		name := conv.DisplayName(m.user.ID)
		if conv.IsGroup {
			name = "[G] " + name
		}
		if conv.ID == m.cache.ActiveID() {
			name = "* " + name
		}

		nameStyle := styles.ListItem
		if m.focus == focusList && i == m.selected {
			nameStyle = styles.ListItemSelected
		}
		rows = append(rows, nameStyle.Render(util.TruncateWidth(name, listW-1)))
		rows = append(rows, styles.ListPreview.Render(util.TruncateWidth(conv.Preview(m.user.ID), listW-2)))
	}

	if len(rows) > listH {
		rows = m.scrollListRows(rows, listH)
	}

	return lipgloss.NewStyle().
		Width(listW).
		Height(listH).
		MaxHeight(listH).
		Render(strings.Join(rows, "\n"))
}

// scrollListRows keeps the selected conversation visible in a tall list.
// Row 0 is the heading; each conversation occupies two rows after it.
func (m Model) scrollListRows(rows []string, listH int) []string {
	selTop := 1 + m.selected*2
	if selTop+2 <= listH {
		return rows[:listH]
	}
	start := selTop + 2 - listH
	out := append([]string{rows[0]}, rows[start+1:]...)
	if len(out) > listH {
		out = out[:listH]
	}
	return out
}

// =============================================================================
// THREAD PANE
// =============================================================================

// renderThreadPane draws the right pane: header, message viewport, composer.
func (m Model) renderThreadPane() string {
	header := m.renderHeader()
	composer := m.input.View()
	return lipgloss.JoinVertical(lipgloss.Left, header, m.vp.View(), composer)
}

func (m Model) renderHeader() string {
	conv, ok := m.ActiveConversation()
	if !ok {
		return styles.Hint.Render("select a conversation")
	}

	title := conv.DisplayName(m.user.ID)
	if conv.IsGroup {
		title = fmt.Sprintf("%s (%d members)", title, len(conv.Participants))
	}
	return styles.Title.Render(util.TruncateWidth(title, m.vp.Width))
}

// renderThread builds the viewport content from the cache.
func (m Model) renderThread() string {
	if m.cache.ActiveID() == "" {
		return ""
	}
	if m.cache.Loading() {
		return styles.Hint.Render("loading messages...")
	}

	msgs := m.cache.Messages()
	if len(msgs) == 0 {
		return styles.Hint.Render("no messages yet, say hello")
	}

	conv, _ := m.ActiveConversation()
	width := m.vp.Width
	bubbleMax := width * 2 / 3
	if bubbleMax < 16 {
		bubbleMax = 16
	}

	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.renderMessage(msg, conv, width, bubbleMax))
		b.WriteString("\n")
	}
	return b.String()
}

// renderMessage draws one bubble with its meta line. Own messages align
// right, peers align left with the sender named in group chats.
func (m Model) renderMessage(msg model.Message, conv model.Conversation, width, bubbleMax int) string {
	own := msg.IsOwn(m.user.ID)

	meta := msg.FormatTime()
	if msg.Edited {
		meta += " (edited)"
	}

	var parts []string
	if !own && conv.IsGroup {
		parts = append(parts, styles.SenderName.Render(m.senderName(msg.SenderID, conv)))
	}

	bubble := styles.PeerBubble
	if own {
		bubble = styles.OwnBubble
	}
	parts = append(parts,
		bubble.MaxWidth(bubbleMax).Render(msg.Content),
		styles.Timestamp.Render(meta),
	)

	block := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if own {
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, block)
	}
	return block
}

// senderName resolves a sender id against the conversation's participant
// details, then the user directory, before falling back to the raw id.
func (m Model) senderName(senderID string, conv model.Conversation) string {
	for _, u := range conv.Details {
		if u.ID == senderID {
			return u.Username
		}
	}
	if u, ok := m.reg.UserByID(senderID); ok {
		return u.Username
	}
	return senderID
}

// =============================================================================
// DIALOGS
// =============================================================================

func (m Model) renderDialog() string {
	var b strings.Builder

	switch m.dialog {
	case dialogGroupName:
		b.WriteString(styles.Title.Render("new group"))
		b.WriteString("\n\n")
		b.WriteString(m.dialogInput.View())
		b.WriteString("\n\n")
		b.WriteString(styles.Hint.Render("enter continue - esc cancel"))

	case dialogPickUser, dialogGroupPick:
		if m.dialog == dialogPickUser {
			b.WriteString(styles.Title.Render("new chat with"))
		} else {
			b.WriteString(styles.Title.Render("add members to " + m.groupName))
		}
		b.WriteString("\n\n")

		candidates := m.candidates()
		if len(candidates) == 0 {
			b.WriteString(styles.Hint.Render("no other users yet"))
		}
		for i, u := range candidates {
			row := u.Username
			if m.dialog == dialogGroupPick {
				mark := "[ ] "
				if m.dialogPicked[u.ID] {
					mark = "[x] "
				}
				row = mark + row
			}
			if i == m.dialogSel {
				b.WriteString(styles.ListItemSelected.Render(row))
			} else {
				b.WriteString(styles.ListItem.Render(row))
			}
			b.WriteString("\n")
		}

		b.WriteString("\n")
		if m.dialog == dialogPickUser {
			b.WriteString(styles.Hint.Render("enter start chat - esc cancel"))
		} else {
			b.WriteString(styles.Hint.Render("space toggle - enter create - esc cancel"))
		}

	case dialogManageGroup:
		conv, _ := m.ActiveConversation()
		b.WriteString(styles.Title.Render("members of " + conv.DisplayName(m.user.ID)))
		b.WriteString("\n\n")
		for i, u := range m.members(conv) {
			row := u.Username
			if u.ID == m.user.ID {
				row += " (you)"
			}
			if i == m.dialogSel {
				b.WriteString(styles.ListItemSelected.Render(row))
			} else {
				b.WriteString(styles.ListItem.Render(row))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(styles.Hint.Render("a add - d remove - esc close"))

	case dialogManageAdd:
		conv, _ := m.ActiveConversation()
		b.WriteString(styles.Title.Render("add member"))
		b.WriteString("\n\n")
		addable := m.addable(conv)
		if len(addable) == 0 {
			b.WriteString(styles.Hint.Render("everyone is already here"))
			b.WriteString("\n")
		}
		for i, u := range addable {
			if i == m.dialogSel {
				b.WriteString(styles.ListItemSelected.Render(u.Username))
			} else {
				b.WriteString(styles.ListItem.Render(u.Username))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(styles.Hint.Render("enter add - esc back"))
	}

	panel := styles.FocusedBorder.Padding(1, 2).Render(b.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, panel)
}
