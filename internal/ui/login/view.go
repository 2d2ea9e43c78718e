// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package login

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/tidings/internal/ui/styles"
)

// View renders the centered form.
func (m Model) View() string {
	var b strings.Builder

	if m.mode == ModeLogin {
		b.WriteString(styles.Title.Render("tidings - sign in"))
	} else {
		b.WriteString(styles.Title.Render("tidings - create account"))
	}
	b.WriteString("\n\n")

	for _, f := range m.fields() {
		b.WriteString(m.inputs[f].View())
		b.WriteString("\n")
	}

	if m.errText != "" {
		b.WriteString("\n")
		b.WriteString(styles.ErrorText.Render(m.errText))
		b.WriteString("\n")
	}
	if m.busy {
		b.WriteString("\n")
		b.WriteString(m.spin.View())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.mode == ModeLogin {
		b.WriteString(styles.Hint.Render("enter submit - ctrl+t sign up - ctrl+c quit"))
	} else {
		b.WriteString(styles.Hint.Render("enter submit - ctrl+t sign in - ctrl+c quit"))
	}

	form := styles.Border.Padding(1, 3).Render(b.String())
	if m.width == 0 || m.height == 0 {
		return form
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, form)
}
