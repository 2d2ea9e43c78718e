// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package login implements the sign-in and sign-up screen.
//
// The screen owns its form state and local validation; the actual auth call
// is injected as a SubmitFunc so the screen never touches the network
// directly. The app root watches ResultMsg to switch to the chat screen on
// success.
package login

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/morganforge/tidings/internal/ui/components"
)

// Mode selects which form is showing.
type Mode int

const (
	// ModeLogin is the sign-in form: username or email, password.
	ModeLogin Mode = iota
	// ModeRegister is the sign-up form: username, email, password, confirm.
	ModeRegister
)

// SubmitFunc performs the auth call and resolves to a ResultMsg. For
// ModeLogin the email argument is empty.
type SubmitFunc func(mode Mode, username, email, password string) tea.Cmd

// ResultMsg reports the outcome of a submitted form.
type ResultMsg struct {
	Mode Mode
	Err  error
}

// Form field indexes. Login uses the first two, register all four.
const (
	fieldUsername = iota
	fieldEmail
	fieldPassword
	fieldConfirm
	fieldCount
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the login/register screen state.
type Model struct {
	mode   Mode
	inputs [fieldCount]textinput.Model
	focus  int

	errText string
	busy    bool
	spin    components.Spinner

	submit SubmitFunc

	width  int
	height int
}

// New creates the screen in login mode.
func New(submit SubmitFunc) Model {
	m := Model{
		submit: submit,
		spin:   components.NewSpinner("signing in"),
	}

	labels := [fieldCount]string{"username or email", "email", "password", "confirm password"}
	for i := range m.inputs {
		in := textinput.New()
		in.Placeholder = labels[i]
		in.CharLimit = 128
		m.inputs[i] = in
	}
	m.inputs[fieldPassword].EchoMode = textinput.EchoPassword
	m.inputs[fieldConfirm].EchoMode = textinput.EchoPassword

	m.inputs[fieldUsername].Focus()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Mode returns the active form.
func (m Model) Mode() Mode {
	return m.mode
}

// fields returns the active field indexes for the current mode.
func (m Model) fields() []int {
	if m.mode == ModeLogin {
		return []int{fieldUsername, fieldPassword}
	}
	return []int{fieldUsername, fieldEmail, fieldPassword, fieldConfirm}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ResultMsg:
		m.busy = false
		m.spin.Stop()
		if msg.Err != nil {
			m.errText = msg.Err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		if m.busy {
			// The in-flight attempt resolves first; only the spinner animates.
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			m.cycleFocus(1)
			return m, nil
		case "shift+tab", "up":
			m.cycleFocus(-1)
			return m, nil
		case "ctrl+t":
			m.toggleMode()
			return m, nil
		case "enter":
			return m.handleSubmit()
		}
	}

	return m.updateFocused(msg)
}

// updateFocused forwards the message to the focused input and advances the
// spinner.
func (m Model) updateFocused(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	if cmd := m.spin.Update(msg); cmd != nil {
		cmds = append(cmds, cmd)
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if cmd != nil {
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// cycleFocus moves focus by delta through the active fields.
func (m *Model) cycleFocus(delta int) {
	fields := m.fields()
	pos := 0
	for i, f := range fields {
		if f == m.focus {
			pos = i
			break
		}
	}
	pos = (pos + delta + len(fields)) % len(fields)

	m.inputs[m.focus].Blur()
	m.focus = fields[pos]
	m.inputs[m.focus].Focus()
}

// toggleMode switches between the sign-in and sign-up forms, clearing any
// error and the password fields.
func (m *Model) toggleMode() {
	if m.mode == ModeLogin {
		m.mode = ModeRegister
		m.spin = components.NewSpinner("creating account")
	} else {
		m.mode = ModeLogin
		m.spin = components.NewSpinner("signing in")
	}
	m.errText = ""
	m.inputs[fieldPassword].SetValue("")
	m.inputs[fieldConfirm].SetValue("")

	m.inputs[m.focus].Blur()
	m.focus = fieldUsername
	m.inputs[m.focus].Focus()
}

// handleSubmit validates locally and fires the auth command.
func (m Model) handleSubmit() (Model, tea.Cmd) {
	username := strings.TrimSpace(m.inputs[fieldUsername].Value())
	email := strings.TrimSpace(m.inputs[fieldEmail].Value())
	password := m.inputs[fieldPassword].Value()
	confirm := m.inputs[fieldConfirm].Value()

	if errText := m.validate(username, email, password, confirm); errText != "" {
		m.errText = errText
		return m, nil
	}

	m.errText = ""
	m.busy = true
	return m, tea.Batch(m.spin.Start(), m.submit(m.mode, username, email, password))
}

// validate runs the client-side checks; server-side rules still apply.
func (m Model) validate(username, email, password, confirm string) string {
	if username == "" {
		return "username is required"
	}
	if password == "" {
		return "password is required"
	}
	if m.mode == ModeRegister {
		if email == "" || !strings.Contains(email, "@") {
			return "a valid email is required"
		}
		if password != confirm {
			return "passwords do not match"
		}
	}
	return ""
}
