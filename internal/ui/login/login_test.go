// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package login

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

type submitCall struct {
	mode     Mode
	username string
	email    string
	password string
}

func recordingSubmit(calls *[]submitCall) SubmitFunc {
	return func(mode Mode, username, email, password string) tea.Cmd {
		*calls = append(*calls, submitCall{mode, username, email, password})
		return nil
	}
}

func typeInto(m Model, s string) Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func press(m Model, key string) (Model, tea.Cmd) {
	switch key {
	case "tab":
		return m.Update(tea.KeyMsg{Type: tea.KeyTab})
	case "enter":
		return m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	case "ctrl+t":
		return m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	}
	return m, nil
}

func TestSubmit_LoginHappyPath(t *testing.T) {
	var calls []submitCall
	m := New(recordingSubmit(&calls))

	m = typeInto(m, "alice")
	m, _ = press(m, "tab")
	m = typeInto(m, "secret")
	m, cmd := press(m, "enter")

	if cmd != nil {
		cmd()
	}
	if len(calls) != 1 {
		t.Fatalf("submit calls = %d, want 1", len(calls))
	}
	got := calls[0]
	if got.mode != ModeLogin || got.username != "alice" || got.password != "secret" {
		t.Errorf("unexpected submit: %+v", got)
	}
	if got.email != "" {
		t.Errorf("login must not carry an email, got %q", got.email)
	}
}

func TestSubmit_EmptyFieldsBlocked(t *testing.T) {
	var calls []submitCall
	m := New(recordingSubmit(&calls))

	m, cmd := press(m, "enter")
	if cmd != nil {
		cmd()
	}
	if len(calls) != 0 {
		t.Fatal("empty form must not be submitted")
	}
	if !strings.Contains(m.View(), "username is required") {
		t.Error("validation error not shown")
	}
}

func TestSubmit_RegisterValidation(t *testing.T) {
	var calls []submitCall
	m := New(recordingSubmit(&calls))
	m, _ = press(m, "ctrl+t")
	if m.Mode() != ModeRegister {
		t.Fatal("ctrl+t did not switch to register")
	}

	m = typeInto(m, "bob")
	m, _ = press(m, "tab")
	m = typeInto(m, "not-an-email")
	m, _ = press(m, "tab")
	m = typeInto(m, "pw")
	m, _ = press(m, "tab")
	m = typeInto(m, "pw")

	m, _ = press(m, "enter")
	if len(calls) != 0 {
		t.Fatal("invalid email must not be submitted")
	}
	if !strings.Contains(m.View(), "valid email") {
		t.Error("email validation error not shown")
	}
}

func TestSubmit_RegisterPasswordMismatch(t *testing.T) {
	var calls []submitCall
	m := New(recordingSubmit(&calls))
	m, _ = press(m, "ctrl+t")

	m = typeInto(m, "bob")
	m, _ = press(m, "tab")
	m = typeInto(m, "bob@example.com")
	m, _ = press(m, "tab")
	m = typeInto(m, "one")
	m, _ = press(m, "tab")
	m = typeInto(m, "two")

	m, _ = press(m, "enter")
	if len(calls) != 0 {
		t.Fatal("mismatched passwords must not be submitted")
	}
	if !strings.Contains(m.View(), "do not match") {
		t.Error("mismatch error not shown")
	}
}

func TestResult_ErrorShownAndFormUsableAgain(t *testing.T) {
	var calls []submitCall
	m := New(recordingSubmit(&calls))

	m = typeInto(m, "alice")
	m, _ = press(m, "tab")
	m = typeInto(m, "wrong")
	m, _ = press(m, "enter")

	m, _ = m.Update(ResultMsg{Mode: ModeLogin, Err: errors.New("Invalid credentials")})
	if !strings.Contains(m.View(), "Invalid credentials") {
		t.Error("server rejection not shown")
	}

	// The form accepts another attempt.
	m, _ = press(m, "enter")
	if len(calls) != 2 {
		t.Errorf("submit calls = %d, want 2", len(calls))
	}
}

func TestToggleMode_ClearsPasswordsAndError(t *testing.T) {
	m := New(nil)
	m = typeInto(m, "alice")
	m, _ = press(m, "tab")
	m = typeInto(m, "secret")
	m, _ = m.Update(ResultMsg{Err: errors.New("nope")})

	m, _ = press(m, "ctrl+t")
	view := m.View()
	if strings.Contains(view, "nope") {
		t.Error("error survived mode switch")
	}
	if m.inputs[fieldPassword].Value() != "" {
		t.Error("password survived mode switch")
	}
	if m.inputs[fieldUsername].Value() != "alice" {
		t.Error("username should survive mode switch")
	}
}
