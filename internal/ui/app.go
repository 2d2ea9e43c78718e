// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ui hosts the root Bubble Tea model. The root switches between the
// login screen and the chat screen; the session store decides which one is
// showing. Push channel wiring (token subscription, event injection) happens
// in main, not here.
package ui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/morganforge/tidings/internal/api"
	"github.com/morganforge/tidings/internal/push"
	"github.com/morganforge/tidings/internal/session"
	"github.com/morganforge/tidings/internal/ui/chat"
	"github.com/morganforge/tidings/internal/ui/login"
)

// authTimeout bounds a login or register attempt from the form.
const authTimeout = 30 * time.Second

// screen identifies the active top-level screen.
type screen int

const (
	screenLogin screen = iota
	screenChat
)

// App is the root model.
type App struct {
	store   *session.Store
	client  *api.Client
	adapter *push.Adapter
	log     *zap.Logger

	active screen
	login  login.Model
	chat   chat.Model

	width  int
	height int
}

// New creates the root model. A restored session skips the login screen.
func New(store *session.Store, client *api.Client, adapter *push.Adapter, log *zap.Logger) App {
	if log == nil {
		log = zap.NewNop()
	}
	app := App{
		store:   store,
		client:  client,
		adapter: adapter,
		log:     log,
	}
	app.login = login.New(app.submitAuth)

	if store.Ready() {
		app.active = screenChat
		app.chat = chat.New(client, adapter, store.User())
	}
	return app
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	if a.active == screenChat {
		return a.chat.Init()
	}
	return a.login.Init()
}

// submitAuth is the login screen's SubmitFunc: it drives the session store
// against the REST client and reports back as a ResultMsg.
func (a App) submitAuth(mode login.Mode, username, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
		defer cancel()

		var err error
		if mode == login.ModeLogin {
			err = a.store.Login(ctx, a.client, username, password)
		} else {
			err = a.store.Register(ctx, a.client, username, email, password)
		}
		return login.ResultMsg{Mode: mode, Err: err}
	}
}

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Both screens track the size so switching never renders stale.
		var loginCmd, chatCmd tea.Cmd
		a.login, loginCmd = a.login.Update(msg)
		if a.active == screenChat {
			a.chat, chatCmd = a.chat.Update(msg)
		}
		return a, tea.Batch(loginCmd, chatCmd)

	case login.ResultMsg:
		if msg.Err == nil && a.store.Ready() {
			return a.enterChat()
		}
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(msg)
		return a, cmd

	case chat.SessionExpiredMsg:
		a.log.Info("session expired, returning to login")
		a.store.Invalidate()
		return a.enterLogin(errors.New("session expired, sign in again"))

	case chat.LogoutRequestedMsg:
		a.store.Logout()
		return a.enterLogin(nil)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && a.active == screenLogin {
			return a, tea.Quit
		}
	}

	return a.forward(msg)
}

// forward routes a message to the active screen.
func (a App) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if a.active == screenChat {
		a.chat, cmd = a.chat.Update(msg)
	} else {
		a.login, cmd = a.login.Update(msg)
	}
	return a, cmd
}

// enterChat builds a fresh chat screen for the now-ready session.
func (a App) enterChat() (tea.Model, tea.Cmd) {
	a.active = screenChat
	a.chat = chat.New(a.client, a.adapter, a.store.User())

	cmds := []tea.Cmd{a.chat.Init()}
	if a.width > 0 {
		var cmd tea.Cmd
		a.chat, cmd = a.chat.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

// enterLogin returns to a fresh login screen, optionally explaining why.
func (a App) enterLogin(reason error) (tea.Model, tea.Cmd) {
	a.active = screenLogin
	a.login = login.New(a.submitAuth)

	cmds := []tea.Cmd{a.login.Init()}
	if a.width > 0 {
		var cmd tea.Cmd
		a.login, cmd = a.login.Update(tea.WindowSizeMsg{Width: a.width, Height: a.height})
		cmds = append(cmds, cmd)
	}
	if reason != nil {
		a.login, _ = a.login.Update(login.ResultMsg{Err: reason})
	}
	return a, tea.Batch(cmds...)
}

// View implements tea.Model.
func (a App) View() string {
	if a.active == screenChat {
		return a.chat.View()
	}
	return a.login.View()
}
