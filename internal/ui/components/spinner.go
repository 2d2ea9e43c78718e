// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/morganforge/tidings/internal/ui/styles"
)

// Spinner is the loading indicator for in-flight fetches. ASCII frames only,
// for maximum terminal compatibility.
type Spinner struct {
	inner   spinner.Model
	message string
	active  bool
}

// NewSpinner creates an inactive spinner with the given label.
func NewSpinner(message string) Spinner {
	s := spinner.New()
	s.Spinner = spinner.Spinner{
		Frames: []string{"|", "/", "-", "\\"},
		FPS:    time.Second / 10,
	}
	s.Style = lipgloss.NewStyle().Foreground(styles.Cyan)
	return Spinner{inner: s, message: message}
}

// Start activates the spinner and returns its tick command.
func (s *Spinner) Start() tea.Cmd {
	s.active = true
	return s.inner.Tick
}

// Tick returns the command scheduling the next animation frame. For models
// that activate the spinner at construction time and emit the first tick
// from Init.
func (s Spinner) Tick() tea.Cmd {
	return s.inner.Tick
}

// Stop deactivates the spinner.
func (s *Spinner) Stop() {
	s.active = false
}

// Active reports whether the spinner is running.
func (s Spinner) Active() bool {
	return s.active
}

// Update advances the animation. Tick messages while inactive are dropped so
// a stopped spinner does not keep scheduling frames.
func (s *Spinner) Update(msg tea.Msg) tea.Cmd {
	if !s.active {
		return nil
	}
	var cmd tea.Cmd
	s.inner, cmd = s.inner.Update(msg)
	return cmd
}

// View renders the spinner frame and label, empty when inactive.
func (s Spinner) View() string {
	if !s.active {
		return ""
	}
	return s.inner.View() + " " + styles.Hint.Render(s.message)
}
