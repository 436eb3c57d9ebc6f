// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/moly-tui/internal/provider"
	"github.com/jeranaias/moly-tui/internal/ui/styles"
	"github.com/jeranaias/moly-tui/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents the current application status.
type Status int

const (
	StatusReady Status = iota
	StatusStreaming
	StatusLoading
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusStreaming:
		return "Streaming..."
	case StatusLoading:
		return "Loading..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns the shape for the status.
// ACCESSIBILITY: Uses distinct shapes alongside colors for colorblind users
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusStreaming:
		return "~"
	case StatusLoading:
		return styles.StatusIndicators.Pending
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return "?"
	}
}

// StatusBar is the bottom line: status, active provider and model, the last
// notice and key hints.
type StatusBar struct {
	Status    Status
	Provider  string
	Model     provider.ModelRef
	Notice    string
	IsError   bool
	Shortcuts []key.Binding
	Width     int
	theme     *styles.Theme
}

// NewStatusBar creates a StatusBar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Status: StatusReady, Width: 80, theme: theme}
}

// SetTheme swaps the theme after a preference change.
func (s *StatusBar) SetTheme(theme *styles.Theme) {
	s.theme = theme
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetNotice shows an informational message until the next notice.
func (s *StatusBar) SetNotice(msg string) {
	s.Notice = msg
	s.IsError = false
}

// SetError shows an error message until the next notice.
func (s *StatusBar) SetError(msg string) {
	s.Notice = msg
	s.IsError = true
}

// ClearNotice removes the message.
func (s *StatusBar) ClearNotice() {
	s.Notice = ""
	s.IsError = false
}

// View renders the status bar.
func (s *StatusBar) View() string {
	t := s.theme

	var left []string
	status := s.Status.Icon() + " " + s.Status.String()
	switch s.Status {
	case StatusError:
		left = append(left, t.ErrorStyle.Render(status))
	case StatusStreaming, StatusLoading:
		left = append(left, t.InfoStyle.Render(status))
	default:
		left = append(left, t.SuccessStyle.Render(status))
	}

	route := s.Provider
	if route == "" {
		route = "no provider"
	}
	if !s.Model.IsZero() {
		route += " | " + s.Model.BareModelID()
	}
	left = append(left, t.MutedStyle.Render(route))

	if s.Notice != "" {
		msg := util.SingleLine(s.Notice)
		if s.IsError {
			left = append(left, t.RenderError(msg))
		} else {
			left = append(left, t.RenderInfo(msg))
		}
	}

	var hints []string
	if t.GetLayoutMode() != styles.LayoutNarrow {
		for _, b := range s.Shortcuts {
			h := b.Help()
			hints = append(hints, t.ShortcutKey.Render(h.Key)+" "+t.ShortcutDesc.Render(h.Desc))
		}
	}

	leftStr := strings.Join(left, "  ")
	rightStr := strings.Join(hints, "  ")

	inner := s.Width - 2
	if inner < 10 {
		inner = 10
	}
	gap := inner - lipgloss.Width(leftStr) - lipgloss.Width(rightStr)
	if gap < 1 {
		// Hints go first when space runs out.
		rightStr = ""
		gap = inner - lipgloss.Width(leftStr)
		if gap < 0 {
			leftStr = lipgloss.NewStyle().MaxWidth(inner).Render(leftStr)
			gap = 0
		}
	}
	return t.StatusBar.Width(s.Width).Render(leftStr + strings.Repeat(" ", gap) + rightStr)
}
