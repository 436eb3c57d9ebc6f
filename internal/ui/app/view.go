// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	headerHeight = 2
	statusHeight = 1
)

// View implements tea.Model.
func (m *Model) View() string {
	width, height := m.bodySize()
	m.status.Status = m.statusFor(m.snap)

	body := m.panels[m.coord.Visible()].view(m, width, height)
	body = lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height).Render(body)

	parts := []string{m.header.View(), body}
	if m.showHelp {
		parts = append(parts, m.help.FullHelpView(m.keys.FullHelp()))
	}
	parts = append(parts, m.status.View())
	return m.theme.App.Render(strings.Join(parts, "\n"))
}

// bodySize returns the space left for the visible panel.
func (m *Model) bodySize() (int, int) {
	height := m.height - headerHeight - statusHeight
	if m.showHelp {
		height -= lipgloss.Height(m.help.FullHelpView(m.keys.FullHelp()))
	}
	return max(m.width, 20), max(height, 3)
}
