// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/moly-tui/internal/ui/styles"
	"github.com/jeranaias/moly-tui/internal/view"
)

// =============================================================================
// HEADER COMPONENT - Brand plus one tab per view
// =============================================================================

// Header is the top bar listing the views with the visible one highlighted.
type Header struct {
	Title  string
	Active view.ID
	Width  int
	theme  *styles.Theme
}

// NewHeader creates a Header with Chat active.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title:  "moly",
		Active: view.Chat,
		Width:  80,
		theme:  theme,
	}
}

// SetTheme swaps the theme after a preference change.
func (h *Header) SetTheme(theme *styles.Theme) {
	h.theme = theme
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetActive highlights v.
func (h *Header) SetActive(v view.ID) {
	h.Active = v
}

// View renders the header.
func (h *Header) View() string {
	t := h.theme
	tabs := make([]string, 0, len(view.All()))
	for _, v := range view.All() {
		label := v.Title()
		if t.GetLayoutMode() == styles.LayoutNarrow {
			label = string([]rune(label)[:1])
		}
		if v == h.Active {
			tabs = append(tabs, t.TabActive.Render(label))
		} else {
			tabs = append(tabs, t.Tab.Render(label))
		}
	}

	brand := t.Brand.Render(h.Title)
	row := lipgloss.JoinHorizontal(lipgloss.Top, brand, strings.Join(tabs, ""))
	width := h.Width
	if width < lipgloss.Width(row) {
		width = lipgloss.Width(row)
	}
	return t.TabBar.Width(width).Render(row)
}
