// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/jeranaias/moly-tui/internal/model"
	"github.com/jeranaias/moly-tui/internal/ui/styles"
	"github.com/jeranaias/moly-tui/internal/util"
)

// =============================================================================
// CONVERSATION SIDEBAR
// =============================================================================

// Sidebar lists conversations, most recent first.
type Sidebar struct {
	Items   []*model.Conversation
	Current string
	Cursor  Cursor
	Width   int
	Height  int
	theme   *styles.Theme
}

// NewSidebar creates a Sidebar.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{Width: 28, theme: theme}
}

// SetTheme swaps the theme after a preference change.
func (s *Sidebar) SetTheme(theme *styles.Theme) {
	s.theme = theme
}

// SetItems replaces the list and moves the cursor to the current
// conversation.
func (s *Sidebar) SetItems(items []*model.Conversation, current string) {
	s.Items = items
	s.Current = current
	for i, c := range items {
		if c.ID == current {
			s.Cursor.Index = i
			break
		}
	}
	s.Cursor.Clamp(len(items))
}

// Selected returns the conversation under the cursor.
func (s *Sidebar) Selected() (*model.Conversation, bool) {
	if len(s.Items) == 0 {
		return nil, false
	}
	s.Cursor.Clamp(len(s.Items))
	return s.Items[s.Cursor.Index], true
}

// View renders the sidebar.
func (s *Sidebar) View() string {
	t := s.theme
	inner := s.Width - 3
	if inner < 8 {
		inner = 8
	}

	var b strings.Builder
	b.WriteString(t.SidebarTitle.Render("Chats"))
	b.WriteString("\n")
	if len(s.Items) == 0 {
		b.WriteString(t.MutedStyle.Render("No chats yet"))
	}

	start, end := s.Cursor.Window(len(s.Items), s.Height-2)
	for i := start; i < end; i++ {
		c := s.Items[i]
		marker := "  "
		if c.ID == s.Current {
			marker = "> "
		}
		line := util.PadRight(util.TruncateWidth(marker+c.Title, inner), inner)
		if i == s.Cursor.Index {
			b.WriteString(t.SidebarItemSelected.Render(line))
		} else {
			b.WriteString(t.SidebarItem.Render(line))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	style := t.Sidebar.Width(s.Width)
	if s.Height > 0 {
		style = style.Height(s.Height)
	}
	return style.Render(b.String())
}
