// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/moly-tui/internal/model"
	"github.com/jeranaias/moly-tui/internal/provider"
	"github.com/jeranaias/moly-tui/internal/ui/styles"
	"github.com/jeranaias/moly-tui/internal/view"
)

func newTheme(width int) *styles.Theme {
	t := styles.NewTheme(styles.Light)
	t.SetSize(width, 40)
	return t
}

// =============================================================================
// CURSOR TESTS
// =============================================================================

func TestCursor_Wraps(t *testing.T) {
	var c Cursor
	c.Up(3)
	assert.Equal(t, 2, c.Index)
	c.Down(3)
	assert.Equal(t, 0, c.Index)

	c.Up(0)
	c.Down(0)
	assert.Equal(t, 0, c.Index, "empty lists leave the cursor alone")
}

func TestCursor_Clamp(t *testing.T) {
	c := Cursor{Index: 7}
	c.Clamp(3)
	assert.Equal(t, 2, c.Index)

	c.Clamp(0)
	assert.Equal(t, 0, c.Index)
}

func TestCursor_Window(t *testing.T) {
	tests := []struct {
		name        string
		index, n, h int
		start, end  int
	}{
		{"fits", 1, 3, 10, 0, 3},
		{"no height", 4, 9, 0, 0, 9},
		{"top", 0, 20, 5, 0, 5},
		{"middle", 10, 20, 5, 8, 13},
		{"bottom", 19, 20, 5, 15, 20},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := Cursor{Index: tc.index}
			start, end := c.Window(tc.n, tc.h)
			assert.Equal(t, tc.start, start)
			assert.Equal(t, tc.end, end)
		})
	}
}

// =============================================================================
// HEADER TESTS
// =============================================================================

func TestHeader_ListsEveryView(t *testing.T) {
	h := NewHeader(newTheme(120))
	h.SetWidth(120)
	h.SetActive(view.Models)

	out := h.View()
	assert.Contains(t, out, "moly")
	for _, v := range view.All() {
		assert.Contains(t, out, v.Title())
	}
}

func TestHeader_NarrowUsesInitials(t *testing.T) {
	h := NewHeader(newTheme(40))
	h.SetWidth(40)

	out := h.View()
	assert.NotContains(t, out, view.Settings.Title())
	assert.Contains(t, out, "moly")
}

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestStatus_StringAndIcon(t *testing.T) {
	seen := map[string]bool{}
	for _, s := range []Status{StatusReady, StatusStreaming, StatusLoading, StatusError} {
		assert.NotEqual(t, "Unknown", s.String())
		assert.False(t, seen[s.Icon()], "icons are distinct")
		seen[s.Icon()] = true
	}
	assert.Equal(t, "Unknown", Status(42).String())
}

func TestStatusBar_ShowsRouteAndNotice(t *testing.T) {
	sb := NewStatusBar(newTheme(120))
	sb.SetWidth(120)
	sb.Provider = "Ollama"
	sb.Model = provider.ModelRef{ProviderID: "ollama", ModelID: "llama3"}
	sb.SetError("provider \"x\" not found")

	out := sb.View()
	assert.Contains(t, out, "Ollama | llama3")
	assert.Contains(t, out, "not found")
	assert.True(t, sb.IsError)

	sb.SetNotice("12 models")
	assert.False(t, sb.IsError)
	sb.ClearNotice()
	assert.Empty(t, sb.Notice)
	assert.Contains(t, sb.View(), "Ready")
}

func TestStatusBar_NoProvider(t *testing.T) {
	sb := NewStatusBar(newTheme(80))
	assert.Contains(t, sb.View(), "no provider")
}

func TestStatusBar_DropsHintsWhenCrowded(t *testing.T) {
	sb := NewStatusBar(newTheme(70))
	sb.SetWidth(70)
	sb.Shortcuts = []key.Binding{
		key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("Ctrl+R", "refresh models")),
	}

	assert.Contains(t, sb.View(), "refresh models")

	sb.SetNotice(strings.Repeat("long notice ", 10))
	out := sb.View()
	assert.NotContains(t, out, "refresh models")
	assert.LessOrEqual(t, lipgloss.Width(out), 70)
}

// =============================================================================
// SIDEBAR TESTS
// =============================================================================

func conversations(titles ...string) []*model.Conversation {
	out := make([]*model.Conversation, 0, len(titles))
	for i, title := range titles {
		c := model.NewConversation(string(rune('a'+i)), provider.ModelRef{})
		c.SetTitle(title)
		out = append(out, c)
	}
	return out
}

func TestSidebar_CursorFollowsCurrent(t *testing.T) {
	s := NewSidebar(newTheme(120))
	s.Height = 10
	s.SetItems(conversations("first", "second", "third"), "b")

	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, "b", sel.ID)

	out := s.View()
	assert.Contains(t, out, "Chats")
	assert.Contains(t, out, "> second")
	assert.Contains(t, out, "third")
}

func TestSidebar_Empty(t *testing.T) {
	s := NewSidebar(newTheme(120))
	s.SetItems(nil, "")

	_, ok := s.Selected()
	assert.False(t, ok)
	assert.Contains(t, s.View(), "No chats yet")
}

func TestSidebar_ShrinkingListClampsCursor(t *testing.T) {
	s := NewSidebar(newTheme(120))
	s.SetItems(conversations("a", "b", "c"), "c")
	s.SetItems(conversations("a"), "gone")

	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, "a", sel.ID)
}

// =============================================================================
// MARKDOWN TESTS
// =============================================================================

func TestMarkdown_RendersAndCaches(t *testing.T) {
	md := NewMarkdown()

	out := md.Render("# Title\n\nsome **bold** text", styles.Light, 60)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "bold")
	assert.NotContains(t, out, "**")

	first := md.renderer
	md.Render("again", styles.Light, 60)
	assert.Same(t, first, md.renderer, "same mode and width reuse the renderer")

	md.Render("again", styles.Dark, 60)
	assert.NotSame(t, first, md.renderer)
}
