// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings of the application.
type KeyMap struct {
	// Global
	NextView      key.Binding
	PrevView      key.Binding
	ChatView      key.Binding
	ModelsView    key.Binding
	SettingsView  key.Binding
	McpView       key.Binding
	ToggleTheme   key.Binding
	ToggleSidebar key.Binding
	Refresh       key.Binding
	Help          key.Binding
	Quit          key.Binding

	// Chat
	Submit     key.Binding
	Cancel     key.Binding
	NewChat    key.Binding
	PrevChat   key.Binding
	NextChat   key.Binding
	DeleteChat key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding

	// Lists
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Toggle key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextView: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "next view"),
		),
		PrevView: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-Tab", "prev view"),
		),
		ChatView: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "chat"),
		),
		ModelsView: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("F2", "models"),
		),
		SettingsView: key.NewBinding(
			key.WithKeys("f3"),
			key.WithHelp("F3", "settings"),
		),
		McpView: key.NewBinding(
			key.WithKeys("f4"),
			key.WithHelp("F4", "mcp"),
		),
		ToggleTheme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "theme"),
		),
		ToggleSidebar: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("C-b", "sidebar"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("C-r", "refresh models"),
		),
		Help: key.NewBinding(
			key.WithKeys("f12"),
			key.WithHelp("F12", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),

		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancel reply"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		PrevChat: key.NewBinding(
			key.WithKeys("ctrl+up", "alt+up"),
			key.WithHelp("C-up", "prev chat"),
		),
		NextChat: key.NewBinding(
			key.WithKeys("ctrl+down", "alt+down"),
			key.WithHelp("C-down", "next chat"),
		),
		DeleteChat: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "delete chat"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),

		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "select"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("Space", "toggle"),
		),
	}
}

// =============================================================================
// KEY BINDING HELPERS
// =============================================================================

// ShortHelp returns the bindings shown in the status bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextView, k.Refresh, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the help overlay, grouped.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		// Views
		{k.NextView, k.PrevView, k.ChatView, k.ModelsView, k.SettingsView, k.McpView},
		// Chat
		{k.Submit, k.Cancel, k.NewChat, k.PrevChat, k.NextChat, k.DeleteChat},
		// Lists
		{k.Up, k.Down, k.Select, k.Toggle},
		// Global
		{k.ToggleTheme, k.ToggleSidebar, k.Refresh, k.Help, k.Quit},
	}
}
