// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the reusable pieces of the moly TUI.

Components are plain structs with a View method. They hold no application
state of their own; the owning panel copies what they show out of a store
snapshot when it re-acquires.

# Components

Header (header.go) - Brand plus one tab per view, the visible view highlighted.
StatusBar (statusbar.go) - Status, active provider and model, the last notice and key hints.
Sidebar (sidebar.go) - Conversation list, most recent first.
Markdown (markdown.go) - Glamour renderer cached per theme mode and width.
Cursor (list.go) - Wrapping selection index with a scroll window.

# Theming

Every component takes a *styles.Theme and exposes SetTheme so a theme toggle
swaps the palette without rebuilding the component.
*/
package components
