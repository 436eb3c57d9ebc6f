// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root Bubble Tea model of the moly TUI.
//
// The Update loop is the only caller of store.Apply. Everything that runs
// elsewhere (model fetches, streamed replies, config file reloads) reports
// back as a tea.Msg, and the loop turns it into an action.
//
// Four panels share the screen: Chat, Models, Settings and Mcp. Exactly one
// is visible. When a panel becomes visible it drops whatever it cached and
// re-reads the current store snapshot; a hidden panel is detached and never
// refreshed.
package app
