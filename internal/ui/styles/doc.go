// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the moly TUI.
//
// Two palettes exist, light and dark, selected by the user's theme
// preference rather than by terminal detection. The terminal color profile
// is still detected with termenv so colors degrade on limited terminals.
//
// # Usage
//
//	theme := styles.NewTheme(styles.Dark)
//	fmt.Println(theme.TabActive.Render("Chat"))
//
// Status indicators pair every color with an ASCII shape so states remain
// distinguishable without color.
package styles
