// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the moly packages.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync and rename
//   - WriteJSON, ReadJSON: JSON documents on top of AtomicWriteFile
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis
//   - TruncateWidth, PadRight, StringWidth: terminal cell aware layout helpers
//   - SingleLine: collapse multi-line text for titles and previews
//
// # Usage
//
//	// Persist a document without ever exposing a half-written file
//	err := util.WriteJSON(path, prefs, 0644)
//
//	// Derive a display title
//	title := util.TruncateRunes(util.SingleLine(text), 50)
package util
