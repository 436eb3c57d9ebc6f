// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the chat view pieces of the TUI: key bindings, the
// transcript renderer and the stream runner.
//
// # Streaming
//
// A turn runs on its own goroutine. The runner never touches the store; it
// delivers StartTurn-relative actions (AppendDelta, CompleteTurn, FailTurn)
// to the program as TurnMsg values, and the event loop applies them. Deltas
// are batched by a StreamingBuffer so a fast model does not produce one
// store revision per token.
//
// # Key Bindings
//
//	Tab / Shift+Tab  next / previous view
//	F1..F4           chat, models, settings, mcp
//	Enter            send (chat) or select (lists)
//	Esc              cancel the streaming reply
//	Ctrl+N           new chat
//	Ctrl+B           toggle the sidebar
//	Ctrl+T           toggle light / dark theme
//	Ctrl+R           refresh models
//	Ctrl+C           quit
package chat
