// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the moly command tree.
//
// Running moly with no arguments starts the TUI. The other commands read the
// same configuration and data directory without starting it:
//
//	moly                    Start the TUI
//	moly providers          List configured providers
//	moly models [--refresh] List last-known models, or fetch them now
//	moly prefs              Show stored preferences
//	moly chats              List saved conversations
//	moly chats export <id>  Write a conversation to Markdown or JSON
//	moly version            Show version information
//
// Every command accepts --json.
package cli
