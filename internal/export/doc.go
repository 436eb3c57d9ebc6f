// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes saved conversations to Markdown or JSON.
//
//	exp, err := export.ForFormat("markdown", nil)
//	data, err := exp.Export(conv)
//
// ExportToFile picks a file name from the conversation title.
package export
