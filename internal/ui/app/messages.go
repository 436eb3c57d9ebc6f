// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/jeranaias/moly-tui/internal/aggregate"
	"github.com/jeranaias/moly-tui/internal/mcp"
	"github.com/jeranaias/moly-tui/internal/provider"
)

// =============================================================================
// WORKER MESSAGES
// =============================================================================

// modelsLoadedMsg carries fetch results from a refresh worker.
type modelsLoadedMsg struct {
	Results []aggregate.FetchResult

	// Full is set for a refresh of every provider, which clears the
	// refreshing flag.
	Full bool
}

// storeChangedMsg carries the revision signalled by the store.
type storeChangedMsg struct {
	Revision uint64
}

// refreshTickMsg triggers the periodic refresh.
type refreshTickMsg struct{}

// configChangedMsg reports that the config file was rewritten.
type configChangedMsg struct{}

// configLoadedMsg carries the providers re-read from the config file.
type configLoadedMsg struct {
	Providers []provider.Descriptor
	Err       error
}

// mcpChangedMsg reports that the MCP file was rewritten.
type mcpChangedMsg struct{}

// mcpLoadedMsg carries the MCP configuration re-read from disk.
type mcpLoadedMsg struct {
	Config mcp.Config
	Err    error
}
