// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package router routes chat turns and model listings to provider clients.
//
// The Router holds the active provider and its model table. Changing the
// provider resets the table, so callers that must keep the table intact go
// through aggregate.Aggregator.SwitchActiveProvider, which re-applies it.
//
// Clients are built per descriptor: KindOllama uses the native Ollama API,
// every other kind the OpenAI-compatible API.
package router
