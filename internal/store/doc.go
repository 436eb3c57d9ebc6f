// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds moly's shared application state.
//
// All mutation goes through Store.Apply with one of the actions defined in
// this package. Apply either fully applies an action and increments the
// revision by one, or fails and leaves state and revision untouched. Readers
// take an immutable Snapshot, which is safe to share across goroutines.
//
// # Single Writer
//
// The interactive event loop is the only caller of Apply. Background work
// (model fetches, streamed replies) never touches state directly: it
// delivers its outcome as an action. Fetch results carry the provider
// generation they were started against, so a result that arrives after its
// provider was removed, disabled or reconfigured is rejected with
// ErrStaleResult and discarded.
//
// # Persistence
//
// Preferences, conversations, the model catalog, provider settings and the
// MCP configuration are written through optional sinks after each
// successful action. Sink failures are logged and retried on the next
// successful action; they never fail Apply.
package store
