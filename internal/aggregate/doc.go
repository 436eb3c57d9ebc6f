// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package aggregate merges the model lists of every enabled provider into one
// ordered list and performs provider switches without losing it.
//
// # Ordering
//
// The aggregate is provider registration order, then the order each provider
// returned its models. Models are namespaced by provider, so two providers
// offering the same model id contribute two entries.
//
// # Partial failure
//
// A provider whose fetch fails keeps its last-known models and is marked
// degraded. Disabling a provider hides its models without forgetting them,
// so re-enabling restores the previous order.
//
// # Provider switch
//
// Switching the routing client resets its model table. SwitchActiveProvider
// snapshots the aggregate, switches, and re-applies the snapshot while
// holding a switch lock, so concurrent switches queue instead of interleaving.
package aggregate
