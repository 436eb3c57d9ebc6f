// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider holds the configured model providers.
//
// A provider is a remote (or local) service that offers a set of selectable
// models. The Registry keeps one Descriptor per provider in registration order;
// models are always addressed by a ModelRef pairing the provider id with the
// provider's own model id, so two providers may expose the same model name
// without colliding.
//
// # Key Types
//
//   - Descriptor: credentials, endpoint, enabled flag and connection status
//   - Registry: ordered mapping from provider id to Descriptor
//   - ModelRef: provider-namespaced model identifier
//   - Fetcher: the capability query ("given credentials, list the models")
//
// # Usage
//
//	reg := provider.NewRegistry()
//	reg.Upsert("ollama", provider.Descriptor{Kind: provider.KindOllama, Endpoint: "http://127.0.0.1:11434", Enabled: true})
//	for _, d := range reg.ListEnabled() {
//	    fmt.Println(d.ID, d.Status)
//	}
//
// Upserting a provider never fetches its models; that is the aggregator's job.
package provider
