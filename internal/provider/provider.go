// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"strings"
)

// =============================================================================
// KIND AND STATUS
// =============================================================================

// Kind selects the wire protocol spoken by a provider.
type Kind string

const (
	// KindOpenAI is any OpenAI-compatible API (/models, /chat/completions).
	KindOpenAI Kind = "openai"

	// KindOllama is the native Ollama API (/api/tags, /api/chat).
	KindOllama Kind = "ollama"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k == KindOpenAI || k == KindOllama
}

// Status is the connection status of a provider.
type Status int

const (
	StatusNotConnected Status = iota
	StatusConnecting
	StatusConnected
	// StatusDegraded means the last fetch failed; prior models are retained.
	StatusDegraded
	// StatusUnconfigured means credentials are missing and the provider is skipped.
	StatusUnconfigured
)

// String returns the display name of the status.
func (s Status) String() string {
	switch s {
	case StatusNotConnected:
		return "not connected"
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusDegraded:
		return "degraded"
	case StatusUnconfigured:
		return "unconfigured"
	default:
		return "unknown"
	}
}

// =============================================================================
// MODEL REFERENCE
// =============================================================================

// ModelRef identifies a model within a provider.
type ModelRef struct {
	ProviderID string `json:"provider_id"`
	ModelID    string `json:"model_id"`
}

// IsZero reports whether the reference is empty.
func (r ModelRef) IsZero() bool {
	return r.ProviderID == "" && r.ModelID == ""
}

// String returns "provider/model".
func (r ModelRef) String() string {
	if r.IsZero() {
		return ""
	}
	return r.ProviderID + "/" + r.ModelID
}

// BareModelID strips the "models/" prefix some providers (Gemini) put on ids.
func (r ModelRef) BareModelID() string {
	return strings.TrimPrefix(r.ModelID, "models/")
}

// =============================================================================
// DESCRIPTOR
// =============================================================================

// Descriptor describes one configured provider.
type Descriptor struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     Kind   `json:"kind"`
	Endpoint string `json:"endpoint"`
	APIKey   string `json:"-"`
	Enabled  bool   `json:"enabled"`

	// Status and StatusDetail are runtime state, never persisted.
	Status       Status `json:"-"`
	StatusDetail string `json:"-"`

	// Generation increments on every upsert. Fetch results carry the
	// generation they were started against so late results can be detected.
	Generation uint64 `json:"-"`
}

// DisplayName returns Name, or the id if no name is set.
func (d Descriptor) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.ID
}

// HasCredentials reports whether the provider can be queried.
// Local Ollama needs no key.
func (d Descriptor) HasCredentials() bool {
	if d.Kind == KindOllama {
		return true
	}
	return strings.TrimSpace(d.APIKey) != ""
}

// Fetchable reports whether a model refresh should query this provider.
func (d Descriptor) Fetchable() bool {
	return d.Enabled && d.HasCredentials() && d.Endpoint != ""
}

// SameConnection reports whether two descriptors reach the same backend the
// same way. Status and generation are ignored.
func (d Descriptor) SameConnection(o Descriptor) bool {
	return d.ID == o.ID &&
		d.Name == o.Name &&
		d.Kind == o.Kind &&
		d.Endpoint == o.Endpoint &&
		d.APIKey == o.APIKey &&
		d.Enabled == o.Enabled
}

// =============================================================================
// CAPABILITY QUERY
// =============================================================================

// Fetcher lists the model ids a provider offers, in the provider's order.
// Retry and backoff are the implementation's concern.
type Fetcher interface {
	ListModels(ctx context.Context, d Descriptor) ([]string, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, d Descriptor) ([]string, error)

// ListModels calls f.
func (f FetcherFunc) ListModels(ctx context.Context, d Descriptor) ([]string, error) {
	return f(ctx, d)
}
