// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func ids(ds []Descriptor) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.ID)
	}
	return out
}

func local(enabled bool) Descriptor {
	return Descriptor{Kind: KindOllama, Endpoint: DefaultOllamaURL, Enabled: enabled}
}

// =============================================================================
// REGISTRY TESTS
// =============================================================================

func TestRegistry_UpsertKeepsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Upsert("alpha", local(true))
	r.Upsert("beta", local(true))
	r.Upsert("gamma", local(false))

	// Re-upserting alpha must not move it to the end.
	r.Upsert("alpha", local(false))

	require.Equal(t, []string{"alpha", "beta", "gamma"}, ids(r.List()))
	require.Equal(t, []string{"beta"}, ids(r.ListEnabled()))
}

func TestRegistry_UpsertBumpsGeneration(t *testing.T) {
	r := NewRegistry()
	first := r.Upsert("alpha", local(true))
	second := r.Upsert("alpha", local(true))

	require.Equal(t, uint64(1), first.Generation)
	require.Equal(t, uint64(2), second.Generation)
	require.Equal(t, "alpha", second.ID)
}

func TestRegistry_UpsertStatus(t *testing.T) {
	r := NewRegistry()

	cloud := r.Upsert("openai", Descriptor{Kind: KindOpenAI, Endpoint: "https://api.openai.com/v1", Enabled: true})
	require.Equal(t, StatusUnconfigured, cloud.Status)
	require.False(t, cloud.Fetchable())

	keyed := r.Upsert("openai", Descriptor{Kind: KindOpenAI, Endpoint: "https://api.openai.com/v1", APIKey: "sk-test", Enabled: true})
	require.Equal(t, StatusNotConnected, keyed.Status)
	require.True(t, keyed.Fetchable())
}

func TestRegistry_RemoveThenReadd(t *testing.T) {
	r := NewRegistry()
	r.Upsert("alpha", local(true))
	r.Upsert("beta", local(true))

	require.NoError(t, r.Remove("alpha"))
	require.False(t, r.Has("alpha"))
	require.Equal(t, []string{"beta"}, ids(r.List()))

	// A removed provider comes back at the end.
	r.Upsert("alpha", local(true))
	require.Equal(t, []string{"beta", "alpha"}, ids(r.List()))
}

func TestRegistry_RemoveUnknown(t *testing.T) {
	r := NewRegistry()
	err := r.Remove("ghost")
	require.True(t, errors.Is(err, ErrNotFound))
}

func TestRegistry_SetStatus(t *testing.T) {
	r := NewRegistry()
	r.Upsert("alpha", local(true))

	require.NoError(t, r.SetStatus("alpha", StatusDegraded, "connection refused"))
	d, ok := r.Get("alpha")
	require.True(t, ok)
	require.Equal(t, StatusDegraded, d.Status)
	require.Equal(t, "connection refused", d.StatusDetail)

	require.ErrorIs(t, r.SetStatus("ghost", StatusConnected, ""), ErrNotFound)
}

func TestRegistry_CloneIsIndependent(t *testing.T) {
	r := NewRegistry()
	r.Upsert("alpha", local(true))

	c := r.Clone()
	c.Upsert("beta", local(true))
	require.NoError(t, c.SetStatus("alpha", StatusConnected, ""))

	require.Equal(t, 1, r.Len())
	d, _ := r.Get("alpha")
	require.Equal(t, StatusNotConnected, d.Status)
}

// =============================================================================
// MODEL REF TESTS
// =============================================================================

func TestModelRef(t *testing.T) {
	ref := ModelRef{ProviderID: "gemini", ModelID: "models/gemini-pro"}

	require.Equal(t, "gemini/models/gemini-pro", ref.String())
	require.Equal(t, "gemini-pro", ref.BareModelID())
	require.False(t, ref.IsZero())
	require.True(t, ModelRef{}.IsZero())
	require.Equal(t, "", ModelRef{}.String())
}

func TestSupported(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range Supported() {
		require.False(t, seen[d.ID], "duplicate supported provider %q", d.ID)
		seen[d.ID] = true
		require.True(t, d.Kind.Valid())
		require.NotEmpty(t, d.Endpoint)
	}
	require.True(t, seen["ollama"])
	require.True(t, seen["openai"])
}
