// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mcp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_MissingIsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	require.True(t, cfg.Enabled)
	require.False(t, cfg.DangerousMode)
	require.Empty(t, cfg.Servers)
}

func TestLoad_KeepsOrderAndDefaultsEnabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	doc := `
servers:
  zeta:
    url: http://localhost:9000
    type: sse
  alpha:
    command: npx
    args: ["-y", "server"]
    enabled: false
  mid:
    url: http://localhost:8931
dangerous_mode_enabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Enabled)
	require.True(t, cfg.DangerousMode)
	require.Len(t, cfg.Servers, 3)

	ids := []string{cfg.Servers[0].ID, cfg.Servers[1].ID, cfg.Servers[2].ID}
	require.Equal(t, []string{"zeta", "alpha", "mid"}, ids)
	require.True(t, cfg.Servers[0].Enabled)
	require.False(t, cfg.Servers[1].Enabled)
	require.Equal(t, TransportSSE, cfg.Servers[0].Transport())
	require.Equal(t, TransportStdio, cfg.Servers[1].Transport())
	require.Equal(t, TransportHTTP, cfg.Servers[2].Transport())
	require.Equal(t, "npx -y server", cfg.Servers[1].Target())
}

func TestLoad_DuplicateServer(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("servers:\n  a:\n    url: x\n  a:\n    url: y\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)
	want := Sample()
	want.DangerousMode = true

	require.NoError(t, Save(path, want))
	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestSetServerEnabled(t *testing.T) {
	cfg := Sample()

	updated, err := cfg.SetServerEnabled("filesystem", true)
	require.NoError(t, err)
	require.Len(t, updated.EnabledServers(), 2)

	// The original is untouched.
	require.Len(t, cfg.EnabledServers(), 1)

	_, err = cfg.SetServerEnabled("ghost", true)
	require.ErrorIs(t, err, ErrServerNotFound)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Servers = ServerList{{ID: "empty"}, {ID: "odd", URL: "http://x", Type: "grpc"}}

	err := cfg.Validate()
	require.Error(t, err)
	require.Contains(t, err.Error(), `"empty"`)
	require.Contains(t, err.Error(), `unknown type "grpc"`)
	require.NoError(t, Sample().Validate())
}
