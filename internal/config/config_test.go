// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/moly-tui/internal/provider"
	"github.com/jeranaias/moly-tui/internal/view"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"MOLY_LOG_LEVEL", "MOLY_DATA_DIR", "MOLY_OLLAMA_URL", "OPENAI_API_KEY", "ACME_API_KEY"} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, DefaultLogLevel, cfg.LogLevel)
	require.Equal(t, 15*time.Second, cfg.FetchTimeout())
	require.Equal(t, 5*time.Minute, cfg.RefreshInterval())
	require.Equal(t, view.Chat, cfg.StartupViewID())
	require.Len(t, cfg.Providers, len(provider.Supported()))
	require.NoError(t, cfg.Validate())
}

func TestLoadFromPath_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromPath(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)
	require.Len(t, cfg.Providers, len(provider.Supported()))
	for i, d := range provider.Supported() {
		require.Equal(t, d.ID, cfg.Providers[i].ID)
		require.Equal(t, d.Endpoint, cfg.Providers[i].Endpoint)
	}
}

func TestLoadFromPath_MergesSupportedProviders(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
log_level = "debug"
refresh_interval = 0
startup_view = "models"

[[providers]]
id = "ollama"
enabled = false

[[providers]]
id = "acme"
name = "Acme"
endpoint = "https://llm.acme.test/v1"
api_key = "sk-acme"
`)

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Zero(t, cfg.RefreshInterval())
	require.Equal(t, view.Models, cfg.StartupViewID())

	ds := cfg.Descriptors()
	require.Equal(t, "ollama", ds[0].ID)
	require.False(t, ds[0].Enabled)
	require.Equal(t, provider.KindOllama, ds[0].Kind)
	require.Equal(t, provider.DefaultOllamaURL, ds[0].Endpoint)

	require.Equal(t, "acme", ds[1].ID)
	require.Equal(t, provider.KindOpenAI, ds[1].Kind)
	require.True(t, ds[1].Enabled)
	require.True(t, ds[1].HasCredentials())

	// The remaining supported providers follow, in supported order.
	require.Len(t, ds, len(provider.Supported())+1)
	require.Equal(t, "openai", ds[2].ID)
}

func TestLoadFromPath_UnknownKey(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "fetch_timeout = 10\nbogus = true\n")

	_, err := LoadFromPath(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "bogus")
}

func TestLoadFromPath_FixesPermissions(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "fetch_timeout = 10\n")
	require.NoError(t, os.Chmod(path, 0644))

	_, err := LoadFromPath(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	if perm := info.Mode().Perm(); perm != 0600 && perm != 0666 { // 0666 on Windows
		t.Errorf("Permissions = %o, want 0600", perm)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MOLY_LOG_LEVEL", "warn")
	t.Setenv("MOLY_DATA_DIR", "/tmp/moly-data")
	t.Setenv("MOLY_OLLAMA_URL", "http://10.0.0.5:11434")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	require.Equal(t, "warn", cfg.LogLevel)
	require.Equal(t, "/tmp/moly-data", cfg.DataDir)
	for _, d := range cfg.Descriptors() {
		switch d.ID {
		case "ollama":
			require.Equal(t, "http://10.0.0.5:11434", d.Endpoint)
		case "openai":
			require.Equal(t, "sk-env", d.APIKey)
		}
	}
}

func TestAPIKeyEnv(t *testing.T) {
	require.Equal(t, "OPENAI_API_KEY", APIKeyEnv("openai"))
	require.Equal(t, "MY_LAB_API_KEY", APIKeyEnv("my-lab"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"zero timeout", func(c *Config) { c.FetchTimeoutSecs = 0 }, "fetch_timeout"},
		{"huge timeout", func(c *Config) { c.FetchTimeoutSecs = 10000 }, "fetch_timeout"},
		{"negative refresh", func(c *Config) { c.RefreshIntervalSecs = -1 }, "refresh_interval"},
		{"bad view", func(c *Config) { c.StartupView = "inbox" }, "startup_view"},
		{"empty id", func(c *Config) { c.Providers[0].ID = "" }, "providers[0].id"},
		{"duplicate id", func(c *Config) { c.Providers[1].ID = c.Providers[0].ID }, "providers[openai]"},
		{"bad kind", func(c *Config) { c.Providers[0].Kind = "grpc" }, "providers[openai].kind"},
		{"bad scheme", func(c *Config) { c.Providers[0].Endpoint = "ftp://x" }, "providers[openai].endpoint"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			var errs ValidateErrors
			require.True(t, errors.As(err, &errs))
			var fields []string
			for _, e := range errs {
				fields = append(fields, e.Field)
			}
			require.Contains(t, fields, tc.field)
		})
	}
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := Default()
	cfg.LogLevel = "debug"
	ds := cfg.Descriptors()
	ds[0].APIKey = "sk-saved"
	ds[3].Enabled = false
	cfg.SetProviders(ds)

	require.NoError(t, cfg.SaveTOML(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	if perm := info.Mode().Perm(); perm != 0600 && perm != 0666 {
		t.Errorf("Permissions = %o, want 0600", perm)
	}

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	require.Equal(t, "debug", loaded.LogLevel)
	require.Equal(t, ds, loaded.Descriptors())
}

func TestDiffProviders(t *testing.T) {
	prev := Default().Descriptors()
	next := Default().Descriptors()
	next[0].APIKey = "sk-new"
	next = append(next[:2], next[3:]...) // drop gemini
	next = append(next, provider.Descriptor{ID: "acme", Kind: provider.KindOpenAI, Endpoint: "https://x.test", Enabled: true})

	upserts, removed := DiffProviders(prev, next)

	var ids []string
	for _, d := range upserts {
		ids = append(ids, d.ID)
	}
	require.Equal(t, []string{"openai", "acme"}, ids)
	require.Equal(t, []string{"gemini"}, removed)

	upserts, removed = DiffProviders(prev, prev)
	require.Empty(t, upserts)
	require.Empty(t, removed)
}

func TestClone_Independent(t *testing.T) {
	cfg := Default()
	off := false
	cfg.Providers[0].Enabled = &off

	clone := cfg.Clone()
	*clone.Providers[0].Enabled = true
	clone.Providers[1].Name = "changed"

	require.False(t, *cfg.Providers[0].Enabled)
	require.NotEqual(t, "changed", cfg.Providers[1].Name)
}

func TestResolvedDataDir(t *testing.T) {
	t.Setenv("MOLY_HOME", "/opt/moly")

	cfg := Default()
	dir, err := cfg.ResolvedDataDir()
	require.NoError(t, err)
	require.Equal(t, "/opt/moly", dir)

	cfg.DataDir = "/srv/data"
	dir, err = cfg.ResolvedDataDir()
	require.NoError(t, err)
	require.Equal(t, "/srv/data", dir)
	require.Equal(t, filepath.Join("/srv/data", "logs", "moly.log"), LogPath(dir))
}
