// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/moly-tui/internal/config"
	"github.com/jeranaias/moly-tui/internal/export"
	"github.com/jeranaias/moly-tui/internal/model"
	"github.com/jeranaias/moly-tui/internal/provider"
	"github.com/jeranaias/moly-tui/internal/storage"
)

// =============================================================================
// HELPERS
// =============================================================================

// isolate points MOLY_HOME at a temp dir with a config naming one Ollama
// provider served by endpoint.
func isolate(t *testing.T, endpoint string) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("MOLY_HOME", home)
	for _, key := range []string{"MOLY_LOG_LEVEL", "MOLY_DATA_DIR", "MOLY_OLLAMA_URL"} {
		t.Setenv(key, "")
	}
	for _, d := range provider.Supported() {
		t.Setenv(config.APIKeyEnv(d.ID), "")
	}

	body := `startup_view = "models"
refresh_interval = 0

[[providers]]
id = "ollama"
endpoint = "` + endpoint + `"
`
	require.NoError(t, os.WriteFile(filepath.Join(home, config.FileName), []byte(body), 0600))
	return home
}

func fakeOllama(t *testing.T, names ...string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		models := make([]map[string]string, 0, len(names))
		for _, n := range names {
			models = append(models, map[string]string{"name": n})
		}
		json.NewEncoder(w).Encode(map[string]any{"models": models})
	}))
	t.Cleanup(server.Close)
	return server
}

// run executes the command tree and decodes the --json envelope.
func run(t *testing.T, data any, args ...string) error {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetArgs(append(args, "--json"))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()

	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *string         `json:"error"`
	}
	if out.Len() > 0 {
		require.NoError(t, json.Unmarshal(out.Bytes(), &resp), out.String())
		if data != nil && resp.Success {
			require.NoError(t, json.Unmarshal(resp.Data, data))
		}
	}
	return err
}

// =============================================================================
// COMMAND TESTS
// =============================================================================

func TestVersion(t *testing.T) {
	var info versionInfo
	require.NoError(t, run(t, &info, "version"))
	require.Equal(t, Version, info.Version)
	require.NotEmpty(t, info.GoVersion)
}

func TestProviders(t *testing.T) {
	server := fakeOllama(t)
	isolate(t, server.URL)

	var rows []providerRow
	require.NoError(t, run(t, &rows, "providers"))

	require.Len(t, rows, len(provider.Supported()))
	require.Equal(t, "ollama", rows[0].ID)
	require.Equal(t, server.URL, rows[0].Endpoint)
	require.Equal(t, "enabled", rows[0].State)
	for _, r := range rows[1:] {
		require.Equal(t, "unconfigured", r.State, r.ID)
	}
}

func TestModels_RefreshPersistsCatalog(t *testing.T) {
	server := fakeOllama(t, "llama3", "mistral")
	isolate(t, server.URL)

	var report modelsReport
	require.NoError(t, run(t, &report, "models"))
	require.Empty(t, report.Models, "nothing known before the first refresh")

	require.NoError(t, run(t, &report, "models", "--refresh"))
	require.Empty(t, report.Errors)
	require.Equal(t, []modelRow{
		{Provider: "ollama", Model: "llama3", Name: "Llama 3", Capabilities: "General purpose"},
		{Provider: "ollama", Model: "mistral", Name: "Mistral", Capabilities: "Extended context"},
	}, report.Models)

	// A later run restores the catalog without contacting the provider.
	server.Close()
	report = modelsReport{}
	require.NoError(t, run(t, &report, "models"))
	require.Len(t, report.Models, 2)
}

func TestModels_RefreshReportsUnreachable(t *testing.T) {
	server := fakeOllama(t)
	isolate(t, server.URL)
	server.Close()

	var report modelsReport
	require.NoError(t, run(t, &report, "models", "--refresh"))
	require.Contains(t, report.Errors, "ollama")
	require.Empty(t, report.Models)
}

func TestPrefs_UsesStartupView(t *testing.T) {
	isolate(t, "http://127.0.0.1:1")

	var p struct {
		Theme      string `json:"theme"`
		ActiveView string `json:"active_view"`
	}
	require.NoError(t, run(t, &p, "prefs"))
	require.Equal(t, "light", p.Theme)
	require.Equal(t, "models", p.ActiveView)
}

func TestChats_Empty(t *testing.T) {
	isolate(t, "http://127.0.0.1:1")

	var metas []map[string]any
	require.NoError(t, run(t, &metas, "chats"))
	require.Empty(t, metas)
}

func TestChats_Export(t *testing.T) {
	home := isolate(t, "http://127.0.0.1:1")

	convs, err := storage.NewConversationStoreWithDir(config.ChatsDir(home))
	require.NoError(t, err)
	conv := model.NewConversation("", provider.ModelRef{ProviderID: "ollama", ModelID: "llama3"})
	conv.AddMessage(model.NewUserMessage("hello there"))
	require.NoError(t, convs.Save(conv))

	outDir := t.TempDir()
	var res exportResult
	require.NoError(t, run(t, &res, "chats", "export", conv.ID, "--format", "json", "-o", outDir))
	require.Equal(t, conv.ID, res.ID)
	require.Equal(t, outDir, filepath.Dir(res.Path))

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	var doc export.Document
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Equal(t, "hello there", doc.Conversation.Messages[0].Content)

	require.Error(t, run(t, nil, "chats", "export", "conv_missing", "-o", outDir))
	require.Error(t, run(t, nil, "chats", "export", conv.ID, "--format", "pdf", "-o", outDir))
}

func TestRoot_RequiresTerminal(t *testing.T) {
	isolate(t, "http://127.0.0.1:1")

	cmd := NewRootCommand()
	cmd.SetArgs(nil)
	cmd.SetOut(&bytes.Buffer{})
	if IsTTY() && IsStdoutTTY() {
		t.Skip("running in a terminal")
	}
	require.ErrorIs(t, cmd.Execute(), ErrNotTerminal)
}

func TestBadConfigFails(t *testing.T) {
	home := isolate(t, "http://127.0.0.1:1")
	require.NoError(t, os.WriteFile(filepath.Join(home, config.FileName), []byte("log_level = [\n"), 0600))

	require.Error(t, run(t, nil, "providers"))
}

func TestSaveProviders_KeepsEnvKeysOffDisk(t *testing.T) {
	home := isolate(t, "http://127.0.0.1:1")
	t.Setenv("OPENAI_API_KEY", "sk-from-env")

	e, err := bootstrap(t.Context(), &globalFlags{})
	require.NoError(t, err)
	defer e.Close()

	snap := e.store.Snapshot()
	openai, ok := snap.Provider("openai")
	require.True(t, ok)
	require.Equal(t, "sk-from-env", openai.APIKey)

	require.NoError(t, e.saveProviders(snap.Providers))
	data, err := os.ReadFile(filepath.Join(home, config.FileName))
	require.NoError(t, err)
	require.NotContains(t, string(data), "sk-from-env")
	require.Contains(t, string(data), `startup_view = "models"`)
}
