// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jeranaias/moly-tui/internal/model"
	"github.com/jeranaias/moly-tui/internal/provider"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func testOptions() *Options {
	opts := DefaultOptions()
	opts.now = func() time.Time { return fixedNow }
	return opts
}

func testConversation() *model.Conversation {
	ref := provider.ModelRef{ProviderID: "ollama", ModelID: "llama3"}
	created := fixedNow.Add(-time.Hour)
	return &model.Conversation{
		ID:         "conv_1",
		Title:      "Rust #lifetimes",
		CreatedAt:  created,
		UpdatedAt:  fixedNow,
		Model:      ref,
		ProviderID: "ollama",
		Messages: []model.Message{
			{ID: "m1", Role: model.RoleUser, Content: "What is a lifetime?", Timestamp: created, State: model.StateComplete},
			{ID: "m2", Role: model.RoleAssistant, Content: "A scope for a reference.", Timestamp: created, Model: ref, State: model.StateComplete},
			{ID: "m3", Role: model.RoleUser, Content: "More?", Timestamp: created, State: model.StateComplete},
			{ID: "m4", Role: model.RoleAssistant, Content: "partial", Timestamp: created, Model: ref, State: model.StateFailed, Error: "connection reset"},
		},
	}
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(testOptions()).Export(testConversation())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\n"))
	assert.Contains(t, md, "# Rust \\#lifetimes")
	assert.Contains(t, md, "### You <sub>08:26:53</sub>")
	assert.Contains(t, md, "A scope for a reference.")
	assert.Contains(t, md, "<sub>ollama/llama3</sub>")
	assert.Contains(t, md, "Exported from moly on March 14, 2025 at 9:26 AM")
	assert.NotContains(t, md, "partial", "failed replies are skipped by default")
}

func TestMarkdownFrontMatterIsValidYAML(t *testing.T) {
	conv := testConversation()
	conv.Title = "Test\nInjection: malicious"

	out, err := NewMarkdownExporter(testOptions()).Export(conv)
	require.NoError(t, err)

	parts := strings.SplitN(string(out), "---\n", 3)
	require.Len(t, parts, 3)

	var fm frontMatter
	require.NoError(t, yaml.Unmarshal([]byte(parts[1]), &fm))
	assert.Equal(t, "Test\nInjection: malicious", fm.Title)
	assert.Equal(t, "ollama/llama3", fm.Model)
	assert.Equal(t, 3, fm.Messages)
	assert.Equal(t, "moly", fm.Generator)
}

func TestMarkdownIncludeFailed(t *testing.T) {
	opts := testOptions()
	opts.IncludeFailed = true
	opts.IncludeMetadata = false
	opts.IncludeTimestamps = false

	out, err := NewMarkdownExporter(opts).Export(testConversation())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "# "))
	assert.Contains(t, md, "### Assistant\n\npartial")
	assert.Contains(t, md, "> **Error**: connection reset")
}

func TestJSONExport(t *testing.T) {
	out, err := NewJSONExporter(testOptions()).Export(testConversation())
	require.NoError(t, err)

	var doc Document
	require.NoError(t, json.Unmarshal(out, &doc))
	assert.Equal(t, "moly", doc.Generator)
	assert.True(t, doc.ExportedAt.Equal(fixedNow))
	require.NotNil(t, doc.Conversation)
	assert.Equal(t, "conv_1", doc.Conversation.ID)
	assert.Len(t, doc.Conversation.Messages, 3)
}

func TestExportDoesNotMutateConversation(t *testing.T) {
	conv := testConversation()
	_, err := NewJSONExporter(testOptions()).Export(conv)
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 4)
}

func TestExportRejectsEmpty(t *testing.T) {
	conv := model.NewConversation("", provider.ModelRef{})
	for _, exp := range []Exporter{NewMarkdownExporter(nil), NewJSONExporter(nil)} {
		_, err := exp.Export(conv)
		assert.ErrorIs(t, err, ErrEmptyConversation)

		_, err = exp.Export(nil)
		assert.Error(t, err)
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format string
		ext    string
	}{
		{"markdown", ".md"},
		{"MD", ".md"},
		{"", ".md"},
		{"json", ".json"},
	}
	for _, tt := range tests {
		exp, err := ForFormat(tt.format, nil)
		require.NoError(t, err, tt.format)
		assert.Equal(t, tt.ext, exp.FileExtension())
	}

	_, err := ForFormat("html", nil)
	assert.ErrorContains(t, err, "unknown export format")
}

func TestExportToFile(t *testing.T) {
	opts := testOptions()
	opts.OutputDir = filepath.Join(t.TempDir(), "out")

	path, err := ExportToFile(testConversation(), NewMarkdownExporter(opts), opts)
	require.NoError(t, err)
	assert.Equal(t, "conversation_Rust_#lifetimes_20250314_092653.md", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "What is a lifetime?")
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "conversation"},
		{"plain", "plain"},
		{"a/b\\c:d", "a-b-c-d"},
		{"two words", "two_words"},
		{"bell\a", "bell-"},
		{strings.Repeat("x", 80), strings.Repeat("x", 47) + "..."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeFilename(tt.in), tt.in)
	}
}
