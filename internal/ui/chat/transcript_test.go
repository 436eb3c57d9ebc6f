// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/moly-tui/internal/model"
	"github.com/jeranaias/moly-tui/internal/provider"
	"github.com/jeranaias/moly-tui/internal/ui/styles"
)

func TestRender_EmptyConversation(t *testing.T) {
	r := NewRenderer(styles.NewTheme(styles.Light))
	out := r.Render(model.NewConversation("c1", provider.ModelRef{}), 80, "|")
	if !strings.Contains(out, "Type a message") {
		t.Errorf("empty transcript = %q", out)
	}
}

func TestRender_Messages(t *testing.T) {
	ref := provider.ModelRef{ProviderID: "alpha", ModelID: "llama3"}
	c := model.NewConversation("c1", ref)
	c.AddMessage(model.NewUserMessage("hello there"))

	reply := model.NewAssistantMessage("m1", ref)
	c.AddMessage(reply)
	_ = c.AppendDelta("m1", "partial answ")
	_ = c.FinishMessage("m1", "connection reset")

	r := NewRenderer(styles.NewTheme(styles.Dark))
	out := r.Render(c, 100, "|")

	for _, want := range []string{"hello there", "llama3", "connection reset", styles.StatusIndicators.Error} {
		if !strings.Contains(out, want) {
			t.Errorf("transcript missing %q:\n%s", want, out)
		}
	}
}

func TestRender_StreamingShowsSpinner(t *testing.T) {
	ref := provider.ModelRef{ProviderID: "alpha", ModelID: "llama3"}
	c := model.NewConversation("c1", ref)
	c.AddMessage(model.NewUserMessage("hi"))
	c.AddMessage(model.NewAssistantMessage("m1", ref))

	out := NewRenderer(styles.NewTheme(styles.Light)).Render(c, 80, "@")
	if !strings.Contains(out, "@ thinking") {
		t.Errorf("streaming placeholder missing:\n%s", out)
	}
}

func TestKeyMapHelpIsComplete(t *testing.T) {
	k := DefaultKeyMap()
	for _, group := range k.FullHelp() {
		for _, b := range group {
			if len(b.Keys()) == 0 || b.Help().Desc == "" {
				t.Errorf("binding %+v has no keys or help", b.Help())
			}
		}
	}
	if !key.Matches(tea.KeyMsg{Type: tea.KeyTab}, k.NextView) {
		t.Error("tab should switch to the next view")
	}
}
