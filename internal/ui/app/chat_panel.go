// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/moly-tui/internal/model"
	"github.com/jeranaias/moly-tui/internal/provider"
	"github.com/jeranaias/moly-tui/internal/router"
	"github.com/jeranaias/moly-tui/internal/store"
	"github.com/jeranaias/moly-tui/internal/ui/chat"
	"github.com/jeranaias/moly-tui/internal/ui/components"
	"github.com/jeranaias/moly-tui/internal/ui/styles"
	"github.com/jeranaias/moly-tui/internal/view"
)

// =============================================================================
// PANEL INTERFACE
// =============================================================================

// panel is one of the four views. A panel reads state only in acquire and
// keeps what it needs until the next acquire.
type panel interface {
	attachment() *view.Attachment

	// acquire drops cached state and re-reads it from snap.
	acquire(m *Model, snap *store.Snapshot)

	update(m *Model, msg tea.KeyMsg) tea.Cmd
	view(m *Model, width, height int) string

	focus() tea.Cmd
	blur()
}

// =============================================================================
// CHAT PANEL
// =============================================================================

const (
	inputHeight  = 3
	sidebarWidth = 28
)

type chatPanel struct {
	attach view.Attachment

	input      textarea.Model
	transcript viewport.Model
	sidebar    *components.Sidebar
	renderer   *chat.Renderer

	// Cached by acquire.
	conv        *model.Conversation
	showSidebar bool
}

func newChatPanel(theme *styles.Theme) *chatPanel {
	input := textarea.New()
	input.Placeholder = "Send a message..."
	input.ShowLineNumbers = false
	input.CharLimit = 0
	input.SetHeight(inputHeight)
	// Enter submits; newlines come from pasted text only.
	input.KeyMap.InsertNewline.SetEnabled(false)

	return &chatPanel{
		input:      input,
		transcript: viewport.New(80, 10),
		sidebar:    components.NewSidebar(theme),
		renderer:   chat.NewRenderer(theme),
	}
}

func (p *chatPanel) attachment() *view.Attachment { return &p.attach }

func (p *chatPanel) focus() tea.Cmd { return p.input.Focus() }

func (p *chatPanel) blur() { p.input.Blur() }

func (p *chatPanel) setTheme(theme *styles.Theme) {
	p.sidebar.SetTheme(theme)
	p.renderer.SetTheme(theme)
	p.renderer.Forget()
}

func (p *chatPanel) acquire(m *Model, snap *store.Snapshot) {
	prev := p.conv
	p.conv = nil
	if c, ok := snap.CurrentConversation(); ok {
		p.conv = c
	}
	if prev == nil || p.conv == nil || prev.ID != p.conv.ID {
		p.renderer.Forget()
	}
	p.showSidebar = snap.Preferences.SidebarExpanded
	p.sidebar.SetItems(snap.Conversations(), snap.CurrentConversationID)
	p.layout(m)
}

// layout sizes the widgets for the terminal and re-renders the transcript.
func (p *chatPanel) layout(m *Model) {
	width, height := m.bodySize()
	mainWidth := width
	if p.sidebarVisible(m) {
		mainWidth -= sidebarWidth
		p.sidebar.Width = sidebarWidth
		p.sidebar.Height = height
	}

	p.input.SetWidth(mainWidth - 2)
	p.transcript.Width = mainWidth
	p.transcript.Height = max(height-inputHeight-1, 1)
	p.redraw(m)
}

// redraw re-renders the transcript, following the bottom when the user has
// not scrolled up.
func (p *chatPanel) redraw(m *Model) {
	follow := p.transcript.AtBottom()
	p.transcript.SetContent(p.renderer.Render(p.conv, p.transcript.Width, m.spinner.View()))
	if follow {
		p.transcript.GotoBottom()
	}
}

func (p *chatPanel) sidebarVisible(m *Model) bool {
	return p.showSidebar && m.theme.GetLayoutMode() != styles.LayoutNarrow
}

func (p *chatPanel) updateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return cmd
}

func (p *chatPanel) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	k := m.keys
	switch {
	case key.Matches(msg, k.Submit):
		return p.send(m)
	case key.Matches(msg, k.Cancel):
		if p.conv != nil {
			m.runner.Cancel(p.conv.ID)
		}
		return nil
	case key.Matches(msg, k.NewChat):
		m.dispatch(store.CreateConversation{})
		return nil
	case key.Matches(msg, k.PrevChat):
		p.selectRelative(m, -1)
		return nil
	case key.Matches(msg, k.NextChat):
		p.selectRelative(m, 1)
		return nil
	case key.Matches(msg, k.DeleteChat):
		if p.conv != nil {
			m.runner.Cancel(p.conv.ID)
			m.dispatch(store.DeleteConversation{ID: p.conv.ID})
		}
		return nil
	case key.Matches(msg, k.ScrollUp):
		p.transcript.HalfViewUp()
		return nil
	case key.Matches(msg, k.ScrollDown):
		p.transcript.HalfViewDown()
		return nil
	}
	return p.updateInput(msg)
}

// selectRelative moves to the conversation delta steps away in the sidebar.
func (p *chatPanel) selectRelative(m *Model, delta int) {
	n := len(p.sidebar.Items)
	if n == 0 {
		return
	}
	if delta < 0 {
		p.sidebar.Cursor.Up(n)
	} else {
		p.sidebar.Cursor.Down(n)
	}
	if c, ok := p.sidebar.Selected(); ok {
		m.dispatch(store.SelectConversation{ID: c.ID})
	}
}

// send appends the typed message and starts a streamed reply.
func (p *chatPanel) send(m *Model) tea.Cmd {
	text := strings.TrimSpace(p.input.Value())
	if text == "" {
		return nil
	}

	if p.conv == nil {
		if !m.dispatch(store.CreateConversation{}) {
			return nil
		}
	}
	snap := m.store.Snapshot()
	conv, ok := snap.CurrentConversation()
	if !ok {
		return nil
	}
	if _, busy := conv.Streaming(); busy || m.runner.Running(conv.ID) {
		m.status.SetNotice("wait for the current reply or press Esc")
		return nil
	}

	d, ref, ok := route(snap, conv)
	if !ok {
		m.status.SetError("no model available; configure a provider in Settings")
		return nil
	}

	if !m.dispatch(store.AppendMessage{ConversationID: conv.ID, Message: model.NewUserMessage(text)}) {
		return nil
	}
	msgID := model.NewMessageID()
	if !m.dispatch(store.StartTurn{ConversationID: conv.ID, MessageID: msgID, Model: ref}) {
		return nil
	}
	p.input.Reset()

	current, _ := m.store.Snapshot().Conversation(conv.ID)
	m.runner.Start(m.ctx, chat.Turn{
		ConversationID: conv.ID,
		MessageID:      msgID,
		Request: router.Request{
			Provider: d,
			ModelID:  ref.ModelID,
			History:  current.History(),
		},
	})
	m.logger.Debug("turn started",
		zap.String("conversation", conv.ID),
		zap.String("provider", d.ID),
		zap.String("model", ref.ModelID))
	return m.startSpinner()
}

// route picks the provider and model for a new turn: the conversation's
// routing provider when enabled, else the active provider. The model is the
// conversation's when it belongs to that provider, else the provider's first.
func route(snap *store.Snapshot, conv *model.Conversation) (provider.Descriptor, provider.ModelRef, bool) {
	d, ok := snap.Provider(conv.ProviderID)
	if !ok || !d.Enabled {
		d, ok = snap.Provider(snap.ActiveProvider)
	}
	if !ok || !d.Enabled {
		return provider.Descriptor{}, provider.ModelRef{}, false
	}

	ref := conv.Model
	if ref.ProviderID != d.ID || ref.ModelID == "" {
		models := snap.ModelsFor(d.ID)
		if len(models) == 0 {
			return provider.Descriptor{}, provider.ModelRef{}, false
		}
		ref = models[0]
	}
	return d, ref, true
}

func (p *chatPanel) view(m *Model, width, height int) string {
	t := m.theme
	main := lipgloss.JoinVertical(lipgloss.Left,
		p.transcript.View(),
		t.InputContainer.Width(width-p.sidebarWidth(m)).Render(p.input.View()),
	)
	if !p.sidebarVisible(m) {
		return main
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, p.sidebar.View(), main)
}

func (p *chatPanel) sidebarWidth(m *Model) int {
	if p.sidebarVisible(m) {
		return sidebarWidth
	}
	return 0
}
