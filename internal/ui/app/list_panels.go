// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/moly-tui/internal/mcp"
	"github.com/jeranaias/moly-tui/internal/model"
	"github.com/jeranaias/moly-tui/internal/provider"
	"github.com/jeranaias/moly-tui/internal/store"
	"github.com/jeranaias/moly-tui/internal/ui/components"
	"github.com/jeranaias/moly-tui/internal/ui/styles"
	"github.com/jeranaias/moly-tui/internal/util"
	"github.com/jeranaias/moly-tui/internal/view"
)

// line is one rendered row of a list panel. Rows with selectable set take
// part in cursor movement.
type line struct {
	text       string
	header     bool
	selectable bool
}

// renderLines draws rows, highlighting the selectable row at cursor and
// scrolling so it stays visible.
func renderLines(t *styles.Theme, rows []line, cursor, width, height int) string {
	selected := -1
	n := 0
	for i, r := range rows {
		if !r.selectable {
			continue
		}
		if n == cursor {
			selected = i
		}
		n++
	}

	c := components.Cursor{Index: max(selected, 0)}
	start, end := c.Window(len(rows), height)

	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		r := rows[i]
		text := util.TruncateWidth(r.text, max(width-4, 8))
		switch {
		case r.header:
			out = append(out, t.SectionTitle.Render(text))
		case i == selected:
			out = append(out, t.ListItemSelected.Render(util.PadRight(text, max(width-4, 8))))
		default:
			out = append(out, t.ListItem.Render(text))
		}
	}
	return strings.Join(out, "\n")
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

// =============================================================================
// MODELS PANEL
// =============================================================================

// modelsPanel lists the aggregate grouped by provider. Enter binds the
// selected model to the current conversation.
type modelsPanel struct {
	attach view.Attachment
	cursor components.Cursor

	// Cached by acquire.
	refs    []provider.ModelRef
	rows    []line
	current provider.ModelRef
}

func newModelsPanel() *modelsPanel { return &modelsPanel{} }

func (p *modelsPanel) attachment() *view.Attachment { return &p.attach }
func (p *modelsPanel) focus() tea.Cmd { return nil }
func (p *modelsPanel) blur() {}

func (p *modelsPanel) acquire(_ *Model, snap *store.Snapshot) {
	p.refs = p.refs[:0]
	p.rows = p.rows[:0]
	p.current = chatModel(snap)

	for _, d := range snap.Providers {
		if !d.Enabled {
			continue
		}
		models := snap.ModelsFor(d.ID)
		header := fmt.Sprintf("%s (%s, %d models)", d.DisplayName(), d.Status, len(models))
		if d.ID == snap.ActiveProvider {
			header += " " + styles.StatusIndicators.Active
		}
		p.rows = append(p.rows, line{text: header, header: true})
		if len(models) == 0 {
			p.rows = append(p.rows, line{text: "no models"})
		}
		for _, ref := range models {
			p.refs = append(p.refs, ref)
			p.rows = append(p.rows, line{text: modelLine(ref, ref == p.current), selectable: true})
		}
	}
	p.cursor.Clamp(len(p.refs))
}

func modelLine(ref provider.ModelRef, current bool) string {
	marker := "  "
	if current {
		marker = "> "
	}
	text := marker + ref.ModelID
	if info, ok := model.Describe(ref); ok {
		text += "  " + info.Name + " - " + info.CapabilitiesString()
	}
	return text
}

func (p *modelsPanel) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	k := m.keys
	switch {
	case key.Matches(msg, k.Up):
		p.cursor.Up(len(p.refs))
	case key.Matches(msg, k.Down):
		p.cursor.Down(len(p.refs))
	case key.Matches(msg, k.Select):
		if len(p.refs) == 0 {
			return nil
		}
		return p.choose(m, p.refs[p.cursor.Index])
	}
	return nil
}

// choose binds ref to the current conversation, creating one if needed,
// and returns to the chat.
func (p *modelsPanel) choose(m *Model, ref provider.ModelRef) tea.Cmd {
	conv := m.snap.CurrentConversationID
	if conv == "" {
		if !m.dispatch(store.CreateConversation{Model: ref}) {
			return nil
		}
		conv = m.snap.CurrentConversationID
	}
	if !m.dispatch(store.SelectModel{ConversationID: conv, Model: ref}) {
		return nil
	}
	m.status.SetNotice("model " + ref.String())
	return m.navigate(view.Chat)
}

func (p *modelsPanel) view(m *Model, width, height int) string {
	if len(p.rows) == 0 {
		return m.theme.MutedStyle.Render("No providers enabled. Enable one in Settings, then press Ctrl+R.")
	}
	return renderLines(m.theme, p.rows, p.cursor.Index, width, height)
}

// =============================================================================
// SETTINGS PANEL
// =============================================================================

// settingsPanel edits preferences and providers. Space toggles the selected
// item; Enter on a provider routes new messages to it.
type settingsPanel struct {
	attach view.Attachment
	cursor components.Cursor

	// Cached by acquire.
	providers []provider.Descriptor
	rows      []line
}

// Rows before the provider list.
const (
	settingsTheme = iota
	settingsSidebar
	settingsFixedRows
)

func newSettingsPanel() *settingsPanel { return &settingsPanel{} }

func (p *settingsPanel) attachment() *view.Attachment { return &p.attach }
func (p *settingsPanel) focus() tea.Cmd { return nil }
func (p *settingsPanel) blur() {}

func (p *settingsPanel) acquire(_ *Model, snap *store.Snapshot) {
	p.providers = append(p.providers[:0], snap.Providers...)
	pr := snap.Preferences

	sidebar := "collapsed"
	if pr.SidebarExpanded {
		sidebar = "expanded"
	}
	p.rows = []line{
		{text: "Appearance", header: true},
		{text: "Theme    " + string(pr.Theme), selectable: true},
		{text: "Sidebar  " + sidebar, selectable: true},
		{text: "Providers", header: true},
	}
	for _, d := range p.providers {
		text := fmt.Sprintf("%s %-12s %-7s %-13s %3d models  %s",
			checkbox(d.Enabled), d.DisplayName(), d.Kind, d.Status,
			len(snap.ModelsFor(d.ID)), d.Endpoint)
		if d.ID == snap.ActiveProvider {
			text += " " + styles.StatusIndicators.Active
		}
		if d.StatusDetail != "" {
			text += "  " + util.SingleLine(d.StatusDetail)
		}
		p.rows = append(p.rows, line{text: text, selectable: true})
	}
	p.cursor.Clamp(settingsFixedRows + len(p.providers))
}

func (p *settingsPanel) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	k := m.keys
	n := settingsFixedRows + len(p.providers)
	switch {
	case key.Matches(msg, k.Up):
		p.cursor.Up(n)
	case key.Matches(msg, k.Down):
		p.cursor.Down(n)
	case key.Matches(msg, k.Toggle):
		return p.toggle(m)
	case key.Matches(msg, k.Select):
		if d, ok := p.selectedProvider(); ok {
			m.dispatch(store.SwitchActiveProvider{ID: d.ID})
			return nil
		}
		return p.toggle(m)
	}
	return nil
}

func (p *settingsPanel) selectedProvider() (provider.Descriptor, bool) {
	i := p.cursor.Index - settingsFixedRows
	if i < 0 || i >= len(p.providers) {
		return provider.Descriptor{}, false
	}
	return p.providers[i], true
}

func (p *settingsPanel) toggle(m *Model) tea.Cmd {
	pr := m.snap.Preferences
	switch p.cursor.Index {
	case settingsTheme:
		m.dispatch(store.SetTheme{Theme: pr.Theme.Toggle()})
		return nil
	case settingsSidebar:
		m.dispatch(store.SetSidebarExpanded{Expanded: !pr.SidebarExpanded})
		return nil
	}

	d, ok := p.selectedProvider()
	if !ok {
		return nil
	}
	d.Enabled = !d.Enabled
	if !m.dispatch(store.UpsertProvider{ID: d.ID, Descriptor: d}) {
		return nil
	}
	if !d.Enabled {
		return nil
	}
	// The upsert bumped the generation; fetch with the new descriptor.
	fresh, ok := m.snap.Provider(d.ID)
	if !ok || !fresh.Fetchable() {
		return nil
	}
	return m.fetchProvider(fresh)
}

func (p *settingsPanel) view(m *Model, width, height int) string {
	return renderLines(m.theme, p.rows, p.cursor.Index, width, height)
}

// =============================================================================
// MCP PANEL
// =============================================================================

// mcpPanel lists MCP servers. Space toggles the selected entry.
type mcpPanel struct {
	attach view.Attachment
	cursor components.Cursor

	// Cached by acquire.
	cfg  mcp.Config
	rows []line
}

// Rows before the server list.
const (
	mcpEnabled = iota
	mcpDangerous
	mcpFixedRows
)

func newMcpPanel() *mcpPanel { return &mcpPanel{} }

func (p *mcpPanel) attachment() *view.Attachment { return &p.attach }
func (p *mcpPanel) focus() tea.Cmd { return nil }
func (p *mcpPanel) blur() {}

func (p *mcpPanel) acquire(_ *Model, snap *store.Snapshot) {
	p.cfg = snap.MCP
	p.rows = []line{
		{text: "MCP", header: true},
		{text: checkbox(p.cfg.Enabled) + " MCP support", selectable: true},
		{text: checkbox(p.cfg.DangerousMode) + " Run tools without confirmation", selectable: true},
		{text: "Servers", header: true},
	}
	if len(p.cfg.Servers) == 0 {
		p.rows = append(p.rows, line{text: "no servers configured in " + mcp.FileName})
	}
	for _, s := range p.cfg.Servers {
		p.rows = append(p.rows, line{
			text:       fmt.Sprintf("%s %-20s %-6s %s", checkbox(s.Enabled), s.ID, s.Transport(), s.Target()),
			selectable: true,
		})
	}
	p.cursor.Clamp(mcpFixedRows + len(p.cfg.Servers))
}

func (p *mcpPanel) update(m *Model, msg tea.KeyMsg) tea.Cmd {
	k := m.keys
	n := mcpFixedRows + len(p.cfg.Servers)
	switch {
	case key.Matches(msg, k.Up):
		p.cursor.Up(n)
	case key.Matches(msg, k.Down):
		p.cursor.Down(n)
	case key.Matches(msg, k.Toggle), key.Matches(msg, k.Select):
		p.toggle(m)
	}
	return nil
}

func (p *mcpPanel) toggle(m *Model) {
	switch p.cursor.Index {
	case mcpEnabled:
		m.dispatch(store.SetMcpEnabled{Enabled: !p.cfg.Enabled})
	case mcpDangerous:
		m.dispatch(store.SetMcpDangerousMode{Enabled: !p.cfg.DangerousMode})
	default:
		i := p.cursor.Index - mcpFixedRows
		if i >= 0 && i < len(p.cfg.Servers) {
			s := p.cfg.Servers[i]
			m.dispatch(store.SetMcpServerEnabled{ID: s.ID, Enabled: !s.Enabled})
		}
	}
}

func (p *mcpPanel) view(m *Model, width, height int) string {
	return renderLines(m.theme, p.rows, p.cursor.Index, width, height)
}
