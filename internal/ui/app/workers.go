// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/moly-tui/internal/aggregate"
	"github.com/jeranaias/moly-tui/internal/config"
	"github.com/jeranaias/moly-tui/internal/provider"
	"github.com/jeranaias/moly-tui/internal/store"
)

// =============================================================================
// MODEL REFRESH
// =============================================================================

// refresh fetches every fetchable provider off the loop. Manual refreshes
// report throttling; automatic ones are skipped silently.
func (m *Model) refresh(manual bool) tea.Cmd {
	if m.refreshing {
		return nil
	}
	if !m.limiter.Allow() {
		if manual {
			m.status.SetNotice("refresh throttled; try again shortly")
		}
		return nil
	}

	var fetchable []provider.Descriptor
	for _, d := range m.snap.Providers {
		if d.Enabled && d.Fetchable() {
			fetchable = append(fetchable, d)
		}
	}
	if len(fetchable) == 0 {
		if manual {
			m.status.SetNotice("no provider to refresh")
		}
		return nil
	}
	for _, d := range fetchable {
		m.dispatch(store.SetProviderStatus{ID: d.ID, Status: provider.StatusConnecting})
	}

	m.refreshing = true
	snap := m.snap
	ctx := m.ctx
	s := m.store
	fetch := func() tea.Msg {
		return modelsLoadedMsg{Results: s.FetchModels(ctx, snap), Full: true}
	}
	return tea.Batch(fetch, m.startSpinner())
}

// fetchProvider fetches a single provider, typically after it was enabled or
// reconfigured.
func (m *Model) fetchProvider(d provider.Descriptor) tea.Cmd {
	m.dispatch(store.SetProviderStatus{ID: d.ID, Status: provider.StatusConnecting})
	ctx := m.ctx
	s := m.store
	return func() tea.Msg {
		return modelsLoadedMsg{Results: []aggregate.FetchResult{s.FetchProvider(ctx, d)}}
	}
}

func (m *Model) handleModelsLoaded(msg modelsLoadedMsg) tea.Cmd {
	if msg.Full {
		m.refreshing = false
	}
	if len(msg.Results) == 0 {
		return nil
	}

	var failed int
	for _, res := range msg.Results {
		if res.Err != nil {
			failed++
		}
	}
	if m.dispatch(store.ProviderModelsLoaded{Results: msg.Results}) && msg.Full {
		n := len(m.snap.Models)
		if failed > 0 {
			m.status.SetNotice(fmt.Sprintf("%d models; %d provider(s) unreachable", n, failed))
		} else {
			m.status.SetNotice(fmt.Sprintf("%d models", n))
		}
	}
	return nil
}

func tickRefresh(every time.Duration) tea.Cmd {
	return tea.Tick(every, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

// =============================================================================
// STORE SIGNAL
// =============================================================================

// waitForRevision blocks until the store signals a new revision. It returns
// nil once the model is closed.
func (m *Model) waitForRevision() tea.Cmd {
	ch, done := m.changes, m.ctx.Done()
	return func() tea.Msg {
		select {
		case rev := <-ch:
			return storeChangedMsg{Revision: rev}
		case <-done:
			return nil
		}
	}
}

// =============================================================================
// FILE RELOAD
// =============================================================================

// waitForChange blocks until w signals and returns msg. A closed watcher
// ends the wait loop.
func waitForChange(w Watcher, msg tea.Msg) tea.Cmd {
	if w == nil {
		return nil
	}
	ch := w.Changes()
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return msg
	}
}

func (m *Model) loadProviders() tea.Cmd {
	if m.reloadProviders == nil {
		return nil
	}
	reload := m.reloadProviders
	return func() tea.Msg {
		ds, err := reload()
		return configLoadedMsg{Providers: ds, Err: err}
	}
}

// handleConfigLoaded turns an edited provider list into actions, then
// fetches the providers whose connection changed.
func (m *Model) handleConfigLoaded(msg configLoadedMsg) tea.Cmd {
	if msg.Err != nil {
		m.logger.Warn("config reload failed", zap.Error(msg.Err))
		m.status.SetError("config reload failed: " + msg.Err.Error())
		return nil
	}

	upserts, removed := config.DiffProviders(m.snap.Providers, msg.Providers)
	if len(upserts) == 0 && len(removed) == 0 {
		return nil
	}
	for _, id := range removed {
		m.dispatch(store.RemoveProvider{ID: id, FromFile: true})
	}

	var cmds []tea.Cmd
	for _, d := range upserts {
		if !m.dispatch(store.UpsertProvider{ID: d.ID, Descriptor: d, FromFile: true}) {
			continue
		}
		if fresh, ok := m.snap.Provider(d.ID); ok && fresh.Fetchable() {
			cmds = append(cmds, m.fetchProvider(fresh))
		}
	}
	m.logger.Info("providers reloaded from config",
		zap.Int("changed", len(upserts)), zap.Int("removed", len(removed)))
	m.status.SetNotice("configuration reloaded")
	return tea.Batch(cmds...)
}

func (m *Model) loadMCP() tea.Cmd {
	if m.reloadMCP == nil {
		return nil
	}
	reload := m.reloadMCP
	return func() tea.Msg {
		cfg, err := reload()
		return mcpLoadedMsg{Config: cfg, Err: err}
	}
}

func (m *Model) handleMcpLoaded(msg mcpLoadedMsg) {
	if msg.Err != nil {
		m.logger.Warn("mcp reload failed", zap.Error(msg.Err))
		m.status.SetError("mcp reload failed: " + msg.Err.Error())
		return
	}
	if m.dispatch(store.ReplaceMcpConfig{Config: msg.Config}) {
		m.status.SetNotice("mcp configuration reloaded")
	}
}
